package datastore

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/zjrosen/vscroll/internal/log"
)

// DefaultChunkSize is the number of items generated between scheduler yields.
const DefaultChunkSize = 1000

var (
	// ErrStaleBatch is returned by GenerateBatch when a newer reset superseded it.
	ErrStaleBatch = errors.New("batch superseded by a newer store reset")
	// ErrGenerator wraps failures raised by a batch generator.
	ErrGenerator = errors.New("batch generator failed")
	// ErrClosed is returned by GenerateBatch after Close.
	ErrClosed = errors.New("store closed")
)

// YieldFunc hands control back to the scheduler between batch chunks.
type YieldFunc func(ctx context.Context) error

// Listener is called synchronously after a mutation, outside the store lock.
type Listener func(Mutation)

// Store is an ordered, keyed collection. It is safe for concurrent use.
type Store[T any] struct {
	mu        sync.RWMutex
	items     []T
	keyOf     KeyFunc[T]
	loading   bool
	epoch     uint64
	resets    uint64
	closed    bool
	chunkSize int
	yield     YieldFunc

	listenersMu sync.RWMutex
	listeners   []Listener
}

// Option configures a Store.
type Option[T any] func(*Store[T])

// WithChunkSize sets how many items GenerateBatch produces between yields.
func WithChunkSize[T any](n int) Option[T] {
	return func(s *Store[T]) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithYield replaces the default scheduler yield (runtime.Gosched).
func WithYield[T any](fn YieldFunc) Option[T] {
	return func(s *Store[T]) {
		if fn != nil {
			s.yield = fn
		}
	}
}

// WithItems seeds the collection.
func WithItems[T any](items []T) Option[T] {
	return func(s *Store[T]) {
		s.items = slices.Clone(items)
	}
}

// New creates a Store keyed by keyOf.
func New[T any](keyOf KeyFunc[T], opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		keyOf:     keyOf,
		chunkSize: DefaultChunkSize,
		yield:     gosched,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func gosched(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// Subscribe registers fn for every future mutation.
func (s *Store[T]) Subscribe(fn Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store[T]) notify(m Mutation) {
	s.listenersMu.RLock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(m)
	}
}

// mutation builds a Mutation from current state. Callers hold s.mu.
func (s *Store[T]) mutation(kind MutationKind, count int) Mutation {
	return Mutation{Kind: kind, Epoch: s.epoch, Resets: s.resets, Count: count, Len: len(s.items), Loading: s.loading}
}

// KeyOf returns the key of item.
func (s *Store[T]) KeyOf(item T) Key {
	return s.keyOf(item)
}

// Items returns a copy of the collection.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Len returns the number of items.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// At returns the item at index.
func (s *Store[T]) At(index int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	if index < 0 || index >= len(s.items) {
		return zero, false
	}
	return s.items[index], true
}

// IndexOf returns the index of the item with the given key, or -1.
func (s *Store[T]) IndexOf(id Key) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOfLocked(id)
}

func (s *Store[T]) indexOfLocked(id Key) int {
	for i, item := range s.items {
		if s.keyOf(item) == id {
			return i
		}
	}
	return -1
}

// Keys returns the key of every item in order.
func (s *Store[T]) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]Key, len(s.items))
	for i, item := range s.items {
		keys[i] = s.keyOf(item)
	}
	return keys
}

// Loading reports whether a batch generation is in flight.
func (s *Store[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Epoch returns the current batch epoch. It moves on every reset and when a
// batch starts.
func (s *Store[T]) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Resets counts the times the collection was swapped out as a whole
// (SetItems, Clear, a committed batch). Starting a batch leaves it alone
// because the current items stay in place while the batch is produced.
func (s *Store[T]) Resets() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resets
}

// Search returns the items matching pred, in order.
func (s *Store[T]) Search(pred func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []T
	for _, item := range s.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Add appends item.
func (s *Store[T]) Add(item T) {
	s.mu.Lock()
	s.items = append(s.items, item)
	m := s.mutation(MutationAdded, 1)
	s.mu.Unlock()

	s.notify(m)
}

// Insert places item at index when 0 <= index <= Len(), and appends otherwise.
func (s *Store[T]) Insert(index int, item T) {
	s.mu.Lock()
	if index >= 0 && index <= len(s.items) {
		s.items = slices.Insert(s.items, index, item)
	} else {
		log.Debug(log.CatStore, "insert index out of range, appending", "index", index, "len", len(s.items))
		s.items = append(s.items, item)
	}
	m := s.mutation(MutationAdded, 1)
	s.mu.Unlock()

	s.notify(m)
}

// Remove deletes every item whose key is id. Returns false when none matched.
func (s *Store[T]) Remove(id Key) bool {
	return s.RemoveMany(id) > 0
}

// RemoveMany deletes every item whose key is in ids and returns how many went.
func (s *Store[T]) RemoveMany(ids ...Key) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[Key]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	before := len(s.items)
	s.items = slices.DeleteFunc(s.items, func(item T) bool {
		_, ok := drop[s.keyOf(item)]
		return ok
	})
	removed := before - len(s.items)
	m := s.mutation(MutationRemoved, removed)
	s.mu.Unlock()

	if removed > 0 {
		s.notify(m)
	}
	return removed
}

// Update replaces the item whose key is id with fn(item).
// Returns false when no item matched.
func (s *Store[T]) Update(id Key, fn func(T) T) bool {
	s.mu.Lock()
	i := s.indexOfLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.items[i] = fn(s.items[i])
	m := s.mutation(MutationUpdated, 1)
	s.mu.Unlock()

	s.notify(m)
	return true
}

// Move relocates the item at from to index to, keeping every other item in
// order. Out-of-range indexes make it a no-op returning false.
func (s *Store[T]) Move(from, to int) bool {
	s.mu.Lock()
	n := len(s.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		s.mu.Unlock()
		log.Debug(log.CatStore, "move out of range ignored", "from", from, "to", to, "len", n)
		return false
	}
	if from != to {
		item := s.items[from]
		s.items = slices.Delete(s.items, from, from+1)
		s.items = slices.Insert(s.items, to, item)
	}
	m := s.mutation(MutationMoved, 1)
	s.mu.Unlock()

	s.notify(m)
	return true
}

// SetItems replaces the whole collection.
func (s *Store[T]) SetItems(items []T) {
	s.mu.Lock()
	s.items = slices.Clone(items)
	s.epoch++
	s.resets++
	m := s.mutation(MutationReplaced, len(items))
	s.mu.Unlock()

	s.notify(m)
}

// Clear empties the collection and abandons any in-flight batch.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	removed := len(s.items)
	s.items = nil
	s.epoch++
	s.resets++
	s.loading = false
	m := s.mutation(MutationCleared, removed)
	s.mu.Unlock()

	s.notify(m)
}

// Close abandons in-flight batches and rejects new ones.
func (s *Store[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	wasLoading := s.loading
	s.closed = true
	s.epoch++
	s.loading = false
	m := s.mutation(MutationLoading, 0)
	s.mu.Unlock()

	if wasLoading {
		s.notify(m)
	}
}

// GenerateBatch replaces the collection with count items produced by gen.
//
// Items are produced in chunks with a scheduler yield between chunks. The
// collection is only swapped once every item was produced; on any failure the
// previous collection stays in place and the error is returned. A batch that
// was superseded by Clear, SetItems, Close or a newer batch returns
// ErrStaleBatch and commits nothing.
func (s *Store[T]) GenerateBatch(ctx context.Context, count int, gen func(i int) (T, error)) error {
	token, err := s.beginBatch()
	if err != nil {
		return err
	}
	log.Debug(log.CatStore, "batch started", "count", count, "epoch", token)

	batch, err := s.produce(ctx, token, count, gen)
	if err != nil {
		if errors.Is(err, ErrStaleBatch) {
			log.Debug(log.CatStore, "batch discarded", "epoch", token)
			return err
		}
		s.failBatch(token)
		log.ErrorErr(log.CatStore, "batch failed", err, "count", count)
		return err
	}

	return s.commitBatch(token, batch)
}

func (s *Store[T]) beginBatch() (uint64, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	s.epoch++
	s.loading = true
	token := s.epoch
	m := s.mutation(MutationLoading, 0)
	s.mu.Unlock()

	s.notify(m)
	return token, nil
}

func (s *Store[T]) current(token uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch == token && !s.closed
}

func (s *Store[T]) produce(ctx context.Context, token uint64, count int, gen func(i int) (T, error)) (batch []T, err error) {
	batch = make([]T, 0, max(count, 0))
	for start := 0; start < count; start += s.chunkSize {
		end := min(start+s.chunkSize, count)
		for i := start; i < end; i++ {
			item, genErr := safeGenerate(gen, i)
			if genErr != nil {
				return nil, genErr
			}
			batch = append(batch, item)
		}

		if end < count {
			if err := s.yield(ctx); err != nil {
				return nil, fmt.Errorf("generating batch: %w", err)
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generating batch: %w", err)
		}
		if !s.current(token) {
			return nil, ErrStaleBatch
		}
	}
	return batch, nil
}

// safeGenerate calls gen and turns both errors and panics into ErrGenerator.
func safeGenerate[T any](gen func(i int) (T, error), i int) (item T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: item %d: panic: %v", ErrGenerator, i, r)
		}
	}()
	item, err = gen(i)
	if err != nil {
		return item, fmt.Errorf("%w: item %d: %w", ErrGenerator, i, err)
	}
	return item, nil
}

func (s *Store[T]) failBatch(token uint64) {
	s.mu.Lock()
	if s.epoch != token {
		s.mu.Unlock()
		return
	}
	s.loading = false
	m := s.mutation(MutationLoading, 0)
	s.mu.Unlock()

	s.notify(m)
}

func (s *Store[T]) commitBatch(token uint64, batch []T) error {
	s.mu.Lock()
	if s.epoch != token || s.closed {
		s.mu.Unlock()
		return ErrStaleBatch
	}
	s.items = batch
	s.epoch++
	s.resets++
	s.loading = false
	m := s.mutation(MutationReplaced, len(batch))
	s.mu.Unlock()

	log.Debug(log.CatStore, "batch committed", "count", len(batch), "epoch", m.Epoch)
	s.notify(m)
	return nil
}
