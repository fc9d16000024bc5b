package virtualizer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/vscroll/internal/datastore"
	"github.com/zjrosen/vscroll/internal/flags"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/pubsub"
	"github.com/zjrosen/vscroll/internal/tracing"
)

// Config holds the layout and timing parameters of an Engine.
type Config struct {
	// EstimatedItemHeight is used for items that have not been measured.
	EstimatedItemHeight float64
	// ContainerHeight is the viewport height.
	ContainerHeight float64
	// Overscan is the number of extra items rendered on each side of the viewport.
	Overscan int
	// ItemGap is the vertical space between consecutive items.
	ItemGap float64
	// ScrollIdleDelay is how long after the last scroll the list is idle.
	ScrollIdleDelay time.Duration
	// MeasureDebounce delays committing reported measurements per item.
	MeasureDebounce time.Duration
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		EstimatedItemHeight: 300,
		ContainerHeight:     600,
		Overscan:            2,
		ItemGap:             16,
		ScrollIdleDelay:     DefaultScrollIdleDelay,
		MeasureDebounce:     DefaultMeasureDebounce,
	}
}

// ItemKeyFunc derives the key of the item at index.
type ItemKeyFunc[T any] func(index int, item T) datastore.Key

// Recorder receives engine measurements. internal/metrics implements it.
type Recorder interface {
	ObserveRebuild(d time.Duration, extents int, bounded bool)
	ObserveBatch(outcome string, d time.Duration, items int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRebuild(time.Duration, int, bool) {}
func (nopRecorder) ObserveBatch(string, time.Duration, int) {}

// Batch outcomes passed to Recorder.ObserveBatch.
const (
	BatchOK       = "ok"
	BatchStale    = "stale"
	BatchCanceled = "canceled"
	BatchFailed   = "failed"
)

// BatchOutcome classifies the error returned by GenerateBatch.
func BatchOutcome(err error) string {
	switch {
	case err == nil:
		return BatchOK
	case errors.Is(err, datastore.ErrStaleBatch), errors.Is(err, datastore.ErrClosed):
		return BatchStale
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return BatchCanceled
	default:
		return BatchFailed
	}
}

// Event is the payload of every engine event. Fields not relevant to the
// event type are left at their zero value.
type Event struct {
	// Items is the collection length (index_rebuilt, loading).
	Items int
	// Extents is the number of laid out extents (index_rebuilt).
	Extents int
	// TotalHeight is the content height (index_rebuilt).
	TotalHeight float64
	// Bounded is set when only the initial window was laid out (index_rebuilt).
	Bounded bool
	// State is the new scroll state (scroll_state).
	State ScrollState
	// Loading is the store's loading flag (loading).
	Loading bool
	// ScrollTop is the scroll offset after an anchor correction (scroll_adjusted).
	ScrollTop float64
	// Delta is the anchor correction applied to the scroll offset (scroll_adjusted).
	Delta float64
}

// Frame is everything a host needs to draw the list once.
type Frame struct {
	VirtualItems []Extent
	TotalHeight  float64
	VisibleRange VisibleRange
	IsScrolling  bool
	Loading      bool
	ScrollTop    float64
}

// Stats counts engine work.
type Stats struct {
	Rebuilds              uint64
	Measurements          uint64
	DiscardedMeasurements uint64
	PrunedHeights         uint64
}

// Option configures an Engine.
type Option[T any] func(*Engine[T])

// WithClock replaces the real clock, for tests.
func WithClock[T any](c Clock) Option[T] {
	return func(e *Engine[T]) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithItemKey overrides the store's key function.
func WithItemKey[T any](fn ItemKeyFunc[T]) Option[T] {
	return func(e *Engine[T]) {
		if fn != nil {
			e.itemKey = fn
		}
	}
}

// WithFlags sets the feature flag registry.
func WithFlags[T any](r *flags.Registry) Option[T] {
	return func(e *Engine[T]) {
		if r != nil {
			e.flags = r
		}
	}
}

// WithTracer sets the tracer used for rebuild and batch spans.
func WithTracer[T any](t trace.Tracer) Option[T] {
	return func(e *Engine[T]) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder[T any](r Recorder) Option[T] {
	return func(e *Engine[T]) {
		if r != nil {
			e.recorder = r
		}
	}
}

// Engine keeps the position index of a Store consistent with measured
// heights and resolves the visible range for the current scroll offset.
//
// All entry points, timer callbacks and store notifications are serialized
// on one mutex. The engine must not be called from inside a store listener.
type Engine[T any] struct {
	mu sync.Mutex

	cfg      Config
	store    *datastore.Store[T]
	itemKey  ItemKeyFunc[T]
	clock    Clock
	flags    *flags.Registry
	tracer   trace.Tracer
	recorder Recorder
	broker   *pubsub.Broker[Event]

	heights   *HeightCache
	tracker   *ScrollTracker
	debouncer *Debouncer[datastore.Key]

	keys      []datastore.Key
	positions map[datastore.Key]int
	index     PositionIndex
	scrollTop float64
	loading   bool
	// everMeasured stays set once a height is committed, until RemeasureAll
	// or a reset leaves the cache empty. It gates the initial window.
	everMeasured bool
	stats        Stats
	closed       bool
}

var _ pubsub.Subscriber[Event] = (*Engine[int])(nil)

// New creates an Engine over store and subscribes it to store mutations.
func New[T any](store *datastore.Store[T], cfg Config, opts ...Option[T]) *Engine[T] {
	e := &Engine[T]{
		cfg:      cfg,
		store:    store,
		clock:    RealClock{},
		flags:    flags.WithDefaults(nil),
		tracer:   noop.NewTracerProvider().Tracer("vscroll"),
		recorder: nopRecorder{},
		broker:   pubsub.NewBroker[Event](),
	}
	e.itemKey = func(_ int, item T) datastore.Key { return store.KeyOf(item) }
	for _, opt := range opts {
		opt(e)
	}

	e.heights = NewHeightCache(cfg.EstimatedItemHeight)
	e.tracker = NewScrollTracker(e.clock, cfg.ScrollIdleDelay, e.publishScrollState)
	e.debouncer = NewDebouncer[datastore.Key](e.clock, cfg.MeasureDebounce)

	e.mu.Lock()
	e.loading = store.Loading()
	e.refreshKeysLocked()
	e.rebuildLocked("init")
	e.mu.Unlock()

	store.Subscribe(e.onMutation)
	return e
}

// Store returns the underlying collection.
func (e *Engine[T]) Store() *datastore.Store[T] {
	return e.store
}

// Subscribe returns a channel of engine events that closes when ctx is done
// or the engine is closed.
func (e *Engine[T]) Subscribe(ctx context.Context) <-chan pubsub.Event[Event] {
	return e.broker.Subscribe(ctx)
}

// Config returns the current configuration.
func (e *Engine[T]) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Reconfigure applies cfg and rebuilds the index. Measured heights are kept.
func (e *Engine[T]) Reconfigure(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.cfg = cfg
	e.heights.SetEstimated(cfg.EstimatedItemHeight)
	e.tracker.SetDelay(cfg.ScrollIdleDelay)
	e.debouncer.SetDelay(cfg.MeasureDebounce)
	log.Info(log.CatConfig, "engine reconfigured",
		"estimated", cfg.EstimatedItemHeight,
		"container", cfg.ContainerHeight,
		"overscan", cfg.Overscan,
		"gap", cfg.ItemGap)
	e.rebuildLocked("reconfigure")
}

// SetContainerHeight changes the viewport height.
func (e *Engine[T]) SetContainerHeight(h float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || h == e.cfg.ContainerHeight {
		return
	}
	e.cfg.ContainerHeight = h
	e.rebuildLocked("resize")
}

// HandleScroll records a scroll to offset. Negative offsets clamp to 0.
func (e *Engine[T]) HandleScroll(offset float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.scrollTop = max(offset, 0)
	e.tracker.Scroll()
}

// ScrollTop returns the current scroll offset.
func (e *Engine[T]) ScrollTop() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scrollTop
}

// MaxScrollTop is the largest offset that still fills the viewport.
func (e *Engine[T]) MaxScrollTop() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return max(0, e.index.TotalHeight()-e.cfg.ContainerHeight)
}

// OffsetOf returns the top of the item at index, if it is laid out.
func (e *Engine[T]) OffsetOf(index int) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ext, ok := e.index.At(index)
	return ext.Start, ok
}

// Frame resolves the visible range at the current scroll offset.
func (e *Engine[T]) Frame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := Resolve(e.scrollTop, e.cfg.ContainerHeight, e.cfg.Overscan, e.index)
	return Frame{
		VirtualItems: e.index.Slice(r),
		TotalHeight:  e.index.TotalHeight(),
		VisibleRange: r,
		IsScrolling:  e.tracker.State() == ScrollActive,
		Loading:      e.loading,
		ScrollTop:    e.scrollTop,
	}
}

// VirtualItems returns the extents to render.
func (e *Engine[T]) VirtualItems() []Extent {
	return e.Frame().VirtualItems
}

// VisibleRange returns the inclusive range to render.
func (e *Engine[T]) VisibleRange() VisibleRange {
	return e.Frame().VisibleRange
}

// TotalHeight returns the content height.
func (e *Engine[T]) TotalHeight() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.TotalHeight()
}

// IsScrolling reports whether a scroll happened within the idle delay.
func (e *Engine[T]) IsScrolling() bool {
	return e.tracker.State() == ScrollActive
}

// Index returns the current position index.
func (e *Engine[T]) Index() PositionIndex {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// Stats returns work counters.
func (e *Engine[T]) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// GetItemHeight returns the height the item at index is laid out with.
// Out-of-range indexes return the estimated height.
func (e *Engine[T]) GetItemHeight(index int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.keys) {
		return e.heights.Estimated()
	}
	return e.heights.Get(e.keys[index])
}

// SetItemHeight commits a measured height for item at index immediately.
// It returns true if the index was rebuilt.
func (e *Engine[T]) SetItemHeight(index int, item T, height float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || index < 0 || index >= len(e.keys) {
		log.Debug(log.CatMeasure, "height for unknown index ignored", "index", index)
		return false
	}
	return e.setHeightLocked(index, e.itemKey(index, item), height)
}

// ReportMeasurement schedules a measured height for the item currently at
// index. Reports for the same item within the debounce window collapse into
// the last one. The commit is dropped if the collection was reset or the item
// removed in the meantime.
func (e *Engine[T]) ReportMeasurement(index int, height float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || index < 0 || index >= len(e.keys) {
		log.Debug(log.CatMeasure, "measurement for unknown index dropped", "index", index)
		return false
	}
	key := e.keys[index]
	resets := e.store.Resets()
	e.debouncer.Schedule(key, func() {
		e.commitMeasurement(key, resets, height)
	})
	return true
}

func (e *Engine[T]) commitMeasurement(key datastore.Key, resets uint64, height float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	index, ok := e.positions[key]
	if !ok || e.store.Resets() != resets {
		e.stats.DiscardedMeasurements++
		log.Debug(log.CatMeasure, "stale measurement discarded", "key", key, "resets", resets)
		return
	}
	e.setHeightLocked(index, key, height)
}

func (e *Engine[T]) setHeightLocked(index int, key datastore.Key, height float64) bool {
	before, laidOut := e.index.At(index)
	if !e.heights.Set(key, height) {
		return false
	}
	e.stats.Measurements++
	e.everMeasured = true

	if laidOut && before.Key == key && before.End <= e.scrollTop && e.flags.Enabled(flags.FlagScrollAnchor) {
		if delta := height - before.Height; delta != 0 {
			e.scrollTop = max(0, e.scrollTop+delta)
			log.Debug(log.CatScroll, "scroll anchored", "key", key, "delta", delta, "scrollTop", e.scrollTop)
			e.broker.Publish(pubsub.ScrollAdjustedEvent, Event{ScrollTop: e.scrollTop, Delta: delta})
		}
	}

	e.rebuildLocked("measure")
	return true
}

// RemeasureItem reverts the item at index to the estimated height.
func (e *Engine[T]) RemeasureItem(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || index < 0 || index >= len(e.keys) {
		log.Debug(log.CatMeasure, "remeasure for unknown index ignored", "index", index)
		return false
	}
	key := e.keys[index]
	e.debouncer.Cancel(key)
	if !e.heights.Invalidate(key) {
		return false
	}
	e.rebuildLocked("remeasure")
	return true
}

// RemeasureAll drops every measurement.
func (e *Engine[T]) RemeasureAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.debouncer.CancelAll()
	e.heights.InvalidateAll()
	e.everMeasured = false
	e.rebuildLocked("remeasure_all")
}

// GenerateBatch replaces the collection through the store, traced and
// recorded.
func (e *Engine[T]) GenerateBatch(ctx context.Context, count int, gen func(i int) (T, error)) error {
	start := time.Now()
	err := tracing.Run(ctx, e.tracer, tracing.SpanBatchGenerate, func(ctx context.Context, span trace.Span) error {
		err := e.store.GenerateBatch(ctx, count, gen)
		span.SetAttributes(attribute.String(tracing.AttrBatchOutcome, BatchOutcome(err)))
		return err
	}, attribute.Int(tracing.AttrBatchCount, count))

	e.recorder.ObserveBatch(BatchOutcome(err), time.Since(start), count)
	return err
}

// Close cancels every timer, forces the idle state and closes event
// subscriptions. Later calls are no-ops.
func (e *Engine[T]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.debouncer.Close()
	e.tracker.Close()
	e.broker.Close()
	log.Debug(log.CatIndex, "engine closed", "rebuilds", e.stats.Rebuilds)
}

func (e *Engine[T]) onMutation(m datastore.Mutation) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	if m.Kind.Structural() {
		e.refreshKeysLocked()
		if n := e.heights.Prune(e.keys); n > 0 {
			e.stats.PrunedHeights += uint64(n)
		}
		if m.Kind == datastore.MutationCleared || m.Kind == datastore.MutationReplaced {
			e.everMeasured = e.heights.Len() > 0
		}
		e.rebuildLocked(m.Kind.String())
	}
	if m.Loading != e.loading {
		e.loading = m.Loading
		e.broker.Publish(pubsub.LoadingEvent, Event{Loading: m.Loading, Items: m.Len})
	}
}

func (e *Engine[T]) refreshKeysLocked() {
	items := e.store.Items()
	e.keys = make([]datastore.Key, len(items))
	e.positions = make(map[datastore.Key]int, len(items))
	for i, item := range items {
		k := e.itemKey(i, item)
		e.keys[i] = k
		e.positions[k] = i
	}
}

func (e *Engine[T]) rebuildLocked(reason string) {
	_, span := e.tracer.Start(context.Background(), tracing.SpanIndexRebuild,
		trace.WithAttributes(
			attribute.String(tracing.AttrRebuildReason, reason),
			attribute.Int(tracing.AttrItems, len(e.keys)),
		))
	defer span.End()

	start := time.Now()
	if !e.everMeasured && e.flags.Enabled(flags.FlagInitialWindow) {
		e.index = BuildInitialWindow(e.keys, e.cfg.EstimatedItemHeight, e.cfg.ItemGap, e.cfg.ContainerHeight, e.cfg.Overscan)
	} else {
		e.index = BuildIndex(e.keys, e.heights, e.cfg.ItemGap)
	}
	elapsed := time.Since(start)
	e.stats.Rebuilds++

	span.SetAttributes(
		attribute.Int(tracing.AttrExtents, e.index.Len()),
		attribute.Bool(tracing.AttrBounded, e.index.Bounded()),
	)
	e.recorder.ObserveRebuild(elapsed, e.index.Len(), e.index.Bounded())
	log.Debug(log.CatIndex, "index rebuilt",
		"reason", reason,
		"extents", e.index.Len(),
		"items", len(e.keys),
		"total", e.index.TotalHeight())

	e.broker.Publish(pubsub.IndexRebuiltEvent, Event{
		Items:       len(e.keys),
		Extents:     e.index.Len(),
		TotalHeight: e.index.TotalHeight(),
		Bounded:     e.index.Bounded(),
	})
}

func (e *Engine[T]) publishScrollState(s ScrollState) {
	e.broker.Publish(pubsub.ScrollStateEvent, Event{State: s})
}
