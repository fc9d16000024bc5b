package virtualizer

import (
	"sync"
	"time"
)

// DefaultMeasureDebounce batches measurement bursts into roughly one commit
// per frame.
const DefaultMeasureDebounce = 16 * time.Millisecond

// Debouncer runs at most one pending callback per key. Scheduling a key
// again replaces its pending callback and restarts the delay.
type Debouncer[K comparable] struct {
	mu      sync.Mutex
	clock   Clock
	delay   time.Duration
	gen     uint64
	pending map[K]debounced
	closed  bool
}

type debounced struct {
	gen   uint64
	timer Timer
}

// NewDebouncer creates a Debouncer. A nil clock uses RealClock and a
// non-positive delay uses DefaultMeasureDebounce.
func NewDebouncer[K comparable](clock Clock, delay time.Duration) *Debouncer[K] {
	if clock == nil {
		clock = RealClock{}
	}
	if delay <= 0 {
		delay = DefaultMeasureDebounce
	}
	return &Debouncer[K]{clock: clock, delay: delay, pending: make(map[K]debounced)}
}

// SetDelay changes the delay used by later Schedule calls.
func (d *Debouncer[K]) SetDelay(delay time.Duration) {
	if delay <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Schedule arranges for fn to run after the delay unless key is scheduled
// again or canceled first. fn runs without the debouncer locked.
func (d *Debouncer[K]) Schedule(key K, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}
	d.gen++
	gen := d.gen
	timer := d.clock.AfterFunc(d.delay, func() {
		if d.take(key, gen) {
			fn()
		}
	})
	d.pending[key] = debounced{gen: gen, timer: timer}
}

// take removes key if its pending entry is still generation gen.
func (d *Debouncer[K]) take(key K, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, ok := d.pending[key]
	if !ok || cur.gen != gen {
		return false
	}
	delete(d.pending, key)
	return true
}

// Cancel drops the pending callback for key.
func (d *Debouncer[K]) Cancel(key K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, ok := d.pending[key]
	if !ok {
		return false
	}
	cur.timer.Stop()
	delete(d.pending, key)
	return true
}

// CancelAll drops every pending callback.
func (d *Debouncer[K]) CancelAll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelAllLocked()
}

func (d *Debouncer[K]) cancelAllLocked() int {
	n := len(d.pending)
	for _, p := range d.pending {
		p.timer.Stop()
	}
	clear(d.pending)
	return n
}

// Pending returns the number of keys with a pending callback.
func (d *Debouncer[K]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close cancels everything and ignores later Schedule calls.
func (d *Debouncer[K]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.cancelAllLocked()
}
