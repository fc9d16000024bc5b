package virtualizer

import (
	"sync"
	"time"

	"github.com/zjrosen/vscroll/internal/log"
)

// DefaultScrollIdleDelay is how long after the last scroll event the list is
// considered idle.
const DefaultScrollIdleDelay = 150 * time.Millisecond

// ScrollState is whether the list is being scrolled.
type ScrollState int

const (
	ScrollIdle ScrollState = iota
	ScrollActive
)

// String returns the string representation of the scroll state.
func (s ScrollState) String() string {
	switch s {
	case ScrollIdle:
		return "idle"
	case ScrollActive:
		return "scrolling"
	default:
		return "unknown"
	}
}

// ScrollTracker debounces scroll events into an idle/scrolling signal.
//
// Every Scroll restarts the idle timer. Each timer carries the sequence number
// of the Scroll that armed it, and a timer whose sequence was superseded does
// nothing when it fires. onChange runs with the tracker locked and must not
// call back into it.
type ScrollTracker struct {
	mu       sync.Mutex
	clock    Clock
	delay    time.Duration
	onChange func(ScrollState)

	state  ScrollState
	seq    uint64
	timer  Timer
	closed bool
}

// NewScrollTracker creates an idle tracker. A nil clock uses RealClock and a
// non-positive delay uses DefaultScrollIdleDelay.
func NewScrollTracker(clock Clock, delay time.Duration, onChange func(ScrollState)) *ScrollTracker {
	if clock == nil {
		clock = RealClock{}
	}
	if delay <= 0 {
		delay = DefaultScrollIdleDelay
	}
	return &ScrollTracker{clock: clock, delay: delay, onChange: onChange}
}

// State returns the current state.
func (t *ScrollTracker) State() ScrollState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetDelay changes the idle delay used by later Scroll calls.
func (t *ScrollTracker) SetDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delay = d
}

// Scroll records a scroll event.
func (t *ScrollTracker) Scroll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.seq++
	seq := t.seq
	t.timer = t.clock.AfterFunc(t.delay, func() { t.settle(seq) })

	if t.state != ScrollActive {
		t.transitionLocked(ScrollActive)
	}
}

func (t *ScrollTracker) settle(seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || seq != t.seq {
		log.Debug(log.CatScroll, "stale idle timer ignored", "seq", seq, "current", t.seq)
		return
	}
	t.timer = nil
	t.transitionLocked(ScrollIdle)
}

func (t *ScrollTracker) transitionLocked(s ScrollState) {
	t.state = s
	log.Debug(log.CatScroll, "scroll state changed", "state", s)
	if t.onChange != nil {
		t.onChange(s)
	}
}

// Close cancels the pending timer and forces idle. Later events are ignored.
func (t *ScrollTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	t.seq++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.state != ScrollIdle {
		t.transitionLocked(ScrollIdle)
	}
}
