package virtualizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncer_CollapsesPerKey(t *testing.T) {
	clock := NewManualClock()
	d := NewDebouncer[string](clock, 16*time.Millisecond)
	var got []string

	d.Schedule("a", func() { got = append(got, "a1") })
	clock.Advance(10 * time.Millisecond)
	d.Schedule("a", func() { got = append(got, "a2") })
	d.Schedule("b", func() { got = append(got, "b1") })
	require.Equal(t, 2, d.Pending())

	clock.Advance(10 * time.Millisecond)
	require.Empty(t, got, "a was rescheduled, b is not due yet")

	clock.Advance(6 * time.Millisecond)
	require.Equal(t, []string{"a2", "b1"}, got)
	require.Zero(t, d.Pending())
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := NewManualClock()
	d := NewDebouncer[int](clock, time.Millisecond)
	fired := 0

	d.Schedule(1, func() { fired++ })
	d.Schedule(2, func() { fired++ })
	d.Schedule(3, func() { fired++ })

	require.True(t, d.Cancel(1))
	require.False(t, d.Cancel(1))
	require.Equal(t, 2, d.CancelAll())

	clock.Advance(time.Second)
	require.Zero(t, fired)
}

func TestDebouncer_Close(t *testing.T) {
	clock := NewManualClock()
	d := NewDebouncer[int](clock, time.Millisecond)
	fired := 0

	d.Schedule(1, func() { fired++ })
	d.Close()
	d.Schedule(2, func() { fired++ })

	clock.Advance(time.Second)
	require.Zero(t, fired)
	require.Zero(t, d.Pending())
}

func TestDebouncer_Defaults(t *testing.T) {
	d := NewDebouncer[int](nil, 0)
	require.Equal(t, DefaultMeasureDebounce, d.delay)
	require.IsType(t, RealClock{}, d.clock)
}
