package virtualizer

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/vscroll/internal/datastore"
)

func uniformIndex(n int, height, gap float64) PositionIndex {
	return BuildIndex(seqKeys(n), fixedHeights{estimated: height}, gap)
}

func TestResolve(t *testing.T) {
	// Extents of height 100 with a 10 gap: [0,100) [110,210) [220,320) ...
	idx := uniformIndex(20, 100, 10)

	tests := []struct {
		name      string
		scrollTop float64
		container float64
		overscan  int
		want      VisibleRange
	}{
		{name: "top", scrollTop: 0, container: 250, overscan: 0, want: VisibleRange{Start: 0, End: 2}},
		{name: "top with overscan", scrollTop: 0, container: 250, overscan: 2, want: VisibleRange{Start: 0, End: 4}},
		{name: "inside an item", scrollTop: 150, container: 100, overscan: 0, want: VisibleRange{Start: 1, End: 2, OffsetY: 110}},
		{name: "inside a gap", scrollTop: 105, container: 100, overscan: 0, want: VisibleRange{Start: 1, End: 1, OffsetY: 110}},
		{name: "bottom lands in a gap", scrollTop: 0, container: 215, overscan: 0, want: VisibleRange{Start: 0, End: 2}},
		{name: "overscan clamps at both ends", scrollTop: 1900, container: 500, overscan: 3, want: VisibleRange{Start: 14, End: 19, OffsetY: 1540}},
		{name: "past the end", scrollTop: 99999, container: 100, overscan: 0, want: VisibleRange{Start: 19, End: 19, OffsetY: 2090}},
		{name: "zero container", scrollTop: 0, container: 0, overscan: 2, want: EmptyRange},
		{name: "negative overscan treated as zero", scrollTop: 0, container: 50, overscan: -1, want: VisibleRange{Start: 0, End: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Resolve(tt.scrollTop, tt.container, tt.overscan, idx))
		})
	}
}

func TestResolve_EmptyIndex(t *testing.T) {
	r := Resolve(0, 600, 2, PositionIndex{})
	require.Equal(t, EmptyRange, r)
	require.True(t, r.Empty())
	require.Zero(t, r.Len())
}

func TestResolve_InitialWindow(t *testing.T) {
	// 1000 items, estimate 300, container 600, overscan 2, gap 16.
	idx := BuildInitialWindow(seqKeys(1000), 300, 16, 600, 2)
	require.Equal(t, 7, idx.Len())

	r := Resolve(0, 600, 2, idx)
	require.Equal(t, VisibleRange{Start: 0, End: 3}, r)
	require.True(t, r.End < idx.Len(), "the range stays inside the laid out window")
}

func TestResolve_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 300).Draw(rt, "n")
		gap := float64(rapid.IntRange(0, 30).Draw(rt, "gap"))
		measured := map[datastore.Key]float64{}
		for _, k := range seqKeys(n) {
			measured[k] = float64(rapid.IntRange(1, 400).Draw(rt, "height"))
		}
		idx := BuildIndex(seqKeys(n), fixedHeights{measured: measured}, gap)

		container := float64(rapid.IntRange(1, 2000).Draw(rt, "container"))
		overscan := rapid.IntRange(0, 5).Draw(rt, "overscan")
		scrollTop := float64(rapid.IntRange(0, int(idx.TotalHeight())).Draw(rt, "scrollTop"))

		r := Resolve(scrollTop, container, overscan, idx)

		require.GreaterOrEqual(rt, r.Start, 0)
		require.LessOrEqual(rt, r.Start, r.End)
		require.Less(rt, r.End, n)
		if r.Start == 0 {
			require.Zero(rt, r.OffsetY)
		} else {
			ext, _ := idx.At(r.Start)
			require.Equal(rt, ext.Start, r.OffsetY)
		}

		// Every extent intersecting the viewport is in the range.
		bottom := scrollTop + container
		for _, ext := range idx.Extents() {
			if ext.End > scrollTop && ext.Start < bottom {
				require.True(rt, r.Contains(ext.Index), "extent %d intersects the viewport", ext.Index)
			}
		}

		if scrollTop == 0 {
			require.Zero(rt, r.Start)
		}
	})
}

func TestResolveFixed(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		scrollTop float64
		want      VisibleRange
	}{
		{name: "top", count: 100, scrollTop: 0, want: VisibleRange{Start: 0, End: 7}},
		{name: "middle", count: 100, scrollTop: 1000, want: VisibleRange{Start: 18, End: 27, OffsetY: 900}},
		{name: "end", count: 20, scrollTop: 1000, want: VisibleRange{Start: 18, End: 19, OffsetY: 900}},
		{name: "empty", count: 0, scrollTop: 0, want: EmptyRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 50px rows in a 250px viewport with overscan 2.
			require.Equal(t, tt.want, ResolveFixed(tt.count, 50, tt.scrollTop, 250, 2))
		})
	}
}
