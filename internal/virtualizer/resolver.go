package virtualizer

import "math"

// VisibleRange is the inclusive range of item indexes to render, and the
// offset of the first one from the top of the content.
type VisibleRange struct {
	Start   int
	End     int
	OffsetY float64
}

// EmptyRange renders nothing.
var EmptyRange = VisibleRange{Start: 0, End: -1}

// Empty reports whether the range contains no items.
func (r VisibleRange) Empty() bool {
	return r.End < r.Start
}

// Len returns the number of items in the range.
func (r VisibleRange) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains reports whether index i is in the range.
func (r VisibleRange) Contains(i int) bool {
	return i >= r.Start && i <= r.End
}

// Resolve maps a scroll offset to the range of extents intersecting
// [scrollTop, scrollTop+containerHeight], widened by overscan on both sides.
func Resolve(scrollTop, containerHeight float64, overscan int, idx PositionIndex) VisibleRange {
	n := idx.Len()
	if n == 0 || containerHeight <= 0 {
		return EmptyRange
	}
	overscan = max(overscan, 0)
	last := n - 1

	start := idx.search(scrollTop)

	bottom := scrollTop + containerHeight
	end := idx.search(bottom)
	if end < last && idx.extents[end].End < bottom {
		end++
	}

	r := VisibleRange{
		Start: max(0, start-overscan),
		End:   min(last, end+overscan),
	}
	if r.Start > 0 {
		r.OffsetY = idx.extents[r.Start].Start
	}
	return r
}

// ResolveFixed is Resolve for a list whose items all share itemHeight and
// have no gap. It needs no index.
func ResolveFixed(count int, itemHeight, scrollTop, containerHeight float64, overscan int) VisibleRange {
	if count <= 0 || itemHeight <= 0 || containerHeight <= 0 {
		return EmptyRange
	}
	overscan = max(overscan, 0)

	top := max(scrollTop, 0)
	first := int(math.Floor(top / itemHeight))
	last := int(math.Floor((top + containerHeight) / itemHeight))

	start := min(max(0, first-overscan), count-1)
	end := min(count-1, last+overscan)
	return VisibleRange{
		Start:   start,
		End:     end,
		OffsetY: float64(start) * itemHeight,
	}
}
