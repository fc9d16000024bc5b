package virtualizer

import (
	"math"
	"sort"

	"github.com/zjrosen/vscroll/internal/datastore"
)

// Extent is the laid out position of one item.
type Extent struct {
	// Index is the item's position in the collection.
	Index int
	// Key is the item's stable identity.
	Key datastore.Key
	// Start is the offset of the item's top edge from the top of the content.
	Start float64
	// End is Start + Height.
	End float64
	// Height is the measured height, or the estimate when Measured is false.
	Height float64
	// Measured reports whether Height came from a measurement.
	Measured bool
}

// PositionIndex is an immutable, ordered list of extents. Consecutive
// extents are separated by the item gap: Start[i+1] == End[i] + gap.
type PositionIndex struct {
	extents []Extent
	items   int
}

// BuildIndex lays out every key using heights, in a single pass.
func BuildIndex(keys []datastore.Key, heights HeightSource, gap float64) PositionIndex {
	extents := make([]Extent, len(keys))
	offset := 0.0
	for i, k := range keys {
		h := heights.Get(k)
		extents[i] = Extent{
			Index:    i,
			Key:      k,
			Start:    offset,
			End:      offset + h,
			Height:   h,
			Measured: heights.Measured(k),
		}
		offset += h + gap
	}
	return PositionIndex{extents: extents, items: len(keys)}
}

// BuildInitialWindow lays out only the items that can be on screen before
// anything has been measured: ceil(containerHeight/(estimated+gap)) plus
// overscan on both sides, inclusive of the last index. Every extent uses the
// estimated height.
func BuildInitialWindow(keys []datastore.Key, estimated, gap, containerHeight float64, overscan int) PositionIndex {
	n := len(keys)
	last := n - 1
	if step := estimated + gap; step > 0 && containerHeight > 0 {
		visible := int(math.Ceil(containerHeight / step))
		last = min(last, visible+overscan*2)
	}

	extents := make([]Extent, 0, last+1)
	offset := 0.0
	for i := 0; i <= last; i++ {
		extents = append(extents, Extent{
			Index:  i,
			Key:    keys[i],
			Start:  offset,
			End:    offset + estimated,
			Height: estimated,
		})
		offset += estimated + gap
	}
	return PositionIndex{extents: extents, items: n}
}

// Len returns the number of extents.
func (p PositionIndex) Len() int {
	return len(p.extents)
}

// ItemCount returns the size of the collection the index was built from.
func (p PositionIndex) ItemCount() int {
	return p.items
}

// Bounded reports whether the index covers only a prefix of the collection.
func (p PositionIndex) Bounded() bool {
	return len(p.extents) < p.items
}

// At returns the extent at i.
func (p PositionIndex) At(i int) (Extent, bool) {
	if i < 0 || i >= len(p.extents) {
		return Extent{}, false
	}
	return p.extents[i], true
}

// Extents returns the extents. The slice must not be modified.
func (p PositionIndex) Extents() []Extent {
	return p.extents
}

// TotalHeight is the End of the last extent, or 0 when empty.
func (p PositionIndex) TotalHeight() float64 {
	if len(p.extents) == 0 {
		return 0
	}
	return p.extents[len(p.extents)-1].End
}

// Slice returns the extents in the inclusive range r.
func (p PositionIndex) Slice(r VisibleRange) []Extent {
	if r.Empty() || r.Start >= len(p.extents) {
		return nil
	}
	end := min(r.End, len(p.extents)-1)
	out := make([]Extent, end-r.Start+1)
	copy(out, p.extents[r.Start:end+1])
	return out
}

// search returns the first index whose End is greater than offset, clamped
// to the last index. The index must not be empty.
func (p PositionIndex) search(offset float64) int {
	i := sort.Search(len(p.extents), func(i int) bool {
		return p.extents[i].End > offset
	})
	return min(i, len(p.extents)-1)
}
