package virtualizer

import (
	"github.com/zjrosen/vscroll/internal/datastore"
)

// fixedHeights is a HeightSource over a plain map.
type fixedHeights struct {
	estimated float64
	measured  map[datastore.Key]float64
}

func (f fixedHeights) Get(k datastore.Key) float64 {
	if h, ok := f.measured[k]; ok {
		return h
	}
	return f.estimated
}

func (f fixedHeights) Measured(k datastore.Key) bool {
	_, ok := f.measured[k]
	return ok
}

func seqKeys(n int) []datastore.Key {
	keys := make([]datastore.Key, n)
	for i := range keys {
		keys[i] = datastore.IntKey(i)
	}
	return keys
}

type row struct {
	ID   int
	Body string
}

func rowKey(r row) datastore.Key { return datastore.IntKey(r.ID) }

func rows(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{ID: i}
	}
	return out
}
