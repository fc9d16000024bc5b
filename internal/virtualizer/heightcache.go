// Package virtualizer computes which items of a variable-height list are
// visible in a fixed-height viewport and where they sit.
//
// Heights start as an estimate and are replaced by measurements reported by
// the host. The position index is rebuilt from those heights on every change
// and the visible range is found by binary search over it.
package virtualizer

import (
	"context"

	"github.com/zjrosen/vscroll/internal/cachemanager"
	"github.com/zjrosen/vscroll/internal/datastore"
	"github.com/zjrosen/vscroll/internal/log"
)

// HeightSource resolves the height to lay out an item with.
type HeightSource interface {
	Get(key datastore.Key) float64
	Measured(key datastore.Key) bool
}

// HeightCache maps item keys to measured heights. Keys without an entry use
// the estimated height.
type HeightCache struct {
	estimated float64
	store     cachemanager.CacheManager[datastore.Key, float64]
}

var _ HeightSource = (*HeightCache)(nil)

// NewHeightCache creates an empty cache that falls back to estimated.
func NewHeightCache(estimated float64) *HeightCache {
	return &HeightCache{
		estimated: estimated,
		store: cachemanager.NewInMemoryCacheManager[datastore.Key, float64](
			"item-heights", cachemanager.NoExpiration, 0),
	}
}

// Estimated returns the fallback height.
func (c *HeightCache) Estimated() float64 {
	return c.estimated
}

// SetEstimated changes the fallback height used for unmeasured keys.
func (c *HeightCache) SetEstimated(h float64) {
	c.estimated = h
}

// Get returns the measured height of key, or the estimated height.
func (c *HeightCache) Get(key datastore.Key) float64 {
	if h, ok := c.store.Get(context.Background(), key); ok {
		return h
	}
	return c.estimated
}

// Measured reports whether key has a measured height.
func (c *HeightCache) Measured(key datastore.Key) bool {
	_, ok := c.store.Get(context.Background(), key)
	return ok
}

// Set records a measured height. It returns false, leaving the cache
// untouched, when h is not positive or equals the cached value.
func (c *HeightCache) Set(key datastore.Key, h float64) bool {
	if h <= 0 {
		log.Debug(log.CatCache, "ignoring non-positive height", "key", key, "height", h)
		return false
	}
	ctx := context.Background()
	if prev, ok := c.store.Get(ctx, key); ok && prev == h {
		return false
	}
	c.store.Set(ctx, key, h, cachemanager.NoExpiration)
	return true
}

// Len returns the number of measured keys.
func (c *HeightCache) Len() int {
	return c.store.Len(context.Background())
}

// Invalidate reverts key to the estimated height.
// Returns false if it had no measurement.
func (c *HeightCache) Invalidate(key datastore.Key) bool {
	if !c.Measured(key) {
		return false
	}
	_ = c.store.Delete(context.Background(), key)
	return true
}

// InvalidateAll drops every measurement.
func (c *HeightCache) InvalidateAll() {
	_ = c.store.Flush(context.Background())
}

// Prune removes every measurement whose key is not in valid and returns how
// many were removed.
func (c *HeightCache) Prune(valid []datastore.Key) int {
	ctx := context.Background()
	keep := make(map[datastore.Key]struct{}, len(valid))
	for _, k := range valid {
		keep[k] = struct{}{}
	}

	var stale []datastore.Key
	for _, k := range c.store.Keys(ctx) {
		if _, ok := keep[k]; !ok {
			stale = append(stale, k)
		}
	}
	if len(stale) == 0 {
		return 0
	}
	_ = c.store.Delete(ctx, stale...)
	log.Debug(log.CatCache, "pruned heights", "removed", len(stale), "remaining", c.Len())
	return len(stale)
}
