// Package cachemanager provides typed key/value caches used by the engine.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a typed cache with optional per-entry expiration.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetMultiple(ctx context.Context, keys []K) (map[K]V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Keys(ctx context.Context) []K
	Len(ctx context.Context) int
	Flush(ctx context.Context) error
}
