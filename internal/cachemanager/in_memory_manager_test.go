package cachemanager

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

type heightKey string

func newTestCache() *InMemoryCacheManager[heightKey, float64] {
	return NewInMemoryCacheManager[heightKey, float64]("heights", NoExpiration, 0)
}

func TestInMemoryCacheManager_GetSet(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache()

	_, ok := cache.Get(ctx, "a")
	require.False(t, ok)

	cache.Set(ctx, "a", 120, NoExpiration)
	got, ok := cache.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, 120.0, got)
}

func TestInMemoryCacheManager_WrongType(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache()

	cache.cache.Set("a", "not a number", NoExpiration)

	got, ok := cache.Get(ctx, "a")
	require.False(t, ok)
	require.Zero(t, got)
}

func TestInMemoryCacheManager_GetMultiple(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache()

	got, ok := cache.GetMultiple(ctx, nil)
	require.False(t, ok)
	require.Nil(t, got)

	cache.Set(ctx, "a", 1, NoExpiration)
	cache.Set(ctx, "b", 2, NoExpiration)

	got, ok = cache.GetMultiple(ctx, []heightKey{"a", "b", "missing"})
	require.True(t, ok)
	require.Equal(t, map[heightKey]float64{"a": 1, "b": 2}, got)

	got, ok = cache.GetMultiple(ctx, []heightKey{"x", "y"})
	require.False(t, ok)
	require.Nil(t, got)
}

func TestInMemoryCacheManager_KeysDeleteFlush(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache()

	for _, k := range []heightKey{"c", "a", "b"} {
		cache.Set(ctx, k, 10, NoExpiration)
	}
	require.Equal(t, 3, cache.Len(ctx))

	keys := cache.Keys(ctx)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	require.Equal(t, []heightKey{"a", "b", "c"}, keys)

	require.NoError(t, cache.Delete(ctx, "a", "b"))
	require.Equal(t, []heightKey{"c"}, cache.Keys(ctx))

	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.Len(ctx))
}
