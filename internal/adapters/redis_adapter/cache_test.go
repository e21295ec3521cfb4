package redis_a_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/pos-engine/internal/adapters/redis_adapter"
	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/test/helpers"
)

func newCache(t *testing.T) (*redis_a.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger()), mr
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	t.Run("stores_and_retrieves_products", func(t *testing.T) {
		products := helpers.CreateTestProducts(3)
		require.NoError(t, cache.Set(ctx, "products:list", products))

		var got []domain.Product
		require.NoError(t, cache.Get(ctx, "products:list", &got))
		require.Len(t, got, 3)
		for i := range products {
			helpers.CompareProducts(t, &products[i], &got[i])
		}
	})

	t.Run("stores_and_retrieves_cart", func(t *testing.T) {
		snapshot := domain.NewSnapshot([]domain.Product{*helpers.CreateTestProduct()}, time.Now())
		cart := domain.NewCart()
		require.NoError(t, cart.AddLine("P001", 2, snapshot))
		require.NoError(t, cache.Set(ctx, "cart:abc", cart))

		restored := domain.NewCart()
		require.NoError(t, cache.Get(ctx, "cart:abc", restored))
		line, ok := restored.Line("P001")
		require.True(t, ok)
		assert.Equal(t, 2, line.Quantity)
		assert.True(t, decimal.RequireFromString("20").Equal(restored.Subtotal()))
	})

	t.Run("missing_key_is_cache_miss", func(t *testing.T) {
		var s string
		err := cache.Get(ctx, "nope", &s)
		assert.ErrorIs(t, err, ports.ErrCacheMiss)
	})

	t.Run("corrupt_value", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "bad", "plain string"))
		var n []int
		err := cache.Get(ctx, "bad", &n)
		var cacheErr *redis_a.CacheError
		require.ErrorAs(t, err, &cacheErr)
		assert.Equal(t, "unmarshal", cacheErr.Op)
	})
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	require.NoError(t, cache.SetWithTTL(ctx, "cart:ttl", "v", time.Minute))

	ttl, err := cache.TTL(ctx, "cart:ttl")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(2 * time.Minute)
	exists, err := cache.Exists(ctx, "cart:ttl")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCache_DeleteAndPattern(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	for _, k := range []string{"products:list", "products:low", "dashboard:summary", "cart:1"} {
		require.NoError(t, cache.Set(ctx, k, 1))
	}

	require.NoError(t, cache.Delete(ctx, "cart:1"))
	assert.False(t, mr.Exists("cart:1"))

	require.NoError(t, cache.DeletePattern(ctx, "products:*"))
	assert.False(t, mr.Exists("products:list"))
	assert.False(t, mr.Exists("products:low"))
	assert.True(t, mr.Exists("dashboard:summary"))

	require.NoError(t, cache.DeletePattern(ctx, "nothing:*"))
	require.NoError(t, cache.Delete(ctx))
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return []domain.Product{*helpers.CreateTestProduct()}, nil
	}

	var first []domain.Product
	require.NoError(t, cache.GetOrSet(ctx, "products:list", &first, fetch, time.Minute))
	var second []domain.Product
	require.NoError(t, cache.GetOrSet(ctx, "products:list", &second, fetch, time.Minute))

	assert.Equal(t, 1, calls)
	require.Len(t, second, 1)
	assert.True(t, decimal.RequireFromString("10").Equal(second[0].Price))

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.0001)

	var none []domain.Product
	boom := errors.New("store down")
	err := cache.GetOrSet(ctx, "products:other", &none, func() (interface{}, error) { return nil, boom }, time.Minute)
	assert.ErrorIs(t, err, boom)
}

func TestCache_CountersAndLocks(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	n, err := cache.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = cache.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, err := cache.SetNX(ctx, "lock:print:1", "worker-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = cache.SetNX(ctx, "lock:print:1", "worker-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Expire(ctx, "counter", time.Second))
	require.NoError(t, cache.Ping(ctx))
}

func TestCache_Unavailable(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { client.Close() })
	cache := redis_a.NewCache(client, time.Minute, helpers.TestLogger())

	var s string
	err := cache.Get(ctx, "k", &s)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrCacheMiss)
	assert.Error(t, cache.Ping(ctx))
}

func TestCacheManager_InvalidateCatalog(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)
	manager := redis_a.NewCacheManager(cache, helpers.TestLogger())

	for _, k := range []string{"products:list", "dashboard:summary", "cart:keep"} {
		require.NoError(t, cache.Set(ctx, k, 1))
	}

	require.NoError(t, manager.InvalidateCatalog(ctx))

	assert.False(t, mr.Exists("products:list"))
	assert.False(t, mr.Exists("dashboard:summary"))
	assert.True(t, mr.Exists("cart:keep"))
}

func TestCacheManager_Warmup(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)
	manager := redis_a.NewCacheManager(cache, helpers.TestLogger())

	loads := 0
	load := func(context.Context) (interface{}, error) {
		loads++
		return helpers.CreateTestProducts(2), nil
	}

	require.NoError(t, manager.Warmup(ctx, "products:list", time.Minute, load))
	require.NoError(t, manager.Warmup(ctx, "products:list", time.Minute, load))
	assert.Equal(t, 1, loads)

	var got []domain.Product
	require.NoError(t, cache.Get(ctx, "products:list", &got))
	assert.Len(t, got, 2)
}

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix redis_a.CacheKeyPrefix
		parts  []string
		want   string
	}{
		{name: "prefix_only", prefix: redis_a.PrefixDashboard, want: "dashboard"},
		{name: "cart_session", prefix: redis_a.PrefixCart, parts: []string{"abc"}, want: "cart:abc"},
		{name: "lock", prefix: redis_a.PrefixLock, parts: []string{"print", "42"}, want: "lock:print:42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, redis_a.BuildKey(tt.prefix, tt.parts...))
		})
	}
}
