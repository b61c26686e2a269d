package cart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_pos/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func sampleLines() []domain.CartLine {
	return []domain.CartLine{
		{ProductID: 1, Name: "Tea", UnitPrice: decimal.RequireFromString("2.50"), Quantity: 2},
		{ProductID: 2, Name: "Cake", UnitPrice: decimal.RequireFromString("4"), Quantity: 1},
	}
}

func TestRedisCache_SetAndGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "s1", sampleLines()))
	assert.True(t, mr.Exists("cart:s1"))

	got, err := cache.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Tea", got[0].Name)
	assert.True(t, got[0].UnitPrice.Equal(decimal.RequireFromString("2.5")))
}

func TestRedisCache_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	got, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestRedisCache_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)

	data, err := json.Marshal(sampleLines())
	require.NoError(t, err)
	require.NoError(t, mr.Set("cart:s1", string(data[:10])))

	_, err = cache.Get(context.Background(), "s1")
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestRedisCache_TTLHasJitter(t *testing.T) {
	cache, mr := setupTestRedis(t)

	require.NoError(t, cache.Set(context.Background(), "s1", sampleLines()))

	ttl := mr.TTL("cart:s1")
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.LessOrEqual(t, ttl, 20*time.Minute)
}

func TestRedisCache_EmptyCartDeletesKey(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "s1", sampleLines()))
	require.NoError(t, cache.Set(ctx, "s1", nil))
	assert.False(t, mr.Exists("cart:s1"))
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "s1", sampleLines()))
	require.NoError(t, cache.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("cart:s1"))

	assert.NoError(t, cache.Delete(ctx, "never-set"))
}

func TestRedisCache_ServerDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.ErrorContains(t, err, "redis get failed")
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "cart:abc", cacheKey("abc"))
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	_, err := c.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, c.Set(context.Background(), "x", sampleLines()))
	assert.NoError(t, c.Delete(context.Background(), "x"))
}
