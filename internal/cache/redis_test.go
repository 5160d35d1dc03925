package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestCartCache_GetSet(t *testing.T) {
	client, _ := setupTestRedis(t)
	cartCache := NewRedisCartCache(client)
	ctx := context.Background()

	cart := &domain.Cart{
		SellerID: 42,
		Lines: []domain.CartLine{
			{ProductID: 1, Name: "Cafetera", UnitPrice: 1500, AvailableQuantity: 5, Quantity: 2},
		},
	}

	require.NoError(t, cartCache.Set(ctx, 42, cart))

	got, err := cartCache.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, cart.SellerID, got.SellerID)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int32(2), got.Lines[0].Quantity)
}

func TestCartCache_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)
	cartCache := NewRedisCartCache(client)

	_, err := cartCache.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCartCache_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	cartCache := NewRedisCartCache(client)
	ctx := context.Background()

	require.NoError(t, cartCache.Set(ctx, 42, &domain.Cart{SellerID: 42}))
	require.NoError(t, cartCache.Delete(ctx, 42))

	_, err := cartCache.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCartCache_CorruptedPayload(t *testing.T) {
	client, mr := setupTestRedis(t)
	cartCache := NewRedisCartCache(client)

	require.NoError(t, mr.Set("pos:cart:7", "not-json"))

	_, err := cartCache.Get(context.Background(), 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestCatalogCache_RoundTripAndExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	catalogCache := NewRedisCatalogCache(client)
	ctx := context.Background()

	snapshot := &domain.CatalogSnapshot{
		SellerID: 7,
		Entries: []domain.CatalogEntry{
			{ProductID: 3, Name: "Ventilador", UnitPrice: 8000, AvailableQuantity: 3},
		},
		FetchedAt: time.Now().UTC(),
	}
	require.NoError(t, catalogCache.Set(ctx, 7, snapshot))

	// Stored payload is JSON with the expected shape.
	raw, err := mr.Get("pos:catalog:7")
	require.NoError(t, err)
	var decoded domain.CatalogSnapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, int64(7), decoded.SellerID)

	// TTL was set within base + jitter bounds.
	ttl := mr.TTL("pos:catalog:7")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, catalogBaseTTL+30*time.Second)

	// After expiry the entry is a miss.
	mr.FastForward(catalogBaseTTL + time.Minute)
	_, err = catalogCache.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
