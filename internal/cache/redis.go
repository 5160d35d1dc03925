package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

const (
	cartBaseTTL    = 15 * time.Minute
	catalogBaseTTL = 5 * time.Minute
)

// RedisCartCache caches session carts keyed by seller.
type RedisCartCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCartCache(client *redis.Client) *RedisCartCache {
	return &RedisCartCache{client: client, baseTTL: cartBaseTTL}
}

func (r *RedisCartCache) Get(ctx context.Context, sellerID int64) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(sellerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (r *RedisCartCache) Set(ctx context.Context, sellerID int64, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := r.client.Set(ctx, cartKey(sellerID), data, withJitter(r.baseTTL)).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCartCache) Delete(ctx context.Context, sellerID int64) error {
	if err := r.client.Del(ctx, cartKey(sellerID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// RedisCatalogCache caches projected catalog snapshots keyed by seller.
type RedisCatalogCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCatalogCache(client *redis.Client) *RedisCatalogCache {
	return &RedisCatalogCache{client: client, baseTTL: catalogBaseTTL}
}

func (r *RedisCatalogCache) Get(ctx context.Context, sellerID int64) (*domain.CatalogSnapshot, error) {
	data, err := r.client.Get(ctx, catalogKey(sellerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snapshot domain.CatalogSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal catalog failed: %w", err)
	}
	return &snapshot, nil
}

func (r *RedisCatalogCache) Set(ctx context.Context, sellerID int64, snapshot *domain.CatalogSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal catalog failed: %w", err)
	}

	if err := r.client.Set(ctx, catalogKey(sellerID), data, withJitter(r.baseTTL)).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCatalogCache) Delete(ctx context.Context, sellerID int64) error {
	if err := r.client.Del(ctx, catalogKey(sellerID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// withJitter spreads expirations so carts and catalogs cached at the same
// moment do not all expire together.
func withJitter(base time.Duration) time.Duration {
	return base + time.Duration(rand.Intn(30))*time.Second
}

func cartKey(sellerID int64) string {
	return fmt.Sprintf("pos:cart:%d", sellerID)
}

func catalogKey(sellerID int64) string {
	return fmt.Sprintf("pos:catalog:%d", sellerID)
}
