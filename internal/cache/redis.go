package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NewRedisCache stores URLs for slightly less than keyLifetime, the
// processor's payment key expiration, so a cached URL is never stale.
func NewRedisCache(client *redis.Client, keyLifetime time.Duration) *RedisCache {
	ttl := keyLifetime - 5*time.Minute
	if ttl <= 0 {
		ttl = keyLifetime / 2
	}
	return &RedisCache{
		client:  client,
		baseTTL: ttl,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, orderID uuid.UUID) (string, error) {
	url, err := r.client.Get(ctx, cacheKey(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return url, nil
}

func (r RedisCache) Set(ctx context.Context, orderID uuid.UUID, url string) error {
	// jitter only shortens the TTL
	jitter := time.Duration(rand.Int63n(int64(r.baseTTL/10) + 1))
	ttl := r.baseTTL - jitter
	if err := r.client.Set(ctx, cacheKey(orderID), url, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, orderID uuid.UUID) error {
	if err := r.client.Del(ctx, cacheKey(orderID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(orderID uuid.UUID) string {
	return fmt.Sprintf("payment_url:%s", orderID)
}
