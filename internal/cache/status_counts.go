package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/print-order-service/internal/domain"
)

const statusCountsKey = "orders:status_counts"

// ErrMiss signals the cached value is absent or unreadable.
var ErrMiss = errors.New("cache miss")

// StatusCounts caches the per-status order totals shown on the admin
// dashboard. Invalidation happens on every order write, so staleness is
// bounded by the TTL even if an invalidate is lost.
type StatusCounts interface {
	Get(ctx context.Context) (map[domain.OrderStatus]int64, error)
	Set(ctx context.Context, counts map[domain.OrderStatus]int64) error
	Invalidate(ctx context.Context) error
}

type redisStatusCounts struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCounts builds a Redis-backed cache.
func NewStatusCounts(client *redis.Client, ttl time.Duration) StatusCounts {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisStatusCounts{client: client, ttl: ttl}
}

func (c *redisStatusCounts) Get(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	raw, err := c.client.Get(ctx, statusCountsKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, err
	}
	var counts map[domain.OrderStatus]int64
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, ErrMiss
	}
	return counts, nil
}

func (c *redisStatusCounts) Set(ctx context.Context, counts map[domain.OrderStatus]int64) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusCountsKey, raw, c.ttl).Err()
}

func (c *redisStatusCounts) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, statusCountsKey).Err()
}
