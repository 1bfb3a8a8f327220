// Package cache provides the Redis-backed session store, public note cache
// and rate limiter.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPoolSize is the Redis connection pool size when none is configured.
const DefaultPoolSize = 10

// Cache wraps a go-redis client with the app's key layout.
type Cache struct {
	client *redis.Client
}

// New parses redisURL, sizes the pool and pings the server. A poolSize of
// zero or less uses DefaultPoolSize.
func New(ctx context.Context, redisURL string, poolSize ...int) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = DefaultPoolSize
	if len(poolSize) > 0 && poolSize[0] > 0 {
		opt.PoolSize = poolSize[0]
	}
	opt.MinIdleConns = max(1, opt.PoolSize/5)
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the raw client to test helpers.
func (c *Cache) Client() *redis.Client {
	return c.client
}
