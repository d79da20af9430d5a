package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis under a common key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  *stats
}

var _ Cache = (*RedisCache)(nil)

// NewRedis creates a Redis-backed cache. Every entry expires after ttl.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		stats:  &stats{},
	}
}

// Get retrieves a value from the cache.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.stats.miss()
			return false, nil
		}
		c.stats.failed()
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.stats.failed()
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	c.stats.hit()
	return true, nil
}

// Set stores a value with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.stats.failed()
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.stats.failed()
		return fmt.Errorf("cache set error: %w", err)
	}

	c.stats.set()
	return nil
}

// Delete removes the given keys.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}

	n, err := c.client.Del(ctx, full...).Result()
	if err != nil {
		c.stats.failed()
		return fmt.Errorf("cache delete error: %w", err)
	}

	c.stats.deleted(int(n))
	return nil
}

// DeletePrefix removes every key starting with prefix, walking the keyspace with SCAN.
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	pattern := c.prefix + prefix + "*"

	var cursor uint64
	var deletedCount int
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.stats.failed()
			return fmt.Errorf("cache scan error: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.stats.failed()
				return fmt.Errorf("cache delete error: %w", err)
			}
			deletedCount += len(keys)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	c.stats.deleted(deletedCount)
	return nil
}

func (c *RedisCache) Stats() StatsSnapshot {
	return c.stats.snapshot()
}

// Ping checks if the Redis connection is healthy.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
