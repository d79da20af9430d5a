package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps entries in process memory with per-entry expiry.
type MemoryCache struct {
	store *gocache.Cache
	stats *stats
}

var _ Cache = (*MemoryCache)(nil)

// NewMemory creates an in-process cache whose entries expire after ttl.
func NewMemory(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		store: gocache.New(ttl, 2*ttl),
		stats: &stats{},
	}
}

func (c *MemoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		c.stats.miss()
		return false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		c.stats.failed()
		return false, fmt.Errorf("cache get error: unexpected entry type %T", v)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.stats.failed()
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	c.stats.hit()
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.stats.failed()
		return fmt.Errorf("cache marshal error: %w", err)
	}
	c.store.Set(key, data, gocache.DefaultExpiration)
	c.stats.set()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.store.Delete(k)
	}
	c.stats.deleted(len(keys))
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	var n int
	for k := range c.store.Items() {
		if strings.HasPrefix(k, prefix) {
			c.store.Delete(k)
			n++
		}
	}
	c.stats.deleted(n)
	return nil
}

func (c *MemoryCache) Stats() StatsSnapshot {
	return c.stats.snapshot()
}
