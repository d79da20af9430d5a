// Package cache provides the read-through cache used in front of the catalog
// and category registry. Values are stored as JSON so every backend behaves alike.
package cache

import (
	"context"
	"sync/atomic"
)

// Well-known keys. Product list entries share ProductsPrefix so that a single
// DeletePrefix invalidates every filtered variant.
const (
	ProductsPrefix   = "products:"
	ProductsAllKey   = ProductsPrefix + "all"
	CategoriesAllKey = "categories:all"
)

// ProductsByCategoryKey is the key for the product list filtered by category.
func ProductsByCategoryKey(category string) string {
	return ProductsPrefix + "category:" + category
}

// Cache is implemented by the Redis, in-process and no-op backends.
type Cache interface {
	// Get decodes the cached value into dest and reports whether it was a hit.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Stats() StatsSnapshot
}

// stats tracks cache statistics.
type stats struct {
	hits    uint64
	misses  uint64
	sets    uint64
	deletes uint64
	errors  uint64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Errors    uint64  `json:"errors"`
	HitRate   float64 `json:"hitRate"`
	TotalGets uint64  `json:"totalGets"`
}

func (s *stats) hit()          { atomic.AddUint64(&s.hits, 1) }
func (s *stats) miss()         { atomic.AddUint64(&s.misses, 1) }
func (s *stats) set()          { atomic.AddUint64(&s.sets, 1) }
func (s *stats) deleted(n int) { atomic.AddUint64(&s.deletes, uint64(n)) }
func (s *stats) failed()       { atomic.AddUint64(&s.errors, 1) }

func (s *stats) snapshot() StatsSnapshot {
	hits := atomic.LoadUint64(&s.hits)
	misses := atomic.LoadUint64(&s.misses)
	totalGets := hits + misses

	var hitRate float64
	if totalGets > 0 {
		hitRate = float64(hits) / float64(totalGets) * 100
	}

	return StatsSnapshot{
		Hits:      hits,
		Misses:    misses,
		Sets:      atomic.LoadUint64(&s.sets),
		Deletes:   atomic.LoadUint64(&s.deletes),
		Errors:    atomic.LoadUint64(&s.errors),
		HitRate:   hitRate,
		TotalGets: totalGets,
	}
}

// Noop never stores anything; every Get is a miss. Used when CACHE_DRIVER=none.
type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, any) error         { return nil }
func (Noop) Delete(context.Context, ...string) error        { return nil }
func (Noop) DeletePrefix(context.Context, string) error     { return nil }
func (Noop) Stats() StatsSnapshot                           { return StatsSnapshot{} }
