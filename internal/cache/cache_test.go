package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, "storefront:", 5*time.Minute), mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "products:all", ProductsAllKey)
	assert.Equal(t, "products:category:Lighting", ProductsByCategoryKey("Lighting"))
	assert.Equal(t, "categories:all", CategoriesAllKey)
}

func TestRedisCache_GetSet(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	var got entry
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", entry{Name: "Lamp", Price: 40}))
	assert.True(t, mr.Exists("storefront:k"), "keys carry the configured prefix")

	hit, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, entry{Name: "Lamp", Price: 40}, got)

	s := c.Stats()
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.Equal(t, uint64(1), s.Sets)
	assert.InDelta(t, 50.0, s.HitRate, 0.001)
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Name: "x"}))
	mr.FastForward(5*time.Minute + time.Second)

	var got entry
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_DeleteAndDeletePrefix(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ProductsAllKey, []entry{{Name: "a"}}))
	require.NoError(t, c.Set(ctx, ProductsByCategoryKey("Decor"), []entry{{Name: "b"}}))
	require.NoError(t, c.Set(ctx, CategoriesAllKey, []string{"Decor"}))

	require.NoError(t, c.DeletePrefix(ctx, ProductsPrefix))
	assert.False(t, mr.Exists("storefront:"+ProductsAllKey))
	assert.False(t, mr.Exists("storefront:"+ProductsByCategoryKey("Decor")))
	assert.True(t, mr.Exists("storefront:"+CategoriesAllKey))

	require.NoError(t, c.Delete(ctx, CategoriesAllKey, "missing"))
	assert.False(t, mr.Exists("storefront:"+CategoriesAllKey))
	assert.Equal(t, uint64(3), c.Stats().Deletes)
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, mr := newTestRedis(t)
	mr.Close()

	var got entry
	_, err := c.Get(context.Background(), "k", &got)
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), "k", entry{}))
	assert.Equal(t, uint64(2), c.Stats().Errors)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ProductsAllKey, []entry{{Name: "a", Price: 1}}))
	require.NoError(t, c.Set(ctx, ProductsByCategoryKey("Decor"), []entry{{Name: "b"}}))
	require.NoError(t, c.Set(ctx, CategoriesAllKey, []string{"Decor"}))

	var products []entry
	hit, err := c.Get(ctx, ProductsAllKey, &products)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []entry{{Name: "a", Price: 1}}, products)

	require.NoError(t, c.DeletePrefix(ctx, ProductsPrefix))
	hit, _ = c.Get(ctx, ProductsByCategoryKey("Decor"), &products)
	assert.False(t, hit)

	var names []string
	hit, _ = c.Get(ctx, CategoriesAllKey, &names)
	assert.True(t, hit)
	assert.Equal(t, []string{"Decor"}, names)

	require.NoError(t, c.Delete(ctx, CategoriesAllKey))
	hit, _ = c.Get(ctx, CategoriesAllKey, &names)
	assert.False(t, hit)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemory(20 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Name: "x"}))
	time.Sleep(40 * time.Millisecond)

	var got entry
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	require.NoError(t, c.Set(context.Background(), "k", 1))

	var v int
	hit, err := c.Get(context.Background(), "k", &v)
	require.NoError(t, err)
	assert.False(t, hit)
}
