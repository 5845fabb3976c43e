package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(t *testing.T, maxEntries int, ttl time.Duration) (*Cache[string], *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	c := New[string](maxEntries, ttl)
	c.now = clk.now
	t.Cleanup(c.Close)
	return c, clk
}

func TestCache_GetRespectsMaxAge(t *testing.T) {
	c, clk := newTestCache(t, 10, time.Hour)
	c.Set("k", "v")

	clk.t = clk.t.Add(30 * time.Second)

	v, ok := c.Get("k", 60_000)
	require.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = c.Get("k", 10_000)
	assert.False(t, ok, "entry older than max_age")

	_, ok = c.Get("k", 0)
	assert.False(t, ok, "max_age 0 skips the cache")
}

func TestCache_GetRespectsTTL(t *testing.T) {
	c, clk := newTestCache(t, 10, time.Minute)
	c.Set("k", "v")

	clk.t = clk.t.Add(2 * time.Minute)

	_, ok := c.Get("k", int(time.Hour/time.Millisecond))
	assert.False(t, ok)
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "3")
	assert.Equal(t, 2, c.Len(), "overwriting does not evict")

	c.Set("c", "4")
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c", 1000)
	assert.True(t, ok)
}

func TestCache_EvictExpired(t *testing.T) {
	c, clk := newTestCache(t, 10, time.Minute)
	c.Set("old", "1")
	clk.t = clk.t.Add(50 * time.Second)
	c.Set("new", "2")
	clk.t = clk.t.Add(20 * time.Second)

	c.evictExpired()

	assert.Equal(t, 1, c.Len())
}

func TestCache_NilIsDisabled(t *testing.T) {
	var c *Cache[string]
	c.Set("k", "v")
	_, ok := c.Get("k", 1000)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	c.Close()
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("ranking", "카페", "강남", "1"), Key("ranking", " 카페 ", "강남", "1"))
	assert.NotEqual(t, Key("ranking", "카페", "1"), Key("reviews", "카페", "1"))
	assert.NotEqual(t, Key("ranking", "a", "bc"), Key("ranking", "ab", "c"))
}
