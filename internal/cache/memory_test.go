package cache_test

import (
	"testing"
	"time"

	"taskmate/backend/internal/cache"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	mc.Set("k", "v", time.Minute)

	got, found := mc.Get("k")
	assert.True(t, found)
	assert.Equal(t, "v", got)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	mc.Set("k", "v", -time.Second) // already expired

	_, found := mc.Get("k")
	assert.False(t, found)
}

func TestMemoryCacheDeletePattern(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	mc.Set("task:alice:1", 1, time.Minute)
	mc.Set("task:alice:2", 2, time.Minute)
	mc.Set("task:bob:1", 3, time.Minute)

	mc.DeletePattern("task:alice:*")

	_, found := mc.Get("task:alice:1")
	assert.False(t, found)
	_, found = mc.Get("task:bob:1")
	assert.True(t, found)
}

func TestMemoryCacheStats(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	mc.Set("k", "v", time.Minute)
	mc.Get("k")      // hit
	mc.Get("absent") // miss

	stats := mc.Stats()
	assert.Equal(t, 1, stats["size"])
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.InDelta(t, 50.0, stats["hit_rate"], 0.001)
}
