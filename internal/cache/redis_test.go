package cache_test

import (
	"testing"
	"time"

	"taskmate/backend/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rc := cache.NewRedisCacheFromClient(client)
	t.Cleanup(func() { rc.Close() })
	return rc, mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRedisCacheRoundTrip(t *testing.T) {
	rc, _ := setupRedisCache(t)

	require.NoError(t, rc.Set("k", payload{Name: "x", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, rc.Get("k", &got))
	assert.Equal(t, payload{Name: "x", Count: 3}, got)
}

func TestRedisCacheMiss(t *testing.T) {
	rc, _ := setupRedisCache(t)

	var got payload
	err := rc.Get("absent", &got)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestRedisCacheExpiry(t *testing.T) {
	rc, mr := setupRedisCache(t)

	require.NoError(t, rc.Set("k", payload{Name: "x"}, time.Second))
	mr.FastForward(2 * time.Second)

	var got payload
	assert.ErrorIs(t, rc.Get("k", &got), cache.ErrCacheMiss)
}

func TestRedisCacheDelete(t *testing.T) {
	rc, _ := setupRedisCache(t)

	require.NoError(t, rc.Set("k", payload{Name: "x"}, time.Minute))
	require.NoError(t, rc.Delete("k"))

	var got payload
	assert.ErrorIs(t, rc.Get("k", &got), cache.ErrCacheMiss)
}

func TestRedisCacheDeletePattern(t *testing.T) {
	rc, _ := setupRedisCache(t)

	require.NoError(t, rc.Set("task:alice:1", payload{}, time.Minute))
	require.NoError(t, rc.Set("task:alice:2", payload{}, time.Minute))
	require.NoError(t, rc.Set("task:bob:1", payload{}, time.Minute))

	require.NoError(t, rc.DeletePattern("task:alice:*"))

	var got payload
	assert.ErrorIs(t, rc.Get("task:alice:1", &got), cache.ErrCacheMiss)
	assert.ErrorIs(t, rc.Get("task:alice:2", &got), cache.ErrCacheMiss)
	assert.NoError(t, rc.Get("task:bob:1", &got))
}

func TestRedisCacheExistsAndHealth(t *testing.T) {
	rc, _ := setupRedisCache(t)

	found, err := rc.Exists("k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, rc.Set("k", payload{}, time.Minute))
	found, err = rc.Exists("k")
	require.NoError(t, err)
	assert.True(t, found)

	assert.NoError(t, rc.Health())
}
