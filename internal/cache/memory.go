package cache

import (
	"path"
	"sync"
	"time"
)

type memoryEntry struct {
	value     interface{}
	expiresAt time.Time
}

// MemoryCache is the in-process L1: a plain map with TTLs, swept lazily on
// read and by a background janitor.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	metrics *CacheMetrics
	done    chan struct{}
	once    sync.Once
}

func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		metrics: NewCacheMetrics(),
		done:    make(chan struct{}),
	}
	go c.janitor(time.Minute)
	return c
}

func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.metrics.RecordSet()
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()

	if !found {
		c.metrics.RecordMiss()
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.metrics.RecordMiss()
		return nil, false
	}

	c.metrics.RecordHit()
	return entry.value, true
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.metrics.RecordDelete()
}

// DeletePattern removes keys matching a glob pattern, mirroring the Redis
// KEYS-based invalidation on the L2.
func (c *MemoryCache) DeletePattern(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
			c.metrics.RecordDelete()
		}
	}
}

func (c *MemoryCache) Stats() map[string]interface{} {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	m := c.metrics.GetStats()
	return map[string]interface{}{
		"size":     size,
		"hits":     m.Hits,
		"misses":   m.Misses,
		"sets":     m.Sets,
		"deletes":  m.Deletes,
		"hit_rate": c.metrics.HitRate(),
	}
}

func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *MemoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
