package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultMaxEntries caps a MemoryCache built with a non-positive limit
const DefaultMaxEntries = 1024

// MemoryCache is a TTL cache backed by go-cache. It refuses new keys once
// maxEntries live entries are held; expired entries are purged first.
type MemoryCache[V any] struct {
	items      *gocache.Cache
	maxEntries int
	hits       atomic.Uint64
	misses     atomic.Uint64
}

// NewMemoryCache creates a cache whose entries live for ttl unless Set
// says otherwise. Expired entries are swept every 2*ttl.
func NewMemoryCache[V any](ttl time.Duration, maxEntries int) *MemoryCache[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	cleanup := 2 * ttl
	if ttl <= 0 {
		ttl = gocache.NoExpiration
		cleanup = 0
	}
	return &MemoryCache[V]{
		items:      gocache.New(ttl, cleanup),
		maxEntries: maxEntries,
	}
}

// Get returns the value stored under key
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	if val, found := c.items.Get(key); found {
		if v, ok := val.(V); ok {
			c.hits.Add(1)
			return v, true
		}
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set stores value under key. A zero ttl uses the cache default. It
// reports false when the cache is full and key is not already present.
func (c *MemoryCache[V]) Set(key string, value V, ttl time.Duration) bool {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	if _, exists := c.items.Get(key); !exists && c.items.ItemCount() >= c.maxEntries {
		c.items.DeleteExpired()
		if c.items.ItemCount() >= c.maxEntries {
			return false
		}
	}
	c.items.Set(key, value, ttl)
	return true
}

// Delete removes key
func (c *MemoryCache[V]) Delete(key string) {
	c.items.Delete(key)
}

// Clear drops every entry and resets the counters
func (c *MemoryCache[V]) Clear() {
	c.items.Flush()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns the current counters. Entries includes expired entries not
// yet swept.
func (c *MemoryCache[V]) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.items.ItemCount(),
	}
}
