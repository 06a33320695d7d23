// Package cache provides a process-local key/value store with per-entry
// expiry. Expired entries are evicted lazily when read; nothing sweeps the
// store in the background.
package cache

import (
	"sync"
	"time"

	"github.com/Clark-Hu/movielog/internal/metrics"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is safe for concurrent use. Writes are last-write-wins.
type Cache struct {
	name string
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache. The name labels its metrics.
func New(name string, opts ...Option) *Cache {
	c := &Cache{
		name:    name,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key until now+ttl, replacing any previous entry.
// A non-positive ttl stores an entry that is already expired.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
}

// Get returns the value for key if it has not expired. An expired entry is
// removed and reported as absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		metrics.CacheLookups.WithLabelValues(c.name, metrics.CacheMiss).Inc()
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		size := len(c.entries)
		c.mu.Unlock()
		metrics.CacheLookups.WithLabelValues(c.name, metrics.CacheExpired).Inc()
		metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
		return nil, false
	}
	c.mu.Unlock()

	metrics.CacheLookups.WithLabelValues(c.name, metrics.CacheHit).Inc()
	return e.value, true
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
}

// Len reports the number of stored entries, including expired entries that
// have not been read since they expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Lookup is a typed Get. A stored value of a different type counts as absent.
func Lookup[T any](c *Cache, key string) (T, bool) {
	var zero T
	raw, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
