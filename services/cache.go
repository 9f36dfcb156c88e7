package services

import (
	"context"
	"sync"
	"time"

	"github.com/erickguan/agentic-finance-analysis/models"
)

type cacheEntry[V any] struct {
	value      V
	insertedAt time.Time
}

// TTLCache is a process-wide in-memory cache with explicit expiry semantics.
// Writes replace whole entries atomically; concurrent writers to the same key
// are last-writer-wins. Nothing is persisted.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
}

func NewTTLCache[V any]() *TTLCache[V] {
	return &TTLCache[V]{entries: make(map[string]cacheEntry[V])}
}

// Get returns the cached value if it is younger than ttl.
func (c *TTLCache[V]) Get(key string, ttl time.Duration) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Since(entry.insertedAt) >= ttl {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores a value with the current time as its insertion timestamp.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, insertedAt: time.Now()}
	c.mu.Unlock()
}

// GetOrRefresh returns the cached value when fresh, otherwise invokes refresh
// and caches its result. A refresh failure leaves any stale entry untouched.
func (c *TTLCache[V]) GetOrRefresh(ctx context.Context, key string, ttl time.Duration, refresh func(context.Context) (V, error)) (V, error) {
	if value, ok := c.Get(key, ttl); ok {
		return value, nil
	}

	value, err := refresh(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.Set(key, value)
	return value, nil
}

// Clear drops all entries.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry[V])
	c.mu.Unlock()
}

// Stats reports occupancy relative to the given ttl.
func (c *TTLCache[V]) Stats(ttl time.Duration) models.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := models.CacheStats{
		TotalEntries: len(c.entries),
		TTLMinutes:   ttl.Minutes(),
	}
	for _, entry := range c.entries {
		if time.Since(entry.insertedAt) < ttl {
			stats.ValidEntries++
		} else {
			stats.ExpiredEntries++
		}
	}
	return stats
}
