package geo

import (
	"context"
	"sync"
	"time"
)

// Cache stores resolved place coordinates keyed by the free-text query.
// A miss is reported as found=false, never as an error.
type Cache interface {
	Get(ctx context.Context, query string) (Point, bool, error)
	Put(ctx context.Context, query string, p Point) error
	Close() error
}

// DefaultTTL bounds how long a cached geocode stays fresh.
const DefaultTTL = 30 * 24 * time.Hour

// =============================================================================
// IN-MEMORY CACHE
// =============================================================================

type memoryEntry struct {
	point   Point
	expires time.Time
}

// MemoryCache is a process-local Cache with TTL eviction on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, query string) (Point, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[query]
	c.mu.RUnlock()
	if !ok {
		return Point{}, false, nil
	}
	if c.now().After(entry.expires) {
		c.mu.Lock()
		delete(c.entries, query)
		c.mu.Unlock()
		return Point{}, false, nil
	}
	return entry.point, true, nil
}

func (c *MemoryCache) Put(_ context.Context, query string, p Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[query] = memoryEntry{point: p, expires: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Close() error { return nil }
