package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// cacheEntry represents a cached value with expiration.
type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// isExpired checks if the entry has expired at now.
func (e *cacheEntry) isExpired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// MemoryCache is a process-local implementation of Cache.
// Expiry is evaluated lazily on read; nothing is evicted in the background.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	clock   clockwork.Clock
}

// NewMemoryCache creates a new in-memory cache on the real clock.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithClock(clockwork.NewRealClock())
}

// NewMemoryCacheWithClock creates a cache that reads time from clock.
func NewMemoryCacheWithClock(clock clockwork.Clock) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
		clock:   clock,
	}
}

// Get retrieves a value by key.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, ErrCacheMiss
	}
	if entry.isExpired(c.clock.Now()) {
		c.dropIfExpired(key)
		return nil, ErrCacheMiss
	}

	result := make([]byte, len(entry.value))
	copy(result, entry.value)
	return result, nil
}

// Set stores a value with the given TTL.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		value:     valueCopy,
		expiresAt: c.clock.Now().Add(ttl),
	}

	return nil
}

// Delete removes a value by key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Exists checks if a key exists and is not expired.
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return false, nil
	}
	if entry.isExpired(c.clock.Now()) {
		c.dropIfExpired(key)
		return false, nil
	}
	return true, nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// dropIfExpired removes key if it is still expired under the write lock;
// a concurrent Set may have replaced it in between.
func (c *MemoryCache) dropIfExpired(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok && entry.isExpired(c.clock.Now()) {
		delete(c.entries, key)
	}
}

var _ Cache = (*MemoryCache)(nil)
