package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bundlecheck/backend/internal/domain/availability"
)

// DefaultVariantTTL is how long a SKU resolution stays valid before catalog
// edits must surface again.
const DefaultVariantTTL = 10 * time.Minute

// entry represents a cached resolution with expiration
type entry struct {
	variant   availability.ResolvedVariant
	expiresAt time.Time
}

// InMemoryVariantCache implements VariantCache using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryVariantCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryVariantCache creates a new in-memory variant cache.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryVariantCache(ttl time.Duration) *InMemoryVariantCache {
	if ttl <= 0 {
		ttl = DefaultVariantTTL
	}
	cache := &InMemoryVariantCache{
		entries:  make(map[string]entry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// Get returns the cached resolution for a SKU, or found=false on a miss
func (c *InMemoryVariantCache) Get(ctx context.Context, sku string) (*availability.ResolvedVariant, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[sku]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, false, nil
	}

	variant := e.variant
	return &variant, true, nil
}

// Set stores a resolution for a SKU with the cache TTL
func (c *InMemoryVariantCache) Set(ctx context.Context, sku string, variant availability.ResolvedVariant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[sku] = entry{
		variant:   variant,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (c *InMemoryVariantCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryVariantCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries from the cache
func (c *InMemoryVariantCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for sku, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, sku)
		}
	}
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemoryVariantCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryVariantCache implements VariantCache
var _ availability.VariantCache = (*InMemoryVariantCache)(nil)
