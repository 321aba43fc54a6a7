package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/claimlens/claimlens/internal/model"
)

// MemoryCache implements in-memory outcome caching
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache. cleanupInterval controls
// how often expired entries are swept in the background.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves an outcome from the cache
func (c *MemoryCache) Get(fingerprint string) (*model.VerificationOutcome, bool) {
	if val, found := c.cache.Get(fingerprint); found {
		outcome := val.(model.VerificationOutcome)
		return &outcome, true
	}
	return nil, false
}

// Put stores an outcome with the given TTL. The outcome is copied so
// later caller mutations cannot reach the cached value.
func (c *MemoryCache) Put(fingerprint string, outcome *model.VerificationOutcome, ttl time.Duration) error {
	c.cache.Set(fingerprint, *outcome, ttl)
	return nil
}

// Delete removes an outcome from the cache
func (c *MemoryCache) Delete(fingerprint string) error {
	c.cache.Delete(fingerprint)
	return nil
}

// EvictExpired removes all expired entries immediately
func (c *MemoryCache) EvictExpired() {
	c.cache.DeleteExpired()
}

// Clear removes all cached outcomes
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
