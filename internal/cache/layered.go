package cache

import (
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

// LayeredCache composes the memory and disk layers. Reads check memory
// first and promote disk hits; writes go to both layers.
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

// Get retrieves an outcome, checking memory before disk
func (c *LayeredCache) Get(fingerprint string) (*model.VerificationOutcome, bool) {
	if outcome, found := c.memory.Get(fingerprint); found {
		return outcome, true
	}

	if outcome, found := c.disk.Get(fingerprint); found {
		_ = c.memory.Put(fingerprint, outcome, 0) // Promote with default TTL
		return outcome, true
	}

	return nil, false
}

// Put stores an outcome in both layers
func (c *LayeredCache) Put(fingerprint string, outcome *model.VerificationOutcome, ttl time.Duration) error {
	if err := c.memory.Put(fingerprint, outcome, ttl); err != nil {
		return err
	}
	return c.disk.Put(fingerprint, outcome, ttl)
}

// Delete removes an outcome from both layers
func (c *LayeredCache) Delete(fingerprint string) error {
	_ = c.memory.Delete(fingerprint)
	return c.disk.Delete(fingerprint)
}

// EvictExpired sweeps expired entries from both layers
func (c *LayeredCache) EvictExpired() {
	c.memory.EvictExpired()
	c.disk.EvictExpired()
}

// Clear removes all outcomes from both layers
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
