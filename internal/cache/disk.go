package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

// DiskCache implements persistent disk-based outcome caching. Entries
// survive process restarts; the TTL check happens on read.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a new disk cache rooted at dir
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		dir: dir,
		ttl: ttl,
	}
}

type diskEntry struct {
	Outcome   model.VerificationOutcome `json:"outcome"`
	CreatedAt time.Time                 `json:"created_at"`
	ExpiresAt time.Time                 `json:"expires_at"`
}

// Get retrieves an outcome from the disk cache
func (c *DiskCache) Get(fingerprint string) (*model.VerificationOutcome, bool) {
	data, err := os.ReadFile(c.path(fingerprint))
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(c.path(fingerprint))
		return nil, false
	}

	return &entry.Outcome, true
}

// Put stores an outcome in the disk cache
func (c *DiskCache) Put(fingerprint string, outcome *model.VerificationOutcome, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	now := time.Now()
	entry := diskEntry{
		Outcome:   *outcome,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	return os.WriteFile(c.path(fingerprint), data, 0o644)
}

// Delete removes an outcome from the disk cache
func (c *DiskCache) Delete(fingerprint string) error {
	err := os.Remove(c.path(fingerprint))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// EvictExpired removes all expired entries from disk
func (c *DiskCache) EvictExpired() {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}

	now := time.Now()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry diskEntry
		if err := json.Unmarshal(data, &entry); err != nil || now.After(entry.ExpiresAt) {
			_ = os.Remove(path)
		}
	}
}

// Clear removes all cached outcomes from disk
func (c *DiskCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			_ = os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
	return nil
}

// path maps a fingerprint to its entry file. Fingerprints contain a
// "claimlens:v1:" prefix whose colons are not filesystem-safe.
func (c *DiskCache) path(fingerprint string) string {
	name := strings.ReplaceAll(fingerprint, ":", "_") + ".json"
	return filepath.Join(c.dir, name)
}
