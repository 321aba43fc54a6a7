package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/validate"
)

// DefaultTTL is the window for which a cached outcome is served without
// re-running the pipeline. Staleness against the evidence corpus is
// accepted inside this window.
const DefaultTTL = 1 * time.Hour

// Cache defines the interface for verification result caching. A hit
// returns the outcome as computed at original verification time;
// implementations must be safe for concurrent use by in-flight
// verifications. Misses are not de-duplicated: two concurrent requests
// for the same fingerprint may both run the pipeline and both write.
type Cache interface {
	Get(fingerprint string) (*model.VerificationOutcome, bool)
	Put(fingerprint string, outcome *model.VerificationOutcome, ttl time.Duration) error
	Delete(fingerprint string) error
	EvictExpired()
	Clear() error
}

// Fingerprint generates the cache key for claim text. Claims that
// normalize identically (case, whitespace) map to the same key.
func Fingerprint(claimText string) string {
	normalized := strings.ToLower(validate.Normalize(claimText))
	hash := sha256.Sum256([]byte(normalized))
	return "claimlens:v1:" + hex.EncodeToString(hash[:])
}
