package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

func sampleOutcome(claimID string) *model.VerificationOutcome {
	return &model.VerificationOutcome{
		ClaimID:       claimID,
		Verdict:       model.VerdictSupported,
		Confidence:    0.82,
		EvidenceCount: 5,
		Reasoning:     "4 of 5 evidence passages entail the claim",
		VerifiedAt:    time.Now().UTC(),
	}
}

func TestFingerprint_NormalizationEquivalence(t *testing.T) {
	a := Fingerprint("The Earth orbits the Sun")
	b := Fingerprint("  the earth   ORBITS the sun ")
	if a != b {
		t.Errorf("Normalization-equivalent claims produced different fingerprints:\n%s\n%s", a, b)
	}

	c := Fingerprint("The Moon orbits the Earth")
	if a == c {
		t.Error("Distinct claims produced the same fingerprint")
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache(DefaultTTL, time.Minute)
	fp := Fingerprint("the earth orbits the sun")

	if _, found := c.Get(fp); found {
		t.Fatal("Expected miss on empty cache")
	}

	outcome := sampleOutcome("claim-1")
	if err := c.Put(fp, outcome, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found := c.Get(fp)
	if !found {
		t.Fatal("Expected hit after Put")
	}
	if got.ClaimID != "claim-1" || got.Verdict != model.VerdictSupported || got.Confidence != 0.82 {
		t.Errorf("Cached outcome mutated: %+v", got)
	}
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache(DefaultTTL, time.Minute)
	fp := Fingerprint("short lived claim")

	if err := c.Put(fp, sampleOutcome("claim-2"), 10*time.Millisecond); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	c.EvictExpired()

	if _, found := c.Get(fp); found {
		t.Error("Expected miss after TTL elapsed")
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(DefaultTTL, time.Minute)
	fp := Fingerprint("concurrent claim")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Put(fp, sampleOutcome("claim-3"), time.Minute)
			if got, found := c.Get(fp); found && got.ClaimID != "claim-3" {
				t.Errorf("Unexpected cached outcome: %+v", got)
			}
		}()
	}
	wg.Wait()
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), DefaultTTL)
	fp := Fingerprint("persisted claim")

	if err := c.Put(fp, sampleOutcome("claim-4"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found := c.Get(fp)
	if !found {
		t.Fatal("Expected disk hit after Put")
	}
	if got.ClaimID != "claim-4" {
		t.Errorf("Unexpected outcome: %+v", got)
	}

	if err := c.Delete(fp); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get(fp); found {
		t.Error("Expected miss after Delete")
	}
}

func TestDiskCache_ExpiredEntryRemovedOnRead(t *testing.T) {
	c := NewDiskCache(t.TempDir(), DefaultTTL)
	fp := Fingerprint("stale claim")

	if err := c.Put(fp, sampleOutcome("claim-5"), time.Millisecond); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, found := c.Get(fp); found {
		t.Error("Expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	warm := NewDiskCache(dir, DefaultTTL)
	fp := Fingerprint("promoted claim")
	if err := warm.Put(fp, sampleOutcome("claim-6"), time.Minute); err != nil {
		t.Fatalf("Seed disk cache: %v", err)
	}

	// Fresh layered cache with an empty memory layer over the warm disk.
	c := NewLayeredCache(DefaultTTL, dir, DefaultTTL)

	got, found := c.Get(fp)
	if !found {
		t.Fatal("Expected layered hit from disk layer")
	}
	if got.ClaimID != "claim-6" {
		t.Errorf("Unexpected outcome: %+v", got)
	}

	// After promotion the memory layer serves the entry directly.
	if _, found := c.memory.Get(fp); !found {
		t.Error("Expected disk hit to be promoted into memory")
	}
}
