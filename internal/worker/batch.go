package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/pipeline"
)

// Verifier runs the verification pipeline for one claim
type Verifier interface {
	Verify(ctx context.Context, claim model.Claim, opts pipeline.Options) (*model.VerificationOutcome, error)
}

// VerifyJob carries one claim through the pool
type VerifyJob struct {
	Claim    model.Claim
	Verifier Verifier
	Options  pipeline.Options
}

// VerifyResult pairs a claim with its outcome. Error is non-nil only
// when the claim itself was rejected by validation.
type VerifyResult struct {
	Claim   model.Claim
	Outcome *model.VerificationOutcome
	Error   error
}

// GetError returns the validation error, if any
func (r *VerifyResult) GetError() error {
	return r.Error
}

// Execute runs the verification job
func (j *VerifyJob) Execute(ctx context.Context) Result {
	outcome, err := j.Verifier.Verify(ctx, j.Claim, j.Options)
	return &VerifyResult{Claim: j.Claim, Outcome: outcome, Error: err}
}

// BatchVerifier verifies many claims concurrently with a bounded pool
type BatchVerifier struct {
	verifier    Verifier
	options     pipeline.Options
	concurrency int
}

// NewBatchVerifier creates a batch verifier. Concurrency below 1 falls
// back to a single worker.
func NewBatchVerifier(verifier Verifier, options pipeline.Options, concurrency int) *BatchVerifier {
	return &BatchVerifier{
		verifier:    verifier,
		options:     options,
		concurrency: concurrency,
	}
}

// ProcessClaims verifies the claims concurrently. Results are returned
// in the input claim order regardless of completion order.
func (b *BatchVerifier) ProcessClaims(ctx context.Context, claims []model.Claim) []*VerifyResult {
	if len(claims) == 0 {
		return []*VerifyResult{}
	}

	order := make(map[string]int, len(claims))
	for i, claim := range claims {
		order[claim.ID] = i
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	// Submission and result draining run concurrently: with both
	// channels bounded, submitting everything up front would wedge any
	// batch bigger than the combined buffers.
	go func() {
		for _, claim := range claims {
			pool.Submit(&VerifyJob{Claim: claim, Verifier: b.verifier, Options: b.options})
		}
		pool.Close()
	}()

	results := make([]*VerifyResult, 0, len(claims))
	for r := range pool.Results() {
		results = append(results, r.(*VerifyResult))
	}
	sort.Slice(results, func(i, j int) bool {
		return order[results[i].Claim.ID] < order[results[j].Claim.ID]
	})
	return results
}

// ProcessFile reads claims from a file and verifies them concurrently
func (b *BatchVerifier) ProcessFile(ctx context.Context, path string) ([]*VerifyResult, error) {
	claims, err := ReadClaimsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}
	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads one claim per line, skipping blank lines and
// # comments and dropping exact duplicates. IDs are assigned from the
// position of the claim among the kept lines.
func ReadClaimsFromFile(path string) ([]model.Claim, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []model.Claim
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		claims = append(claims, model.Claim{
			ID:   fmt.Sprintf("claim-%03d", len(claims)+1),
			Text: line,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return claims, nil
}
