// Package pipeline orchestrates claim verification: validation, cache
// lookup, embedding, evidence retrieval, batched inference, and verdict
// aggregation, with retry and degradation handling around every
// external collaborator call.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claimlens/claimlens/internal/aggregate"
	"github.com/claimlens/claimlens/internal/cache"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/validate"
)

// Stage names one step of the verification state machine
type Stage string

const (
	StageValidating  Stage = "VALIDATING"
	StageCacheCheck  Stage = "CACHE_CHECK"
	StageEmbedding   Stage = "EMBEDDING"
	StageRetrieving  Stage = "RETRIEVING"
	StageInferring   Stage = "INFERRING"
	StageAggregating Stage = "AGGREGATING"
	StageDone        Stage = "DONE"
	StageDegraded    Stage = "DEGRADED"
	StageFailed      Stage = "FAILED"
)

// Collaborator interfaces. The pipeline owns injected long-lived
// instances; tests substitute fakes.

// Embedder turns claim text into a fixed-size vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns ranked candidate evidence for a claim vector
type Retriever interface {
	SearchEvidence(ctx context.Context, vector []float32, topK int, minSimilarity float64) ([]model.EvidenceItem, error)
}

// InferenceProvider scores (claim, evidence) pairs, order-preserving
type InferenceProvider interface {
	InferPairs(ctx context.Context, pairs []model.InferencePair) ([]model.InferenceResult, error)
}

// Persister records outcomes. Fire-and-forget: failures are logged and
// never change the returned verdict.
type Persister interface {
	Persist(ctx context.Context, outcome *model.VerificationOutcome) error
}

// similarityOnlyConfidence is the confidence assigned to a
// similarity-only SUPPORTED verdict after inference failure. Retrieval
// succeeded, so the outcome is better than total failure but carries
// deliberately low trust.
const similarityOnlyConfidence = 0.3

// shortClaimRelaxFactor scales the similarity threshold down for claims
// flagged short by the validator.
const shortClaimRelaxFactor = 0.8

// Options configures one Verify call
type Options struct {
	Strategy      aggregate.Strategy
	TopKEvidence  int
	MinSimilarity float64
	UseCache      bool
}

// DefaultOptions derives per-call defaults from pipeline configuration
func DefaultOptions(cfg model.PipelineConfig) Options {
	strategy, err := aggregate.ParseStrategy(cfg.Strategy)
	if err != nil {
		strategy = aggregate.StrategyWeightedVote
	}
	return Options{
		Strategy:      strategy,
		TopKEvidence:  cfg.TopKEvidence,
		MinSimilarity: cfg.MinSimilarity,
		UseCache:      cfg.UseCache,
	}
}

// Deps are the injected collaborators. Cache and Persister may be nil;
// the corresponding steps are skipped.
type Deps struct {
	Embedder  Embedder
	Retriever Retriever
	Inference InferenceProvider
	Cache     cache.Cache
	Persister Persister
	Logger    *slog.Logger
}

// Pipeline is the verification orchestrator. One instance serves many
// concurrent Verify calls; it holds no per-request state.
type Pipeline struct {
	validator  *validate.Validator
	aggregator *aggregate.Aggregator
	embedder   Embedder
	retriever  Retriever
	inference  InferenceProvider
	cache      cache.Cache
	persister  Persister
	logger     *slog.Logger
	cfg        model.PipelineConfig
	retry      model.RetryConfig
	cacheTTL   time.Duration
}

// NewPipeline creates a pipeline with explicitly injected collaborators
func NewPipeline(cfg *model.Config, deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}

	return &Pipeline{
		validator:  validate.NewValidator(),
		aggregator: aggregate.NewAggregator(cfg.Pipeline.MinEvidence),
		embedder:   deps.Embedder,
		retriever:  deps.Retriever,
		inference:  deps.Inference,
		cache:      deps.Cache,
		persister:  deps.Persister,
		logger:     logger,
		cfg:        cfg.Pipeline,
		retry:      cfg.Retry,
		cacheTTL:   ttl,
	}
}

// Verify runs the full verification pipeline for one claim. The only
// error it returns is an *InputError for invalid claim text; every
// collaborator failure is absorbed into a degraded outcome so the
// caller always receives a structured result once validation passes.
func (p *Pipeline) Verify(ctx context.Context, claim model.Claim, opts Options) (*model.VerificationOutcome, error) {
	start := time.Now()
	var timings model.StageTimings

	// VALIDATING: the cheapest possible fail path runs first.
	stageStart := time.Now()
	validation := p.validator.Validate(claim.Text)
	timings.Validate = time.Since(stageStart)

	if validation.Status == model.StatusInvalid {
		issue := validation.Issues[0]
		p.logger.Debug("claim rejected", "claim_id", claim.ID, "stage", StageFailed, "code", issue.Code)
		return nil, &InputError{Code: issue.Code, Message: issue.Message}
	}

	minSimilarity := opts.MinSimilarity
	if validation.HasIssue(model.IssueShortClaim) {
		minSimilarity *= shortClaimRelaxFactor
	}

	// CACHE_CHECK: a hit short-circuits every later stage.
	fingerprint := cache.Fingerprint(validation.NormalizedText)
	stageStart = time.Now()
	if opts.UseCache && p.cache != nil {
		if cached, found := p.cache.Get(fingerprint); found {
			timings.Cache = time.Since(stageStart)
			timings.Total = time.Since(start)
			hit := *cached
			hit.FromCache = true
			hit.Timings = timings
			p.logger.Debug("cache hit", "claim_id", claim.ID, "fingerprint", fingerprint)
			return &hit, nil
		}
	}
	timings.Cache = time.Since(stageStart)

	// EMBEDDING
	p.logger.Debug("entering stage", "claim_id", claim.ID, "stage", StageEmbedding)
	stageStart = time.Now()
	vector, err := withRetry(ctx, p.retry, func(ctx context.Context) ([]float32, error) {
		return p.embedder.Embed(ctx, validation.NormalizedText)
	})
	timings.Embed = time.Since(stageStart)
	if err != nil {
		p.logger.Warn("embedding failed after retries", "claim_id", claim.ID, "error", err)
		return p.finishDegraded(ctx, claim, model.DegradationEmbedding,
			"The claim could not be embedded for retrieval; no evidence search was possible.",
			start, timings), nil
	}

	// RETRIEVING
	p.logger.Debug("entering stage", "claim_id", claim.ID, "stage", StageRetrieving)
	stageStart = time.Now()
	evidence, err := withRetry(ctx, p.retry, func(ctx context.Context) ([]model.EvidenceItem, error) {
		return p.retriever.SearchEvidence(ctx, vector, opts.TopKEvidence, minSimilarity)
	})
	timings.Retrieve = time.Since(stageStart)
	if err != nil {
		p.logger.Warn("evidence retrieval failed after retries", "claim_id", claim.ID, "error", err)
		return p.finishDegraded(ctx, claim, model.DegradationRetrieval,
			"The evidence index could not be searched; verification is not possible.",
			start, timings), nil
	}

	// INFERRING: skipped entirely when retrieval returned nothing; the
	// aggregator turns the empty set into INSUFFICIENT on its own.
	var results []model.InferenceResult
	if len(evidence) > 0 {
		pairs := make([]model.InferencePair, len(evidence))
		for i, item := range evidence {
			pairs[i] = model.InferencePair{
				ClaimText:    validation.NormalizedText,
				EvidenceText: item.Content,
				EvidenceID:   item.ID,
			}
		}

		p.logger.Debug("entering stage", "claim_id", claim.ID, "stage", StageInferring)
		stageStart = time.Now()
		results, err = withRetry(ctx, p.retry, func(ctx context.Context) ([]model.InferenceResult, error) {
			return p.inference.InferPairs(ctx, pairs)
		})
		timings.Infer = time.Since(stageStart)
		if err != nil {
			p.logger.Warn("inference failed after retries, falling back to similarity-only verdict",
				"claim_id", claim.ID, "error", err)
			outcome := p.similarityOnlyOutcome(claim, evidence)
			return p.finish(ctx, outcome, start, timings, fingerprint, false), nil
		}
	}

	// AGGREGATING: pure function, cannot fail.
	p.logger.Debug("entering stage", "claim_id", claim.ID, "stage", StageAggregating)
	stageStart = time.Now()
	outcome := p.aggregator.Aggregate(claim, evidence, results, opts.Strategy)
	timings.Aggregate = time.Since(stageStart)

	finished := p.finish(ctx, &outcome, start, timings, fingerprint, opts.UseCache)
	p.logger.Info("claim verified",
		"claim_id", claim.ID,
		"verdict", finished.Verdict,
		"confidence", finished.Confidence,
		"evidence_count", finished.EvidenceCount,
		"strategy", string(opts.Strategy))
	return finished, nil
}

// similarityOnlyOutcome builds the degraded verdict used when inference
// fails but retrieval succeeded: the evidence similarity alone decides
// between a low-confidence SUPPORTED and INSUFFICIENT.
func (p *Pipeline) similarityOnlyOutcome(claim model.Claim, evidence []model.EvidenceItem) *model.VerificationOutcome {
	best := 0.0
	for _, item := range evidence {
		if item.SimilarityScore > best {
			best = item.SimilarityScore
		}
	}

	outcome := &model.VerificationOutcome{
		ClaimID:           claim.ID,
		EvidenceCount:     len(evidence),
		IsDegraded:        true,
		DegradationReason: model.DegradationInference,
	}

	if best >= p.cfg.FallbackSimilarity {
		outcome.Verdict = model.VerdictSupported
		outcome.Confidence = similarityOnlyConfidence
		outcome.Reasoning = fmt.Sprintf(
			"Inference was unavailable; %d retrieved passage(s) with best similarity %.2f weakly support the claim.",
			len(evidence), best)
	} else {
		outcome.Verdict = model.VerdictInsufficient
		outcome.EdgeCaseType = model.EdgeCaseInsufficientEvidence
		outcome.Confidence = 0
		outcome.Reasoning = fmt.Sprintf(
			"Inference was unavailable and retrieved similarity (best %.2f) is too weak for a similarity-only verdict.", best)
	}
	return outcome
}

// finishDegraded completes the pipeline on the DEGRADED branch after
// embedding or retrieval exhausted its retries.
func (p *Pipeline) finishDegraded(ctx context.Context, claim model.Claim, reason, detail string, start time.Time, timings model.StageTimings) *model.VerificationOutcome {
	outcome := &model.VerificationOutcome{
		ClaimID:           claim.ID,
		Verdict:           model.VerdictInsufficient,
		Confidence:        0,
		EvidenceCount:     0,
		EdgeCaseType:      model.EdgeCaseInsufficientEvidence,
		IsDegraded:        true,
		DegradationReason: reason,
		Reasoning:         detail,
	}
	return p.finish(ctx, outcome, start, timings, "", false)
}

// finish stamps timings, logs budget overruns, caches (degraded
// outcomes are never cached so a recovered collaborator is retried
// immediately) and persists the outcome.
func (p *Pipeline) finish(ctx context.Context, outcome *model.VerificationOutcome, start time.Time, timings model.StageTimings, fingerprint string, cacheable bool) *model.VerificationOutcome {
	timings.Total = time.Since(start)
	outcome.Timings = timings
	outcome.VerifiedAt = time.Now().UTC()

	if p.cfg.TimeBudget > 0 && timings.Total > p.cfg.TimeBudget {
		p.logger.Warn("verification exceeded time budget",
			"claim_id", outcome.ClaimID,
			"budget", p.cfg.TimeBudget,
			"elapsed", timings.Total)
	}

	// The cache write is valuable even when the caller has gone away, so
	// it and the persist run free of the request's cancellation.
	background := context.WithoutCancel(ctx)

	if cacheable && !outcome.IsDegraded && fingerprint != "" && p.cache != nil {
		if err := p.cache.Put(fingerprint, outcome, p.cacheTTL); err != nil {
			p.logger.Warn("cache write failed", "claim_id", outcome.ClaimID, "error", err)
		}
	}

	if p.persister != nil {
		if err := p.persister.Persist(background, outcome); err != nil {
			p.logger.Warn("outcome persistence failed", "claim_id", outcome.ClaimID, "error", err)
		}
	}

	return outcome
}
