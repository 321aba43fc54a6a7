package model

import "time"

// VerdictLabel is the final classification of a verified claim
type VerdictLabel string

const (
	VerdictSupported    VerdictLabel = "SUPPORTED"
	VerdictRefuted      VerdictLabel = "REFUTED"
	VerdictInsufficient VerdictLabel = "INSUFFICIENT"
	VerdictConflicting  VerdictLabel = "CONFLICTING"
	VerdictAmbiguous    VerdictLabel = "AMBIGUOUS"
)

// EdgeCaseType classifies which post-aggregation condition fired, if any
type EdgeCaseType string

const (
	EdgeCaseNone                 EdgeCaseType = ""
	EdgeCaseConflictingEvidence  EdgeCaseType = "conflicting_evidence"
	EdgeCaseAmbiguousEvidence    EdgeCaseType = "ambiguous_evidence"
	EdgeCaseInsufficientEvidence EdgeCaseType = "insufficient_evidence"
)

// Degradation reasons recorded on outcomes produced after collaborator failure
const (
	DegradationEmbedding = "embedding_failure"
	DegradationRetrieval = "evidence_retrieval_failure"
	DegradationInference = "inference_failure"
)

// EdgeCaseSignal is a transient classification artifact produced during
// aggregation. It is consumed within one pipeline run and never persisted.
type EdgeCaseSignal struct {
	Type       EdgeCaseType `json:"type"`
	Confidence float64      `json:"confidence"`
	Indicators []string     `json:"indicators,omitempty"`
}

// StageTimings records wall-clock duration per pipeline stage
type StageTimings struct {
	Validate  time.Duration `json:"validate"`
	Cache     time.Duration `json:"cache"`
	Embed     time.Duration `json:"embed"`
	Retrieve  time.Duration `json:"retrieve"`
	Infer     time.Duration `json:"infer"`
	Aggregate time.Duration `json:"aggregate"`
	Total     time.Duration `json:"total"`
}

// VerificationOutcome is the immutable result of one pipeline run
type VerificationOutcome struct {
	ClaimID           string       `json:"claim_id"`
	Verdict           VerdictLabel `json:"verdict"`
	Confidence        float64      `json:"confidence"` // In [0, 1]
	EvidenceCount     int          `json:"evidence_count"`
	Reasoning         string       `json:"reasoning"`
	EdgeCaseType      EdgeCaseType `json:"edge_case_type,omitempty"`
	IsDegraded        bool         `json:"is_degraded"`
	DegradationReason string       `json:"degradation_reason,omitempty"`
	FromCache         bool         `json:"from_cache,omitempty"`
	Timings           StageTimings `json:"timings"`
	VerifiedAt        time.Time    `json:"verified_at"`
}
