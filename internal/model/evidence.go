package model

// EvidenceItem represents one candidate evidence passage returned by retrieval
type EvidenceItem struct {
	ID              string  `json:"id"`
	Content         string  `json:"content"`
	SimilarityScore float64 `json:"similarity_score"` // Cosine similarity to the claim vector
	Source          string  `json:"source,omitempty"` // Origin URL or document of the passage
}

// InferenceResult holds the entailment scores for one (claim, evidence) pair.
// The three scores are non-negative comparable magnitudes; the inference
// model typically normalizes them but the aggregator does not require it.
type InferenceResult struct {
	EvidenceID   string  `json:"evidence_id"`
	SupportScore float64 `json:"support_score"`
	RefuteScore  float64 `json:"refute_score"`
	NeutralScore float64 `json:"neutral_score"`
	Confidence   float64 `json:"confidence"` // The model's own confidence in this triple
}

// Stance is the per-evidence relationship between claim and passage
type Stance string

const (
	StanceSupport Stance = "support"
	StanceRefute  Stance = "refute"
	StanceNeutral Stance = "neutral"
)

// DominantStance returns the stance with the highest raw score.
// Exact ties resolve refute-first so evidence of harm is never dropped.
func (r InferenceResult) DominantStance() Stance {
	if r.RefuteScore >= r.SupportScore && r.RefuteScore >= r.NeutralScore {
		return StanceRefute
	}
	if r.SupportScore >= r.NeutralScore {
		return StanceSupport
	}
	return StanceNeutral
}

// InferencePair is one (claim, evidence) input to the inference model
type InferencePair struct {
	ClaimText    string `json:"claim_text"`
	EvidenceText string `json:"evidence_text"`
	EvidenceID   string `json:"evidence_id"`
}
