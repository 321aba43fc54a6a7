package aggregate

import (
	"fmt"
	"math"
	"testing"

	"github.com/claimlens/claimlens/internal/model"
)

var testClaim = model.Claim{ID: "claim-1", Text: "The Earth orbits the Sun"}

func evidenceSet(n int) []model.EvidenceItem {
	items := make([]model.EvidenceItem, n)
	for i := range items {
		items[i] = model.EvidenceItem{
			ID:              fmt.Sprintf("ev-%02d", i),
			Content:         "passage",
			SimilarityScore: 0.8,
		}
	}
	return items
}

func supporting(id string, confidence float64) model.InferenceResult {
	return model.InferenceResult{EvidenceID: id, SupportScore: 0.9, RefuteScore: 0.05, NeutralScore: 0.05, Confidence: confidence}
}

func refuting(id string, confidence float64) model.InferenceResult {
	return model.InferenceResult{EvidenceID: id, SupportScore: 0.05, RefuteScore: 0.9, NeutralScore: 0.05, Confidence: confidence}
}

func neutral(id string, confidence float64) model.InferenceResult {
	return model.InferenceResult{EvidenceID: id, SupportScore: 0.05, RefuteScore: 0.05, NeutralScore: 0.9, Confidence: confidence}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"weighted_vote", "majority_vote", "confidence_threshold", "strict_consensus"} {
		if _, err := ParseStrategy(s); err != nil {
			t.Errorf("ParseStrategy(%q) failed: %v", s, err)
		}
	}
	if got, err := ParseStrategy(""); err != nil || got != StrategyWeightedVote {
		t.Errorf("Empty strategy should default to weighted_vote, got %q, %v", got, err)
	}
	if _, err := ParseStrategy("coin_flip"); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}

func TestAggregate_WeightedVote_Supported(t *testing.T) {
	agg := NewAggregator(2)
	evidence := evidenceSet(5)
	results := []model.InferenceResult{
		supporting("ev-00", 0.9),
		supporting("ev-01", 0.9),
		supporting("ev-02", 0.9),
		supporting("ev-03", 0.9),
		neutral("ev-04", 0.8),
	}

	outcome := agg.Aggregate(testClaim, evidence, results, StrategyWeightedVote)
	if outcome.Verdict != model.VerdictSupported {
		t.Fatalf("Expected SUPPORTED, got %s (%s)", outcome.Verdict, outcome.Reasoning)
	}
	if outcome.Confidence <= 0.7 {
		t.Errorf("Expected confidence > 0.7, got %f", outcome.Confidence)
	}
	if outcome.EvidenceCount != 5 {
		t.Errorf("Expected evidence count 5, got %d", outcome.EvidenceCount)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	agg := NewAggregator(2)
	evidence := evidenceSet(4)
	results := []model.InferenceResult{
		supporting("ev-00", 0.9),
		refuting("ev-01", 0.7),
		neutral("ev-02", 0.6),
		supporting("ev-03", 0.8),
	}
	reversed := []model.InferenceResult{results[3], results[2], results[1], results[0]}

	for _, strategy := range []Strategy{StrategyWeightedVote, StrategyMajorityVote, StrategyConfidenceThreshold, StrategyStrictConsensus} {
		first := agg.Aggregate(testClaim, evidence, results, strategy)
		for i := 0; i < 5; i++ {
			again := agg.Aggregate(testClaim, evidence, reversed, strategy)
			if again.Verdict != first.Verdict || again.Confidence != first.Confidence {
				t.Errorf("%s: non-deterministic aggregation: %s/%f vs %s/%f",
					strategy, first.Verdict, first.Confidence, again.Verdict, again.Confidence)
			}
		}
	}
}

func TestAggregate_ConflictBoundary(t *testing.T) {
	agg := NewAggregator(2)
	// Two equal-weight results that normalize to weighted support 0.40
	// and refute 0.35: both over the 0.3 threshold, margin 0.05 < 0.15.
	evidence := []model.EvidenceItem{
		{ID: "ev-00", SimilarityScore: 1.0},
		{ID: "ev-01", SimilarityScore: 1.0},
	}
	results := []model.InferenceResult{
		{EvidenceID: "ev-00", SupportScore: 0.8, RefuteScore: 0, NeutralScore: 0.2, Confidence: 1},
		{EvidenceID: "ev-01", SupportScore: 0, RefuteScore: 0.7, NeutralScore: 0.3, Confidence: 1},
	}

	outcome := agg.Aggregate(testClaim, evidence, results, StrategyWeightedVote)
	if outcome.Verdict != model.VerdictConflicting {
		t.Fatalf("Expected CONFLICTING, got %s (%s)", outcome.Verdict, outcome.Reasoning)
	}
	if math.Abs(outcome.Confidence-0.40) > 1e-9 {
		t.Errorf("Expected confidence max(support, refute) = 0.40, got %f", outcome.Confidence)
	}
	if outcome.EdgeCaseType != model.EdgeCaseConflictingEvidence {
		t.Errorf("Expected conflicting_evidence edge case, got %q", outcome.EdgeCaseType)
	}
}

func TestAggregate_ConflictOverridesEveryStrategy(t *testing.T) {
	agg := NewAggregator(2)
	evidence := []model.EvidenceItem{
		{ID: "ev-00", SimilarityScore: 1.0},
		{ID: "ev-01", SimilarityScore: 1.0},
	}
	results := []model.InferenceResult{
		{EvidenceID: "ev-00", SupportScore: 0.8, RefuteScore: 0, NeutralScore: 0.2, Confidence: 1},
		{EvidenceID: "ev-01", SupportScore: 0, RefuteScore: 0.7, NeutralScore: 0.3, Confidence: 1},
	}

	for _, strategy := range []Strategy{StrategyWeightedVote, StrategyMajorityVote, StrategyConfidenceThreshold, StrategyStrictConsensus} {
		outcome := agg.Aggregate(testClaim, evidence, results, strategy)
		if outcome.Verdict != model.VerdictConflicting {
			t.Errorf("%s: expected conflict override, got %s", strategy, outcome.Verdict)
		}
	}
}

func TestAggregate_Ambiguity(t *testing.T) {
	agg := NewAggregator(2)
	evidence := evidenceSet(3)
	results := []model.InferenceResult{
		neutral("ev-00", 0.9),
		neutral("ev-01", 0.9),
		supporting("ev-02", 0.5),
	}

	outcome := agg.Aggregate(testClaim, evidence, results, StrategyWeightedVote)
	if outcome.Verdict != model.VerdictAmbiguous {
		t.Fatalf("Expected AMBIGUOUS, got %s (%s)", outcome.Verdict, outcome.Reasoning)
	}
	if outcome.EdgeCaseType != model.EdgeCaseAmbiguousEvidence {
		t.Errorf("Expected ambiguous_evidence edge case, got %q", outcome.EdgeCaseType)
	}
	if outcome.Confidence <= ambiguityThreshold {
		t.Errorf("Expected confidence above ambiguity threshold, got %f", outcome.Confidence)
	}
}

func TestAggregate_InsufficiencyFloor(t *testing.T) {
	agg := NewAggregator(2)

	for _, strategy := range []Strategy{StrategyWeightedVote, StrategyMajorityVote, StrategyConfidenceThreshold, StrategyStrictConsensus} {
		outcome := agg.Aggregate(testClaim, nil, nil, strategy)
		if outcome.Verdict != model.VerdictInsufficient {
			t.Errorf("%s: expected INSUFFICIENT for zero evidence, got %s", strategy, outcome.Verdict)
		}
		if outcome.Confidence != 0 {
			t.Errorf("%s: expected confidence exactly 0, got %f", strategy, outcome.Confidence)
		}
		if outcome.Reasoning == "" {
			t.Errorf("%s: expected reasoning naming the missing evidence", strategy)
		}
	}
}

func TestAggregate_SingleEvidenceIsInsufficient(t *testing.T) {
	agg := NewAggregator(2)
	evidence := evidenceSet(1)
	results := []model.InferenceResult{supporting("ev-00", 0.95)}

	outcome := agg.Aggregate(testClaim, evidence, results, StrategyWeightedVote)
	if outcome.Verdict != model.VerdictInsufficient {
		t.Fatalf("Expected INSUFFICIENT below minimum evidence, got %s", outcome.Verdict)
	}
	if outcome.Confidence <= 0 || outcome.Confidence >= 1 {
		t.Errorf("Expected scaled confidence in (0, 1), got %f", outcome.Confidence)
	}
}

func TestTieBreaksToRefuted(t *testing.T) {
	// The refute-over-support priority is decided in labelScores.max and
	// in the per-item dominant stance.
	scores := labelScores{support: 0.4, refute: 0.4, neutral: 0.2}
	if stance, _ := scores.max(); stance != model.StanceRefute {
		t.Errorf("Exact support/refute score tie must resolve to refute, got %s", stance)
	}

	tied := model.InferenceResult{EvidenceID: "ev-00", SupportScore: 0.45, RefuteScore: 0.45, NeutralScore: 0.10, Confidence: 1}
	if stance := tied.DominantStance(); stance != model.StanceRefute {
		t.Errorf("Per-item support/refute tie must lean refute, got %s", stance)
	}

	verdict, _, _ := majorityVote([]model.InferenceResult{tied})
	if verdict != model.VerdictRefuted {
		t.Errorf("Majority vote over tied results must yield REFUTED, got %s", verdict)
	}
}

func TestAggregate_TieNeverSupported(t *testing.T) {
	// At the full-aggregate level an exact weighted tie that tops the
	// scores is necessarily at least one third per side, so the conflict
	// override claims it before any strategy can; a tie can therefore
	// surface as CONFLICTING but never as SUPPORTED.
	agg := NewAggregator(2)
	evidence := []model.EvidenceItem{
		{ID: "ev-00", SimilarityScore: 1.0},
		{ID: "ev-01", SimilarityScore: 1.0},
	}
	results := []model.InferenceResult{
		{EvidenceID: "ev-00", SupportScore: 0.4, RefuteScore: 0.4, NeutralScore: 0.2, Confidence: 1},
		{EvidenceID: "ev-01", SupportScore: 0.4, RefuteScore: 0.4, NeutralScore: 0.2, Confidence: 1},
	}

	outcome := agg.Aggregate(testClaim, evidence, results, StrategyWeightedVote)
	if outcome.Verdict != model.VerdictConflicting {
		t.Errorf("Expected the tied maximum to classify as CONFLICTING, got %s", outcome.Verdict)
	}
	if outcome.Verdict == model.VerdictSupported {
		t.Errorf("Exact support/refute tie must never resolve to SUPPORTED")
	}
}

func TestAggregate_MajorityVote(t *testing.T) {
	agg := NewAggregator(2)
	evidence := evidenceSet(5)
	results := []model.InferenceResult{
		refuting("ev-00", 0.9),
		refuting("ev-01", 0.9),
		refuting("ev-02", 0.9),
		supporting("ev-03", 0.9),
		neutral("ev-04", 0.9),
	}

	outcome := agg.Aggregate(testClaim, evidence, results, StrategyMajorityVote)
	if outcome.Verdict != model.VerdictRefuted {
		t.Fatalf("Expected REFUTED, got %s (%s)", outcome.Verdict, outcome.Reasoning)
	}
	if math.Abs(outcome.Confidence-0.6) > 1e-9 {
		t.Errorf("Expected confidence 3/5 = 0.6, got %f", outcome.Confidence)
	}
}

func TestAggregate_MajorityVote_TieGoesToRefute(t *testing.T) {
	agg := NewAggregator(2)
	evidence := evidenceSet(4)
	results := []model.InferenceResult{
		refuting("ev-00", 0.9),
		refuting("ev-01", 0.9),
		supporting("ev-02", 0.9),
		supporting("ev-03", 0.9),
	}

	outcome := agg.Aggregate(testClaim, evidence, results, StrategyMajorityVote)
	// The 2-2 vote split lands inside the conflict margin, which is the
	// correct classification for an even split.
	if outcome.Verdict != model.VerdictConflicting && outcome.Verdict != model.VerdictRefuted {
		t.Errorf("Expected CONFLICTING or REFUTED for even split, got %s", outcome.Verdict)
	}
	if outcome.Verdict == model.VerdictSupported {
		t.Error("Vote tie must never resolve to SUPPORTED")
	}
}

func TestAggregate_ConfidenceThreshold_DropsWeakResults(t *testing.T) {
	agg := NewAggregator(2)
	evidence := evidenceSet(4)
	// The refuting majority is all below the confidence floor; only the
	// two strong supporting results survive the cut.
	results := []model.InferenceResult{
		refuting("ev-00", 0.3),
		refuting("ev-01", 0.4),
		supporting("ev-02", 0.9),
		supporting("ev-03", 0.95),
	}

	outcome := agg.Aggregate(testClaim, evidence, results, StrategyConfidenceThreshold)
	if outcome.Verdict != model.VerdictSupported {
		t.Fatalf("Expected SUPPORTED after dropping weak refutations, got %s (%s)", outcome.Verdict, outcome.Reasoning)
	}
}

func TestAggregate_ConfidenceThreshold_FallsBackOnEmptyRemainder(t *testing.T) {
	agg := NewAggregator(2)
	evidence := evidenceSet(3)
	results := []model.InferenceResult{
		supporting("ev-00", 0.5),
		supporting("ev-01", 0.6),
		supporting("ev-02", 0.4),
	}

	outcome := agg.Aggregate(testClaim, evidence, results, StrategyConfidenceThreshold)
	if outcome.Verdict != model.VerdictSupported {
		t.Fatalf("Expected fallback weighted vote to return SUPPORTED, got %s", outcome.Verdict)
	}
	if outcome.Confidence <= 0 {
		t.Errorf("Fallback must never silently return nothing; got confidence %f", outcome.Confidence)
	}
}

func TestAggregate_StrictConsensus(t *testing.T) {
	agg := NewAggregator(2)
	evidence := evidenceSet(3)

	unanimous := []model.InferenceResult{
		supporting("ev-00", 0.9),
		supporting("ev-01", 0.9),
		supporting("ev-02", 0.9),
	}
	outcome := agg.Aggregate(testClaim, evidence, unanimous, StrategyStrictConsensus)
	if outcome.Verdict != model.VerdictSupported {
		t.Fatalf("Expected SUPPORTED for unanimous set, got %s", outcome.Verdict)
	}

	split := []model.InferenceResult{
		supporting("ev-00", 0.9),
		supporting("ev-01", 0.9),
		neutral("ev-02", 0.9),
	}
	outcome = agg.Aggregate(testClaim, evidence, split, StrategyStrictConsensus)
	if outcome.Verdict != model.VerdictInsufficient {
		t.Fatalf("Expected INSUFFICIENT for disagreement, got %s", outcome.Verdict)
	}
	if outcome.Confidence != 0 {
		t.Errorf("Expected confidence 0 on failed consensus, got %f", outcome.Confidence)
	}
	if outcome.Reasoning == "" {
		t.Error("Expected reasoning naming the conflicting evidence")
	}
}

func TestAggregate_EvidenceCountMonotonicity(t *testing.T) {
	agg := NewAggregator(2)

	evidence := evidenceSet(3)
	results := []model.InferenceResult{
		supporting("ev-00", 0.9),
		supporting("ev-01", 0.9),
		neutral("ev-02", 0.7),
	}
	before := agg.Aggregate(testClaim, evidence, results, StrategyWeightedVote)
	if before.Verdict != model.VerdictSupported {
		t.Fatalf("Setup: expected SUPPORTED, got %s", before.Verdict)
	}

	// Add one more strongly supporting item: the winning label's
	// confidence must not decrease.
	moreEvidence := evidenceSet(4)
	moreResults := append(append([]model.InferenceResult{}, results...),
		model.InferenceResult{EvidenceID: "ev-03", SupportScore: 1, RefuteScore: 0, NeutralScore: 0, Confidence: 1})

	after := agg.Aggregate(testClaim, moreEvidence, moreResults, StrategyWeightedVote)
	if after.Verdict != model.VerdictSupported {
		t.Fatalf("Expected SUPPORTED after reinforcement, got %s", after.Verdict)
	}
	if after.Confidence < before.Confidence {
		t.Errorf("Confidence decreased after adding supporting evidence: %f -> %f", before.Confidence, after.Confidence)
	}
}
