// Package aggregate turns a set of per-evidence inference results into
// one verdict. Aggregation is a pure function over validated inputs: it
// makes no external calls and must not fail.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/claimlens/claimlens/internal/model"
)

// Strategy selects how per-evidence results combine into a verdict
type Strategy string

const (
	// StrategyWeightedVote weights each result by its own confidence and
	// the evidence similarity, then normalizes per-label sums. Default.
	StrategyWeightedVote Strategy = "weighted_vote"

	// StrategyMajorityVote gives each evidence item one vote for its
	// dominant stance.
	StrategyMajorityVote Strategy = "majority_vote"

	// StrategyConfidenceThreshold drops low-confidence results before a
	// weighted vote, falling back to the full set when nothing survives.
	StrategyConfidenceThreshold Strategy = "confidence_threshold"

	// StrategyStrictConsensus requires unanimous stances; any
	// disagreement yields INSUFFICIENT at confidence 0.
	StrategyStrictConsensus Strategy = "strict_consensus"
)

// ParseStrategy maps a config string to a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyWeightedVote, StrategyMajorityVote, StrategyConfidenceThreshold, StrategyStrictConsensus:
		return Strategy(s), nil
	case "":
		return StrategyWeightedVote, nil
	default:
		return "", fmt.Errorf("unknown aggregation strategy: %q", s)
	}
}

const (
	// conflictThreshold is the weighted score both support and refute
	// must reach before a conflict is considered.
	conflictThreshold = 0.3

	// conflictMargin is the score difference below which simultaneous
	// high support and refute count as genuine conflict rather than one
	// being a rounding artifact of the other.
	conflictMargin = 0.15

	// ambiguityThreshold is the weighted neutral score above which the
	// evidence set is classified ambiguous.
	ambiguityThreshold = 0.55

	// confidenceFloor is the minimum result confidence kept by the
	// confidence-threshold strategy.
	confidenceFloor = 0.75
)

// Aggregator combines inference results into verification outcomes
type Aggregator struct {
	minEvidence int
}

// NewAggregator creates an aggregator. minEvidence is the evidence count
// below which the verdict is INSUFFICIENT unconditionally; values < 1
// fall back to the default of 2.
func NewAggregator(minEvidence int) *Aggregator {
	if minEvidence < 1 {
		minEvidence = 2
	}
	return &Aggregator{minEvidence: minEvidence}
}

// labelScores holds the normalized weighted per-stance scores. The three
// values sum to 1 unless the result set was empty.
type labelScores struct {
	support float64
	refute  float64
	neutral float64
}

// max returns the highest score and its stance, resolving exact ties in
// fixed priority order refute > support > neutral so evidence of harm is
// never silently dropped.
func (s labelScores) max() (model.Stance, float64) {
	stance, score := model.StanceRefute, s.refute
	if s.support > score {
		stance, score = model.StanceSupport, s.support
	}
	if s.neutral > score {
		stance, score = model.StanceNeutral, s.neutral
	}
	return stance, score
}

// Aggregate combines the inference results for one claim into a single
// outcome. For identical inputs and strategy the result is identical on
// every call: results are processed in evidence-ID order and all
// tie-breaks are fixed.
func (a *Aggregator) Aggregate(claim model.Claim, evidence []model.EvidenceItem, results []model.InferenceResult, strategy Strategy) model.VerificationOutcome {
	outcome := model.VerificationOutcome{
		ClaimID:       claim.ID,
		EvidenceCount: len(evidence),
	}

	// Insufficiency bypasses both the strategy and the other edge checks.
	if len(evidence) < a.minEvidence {
		return a.insufficient(outcome, evidence, results)
	}

	sorted := sortResults(results)
	similarity := similarityByID(evidence)
	weighted := weightedScores(sorted, similarity)

	verdict, confidence, detail := a.applyStrategy(strategy, sorted, similarity, weighted)

	// Edge-case detection applies regardless of strategy and overrides
	// its raw label.
	if signal := detectConflict(weighted); signal != nil {
		outcome.Verdict = model.VerdictConflicting
		outcome.Confidence = signal.Confidence
		outcome.EdgeCaseType = signal.Type
		outcome.Reasoning = fmt.Sprintf(
			"%d evidence passages split into genuine conflict: weighted support %.2f and refutation %.2f are both strong and within the conflict margin.",
			len(evidence), weighted.support, weighted.refute)
		return outcome
	}
	if signal := detectAmbiguity(weighted); signal != nil {
		outcome.Verdict = model.VerdictAmbiguous
		outcome.Confidence = signal.Confidence
		outcome.EdgeCaseType = signal.Type
		outcome.Reasoning = fmt.Sprintf(
			"%d evidence passages are predominantly neutral (weighted neutral %.2f); the evidence neither supports nor refutes the claim.",
			len(evidence), weighted.neutral)
		return outcome
	}

	outcome.Verdict = verdict
	outcome.Confidence = confidence
	outcome.Reasoning = detail
	return outcome
}

func (a *Aggregator) applyStrategy(strategy Strategy, results []model.InferenceResult, similarity map[string]float64, weighted labelScores) (model.VerdictLabel, float64, string) {
	switch strategy {
	case StrategyMajorityVote:
		return majorityVote(results)
	case StrategyConfidenceThreshold:
		return confidenceThresholdVote(results, similarity, weighted)
	case StrategyStrictConsensus:
		return strictConsensus(results, weighted)
	default:
		return weightedVote(results, weighted)
	}
}

// insufficient builds the INSUFFICIENT outcome for evidence counts below
// the minimum. Zero evidence scores confidence 0 exactly; a partial set
// scales the dominant weighted score by how far below minimum it is.
func (a *Aggregator) insufficient(outcome model.VerificationOutcome, evidence []model.EvidenceItem, results []model.InferenceResult) model.VerificationOutcome {
	outcome.Verdict = model.VerdictInsufficient
	outcome.EdgeCaseType = model.EdgeCaseInsufficientEvidence

	if len(evidence) == 0 {
		outcome.Confidence = 0
		outcome.Reasoning = "No evidence was found for this claim; verification is not possible."
		return outcome
	}

	weighted := weightedScores(sortResults(results), similarityByID(evidence))
	_, score := weighted.max()
	outcome.Confidence = score * float64(len(evidence)) / float64(a.minEvidence)
	outcome.Reasoning = fmt.Sprintf(
		"Only %d evidence passage(s) found, below the minimum of %d required for a verdict.",
		len(evidence), a.minEvidence)
	return outcome
}

// weightedVote resolves the verdict from the precomputed weighted scores
func weightedVote(results []model.InferenceResult, weighted labelScores) (model.VerdictLabel, float64, string) {
	if len(results) == 0 {
		return model.VerdictInsufficient, 0, "No inference results were available for the retrieved evidence."
	}

	stance, score := weighted.max()
	verdict := stanceVerdict(stance)
	reasoning := fmt.Sprintf(
		"Weighted vote over %d inference result(s): support %.2f, refute %.2f, neutral %.2f; dominant label is %s.",
		len(results), weighted.support, weighted.refute, weighted.neutral, verdict)
	return verdict, score, reasoning
}

// majorityVote gives each evidence item one vote for its dominant stance
func majorityVote(results []model.InferenceResult) (model.VerdictLabel, float64, string) {
	if len(results) == 0 {
		return model.VerdictInsufficient, 0, "No inference results were available for the retrieved evidence."
	}

	votes := map[model.Stance]int{}
	for _, r := range results {
		votes[r.DominantStance()]++
	}

	// Fixed priority order keeps ties deterministic: refute wins over
	// support wins over neutral.
	winner := model.StanceRefute
	for _, stance := range []model.Stance{model.StanceSupport, model.StanceNeutral} {
		if votes[stance] > votes[winner] {
			winner = stance
		}
	}

	confidence := float64(votes[winner]) / float64(len(results))
	verdict := stanceVerdict(winner)
	reasoning := fmt.Sprintf(
		"Majority vote over %d evidence passage(s): %d support, %d refute, %d neutral; %s wins with %.0f%% of votes.",
		len(results), votes[model.StanceSupport], votes[model.StanceRefute], votes[model.StanceNeutral],
		verdict, confidence*100)
	return verdict, confidence, reasoning
}

// confidenceThresholdVote discards results below the confidence floor
// and runs a weighted vote on the remainder. An empty remainder falls
// back to the full set rather than silently returning nothing.
func confidenceThresholdVote(results []model.InferenceResult, similarity map[string]float64, weighted labelScores) (model.VerdictLabel, float64, string) {
	var kept []model.InferenceResult
	for _, r := range results {
		if r.Confidence >= confidenceFloor {
			kept = append(kept, r)
		}
	}

	if len(kept) == 0 {
		verdict, confidence, reasoning := weightedVote(results, weighted)
		return verdict, confidence, reasoning + " (no result met the confidence threshold; fell back to the full set)"
	}

	keptScores := weightedScores(kept, similarity)
	verdict, confidence, _ := weightedVote(kept, keptScores)
	reasoning := fmt.Sprintf(
		"Confidence-threshold vote kept %d of %d result(s) at confidence >= %.2f; dominant label is %s.",
		len(kept), len(results), confidenceFloor, verdict)
	return verdict, confidence, reasoning
}

// strictConsensus requires every evidence item's dominant stance to
// match; any disagreement yields INSUFFICIENT at confidence 0.
func strictConsensus(results []model.InferenceResult, weighted labelScores) (model.VerdictLabel, float64, string) {
	if len(results) == 0 {
		return model.VerdictInsufficient, 0, "No inference results were available for the retrieved evidence."
	}

	first := results[0].DominantStance()
	for _, r := range results[1:] {
		if stance := r.DominantStance(); stance != first {
			return model.VerdictInsufficient, 0, fmt.Sprintf(
				"Strict consensus failed: evidence %s leans %s while evidence %s leans %s.",
				results[0].EvidenceID, first, r.EvidenceID, stance)
		}
	}

	verdict := stanceVerdict(first)
	score := weighted.support
	switch first {
	case model.StanceRefute:
		score = weighted.refute
	case model.StanceNeutral:
		score = weighted.neutral
	}
	reasoning := fmt.Sprintf(
		"All %d evidence passage(s) unanimously lean %s.", len(results), first)
	return verdict, score, reasoning
}

// detectConflict fires when weighted support and refute are both strong
// and close enough that neither clearly wins.
func detectConflict(weighted labelScores) *model.EdgeCaseSignal {
	diff := weighted.support - weighted.refute
	if diff < 0 {
		diff = -diff
	}
	if weighted.support >= conflictThreshold && weighted.refute >= conflictThreshold && diff < conflictMargin {
		confidence := weighted.support
		if weighted.refute > confidence {
			confidence = weighted.refute
		}
		return &model.EdgeCaseSignal{
			Type:       model.EdgeCaseConflictingEvidence,
			Confidence: confidence,
			Indicators: []string{
				fmt.Sprintf("weighted_support=%.3f", weighted.support),
				fmt.Sprintf("weighted_refute=%.3f", weighted.refute),
				fmt.Sprintf("margin=%.3f", diff),
			},
		}
	}
	return nil
}

// detectAmbiguity fires when the weighted neutral score dominates
func detectAmbiguity(weighted labelScores) *model.EdgeCaseSignal {
	if weighted.neutral > ambiguityThreshold && weighted.neutral >= weighted.support && weighted.neutral >= weighted.refute {
		return &model.EdgeCaseSignal{
			Type:       model.EdgeCaseAmbiguousEvidence,
			Confidence: weighted.neutral,
			Indicators: []string{fmt.Sprintf("weighted_neutral=%.3f", weighted.neutral)},
		}
	}
	return nil
}

// weightedScores sums per-stance scores, each result weighted by its
// confidence scaled by the evidence similarity when known, and
// normalizes so the three values sum to 1.
func weightedScores(results []model.InferenceResult, similarity map[string]float64) labelScores {
	var s labelScores
	for _, r := range results {
		weight := r.Confidence
		if sim, ok := similarity[r.EvidenceID]; ok {
			weight *= 0.5 + 0.5*sim
		}
		if weight <= 0 {
			continue
		}
		s.support += weight * r.SupportScore
		s.refute += weight * r.RefuteScore
		s.neutral += weight * r.NeutralScore
	}

	total := s.support + s.refute + s.neutral
	if total > 0 {
		s.support /= total
		s.refute /= total
		s.neutral /= total
	}
	return s
}

// sortResults returns a copy ordered by evidence ID so score summation
// never depends on retrieval order.
func sortResults(results []model.InferenceResult) []model.InferenceResult {
	sorted := make([]model.InferenceResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EvidenceID < sorted[j].EvidenceID
	})
	return sorted
}

func similarityByID(evidence []model.EvidenceItem) map[string]float64 {
	m := make(map[string]float64, len(evidence))
	for _, e := range evidence {
		m[e.ID] = e.SimilarityScore
	}
	return m
}

func stanceVerdict(stance model.Stance) model.VerdictLabel {
	switch stance {
	case model.StanceRefute:
		return model.VerdictRefuted
	case model.StanceSupport:
		return model.VerdictSupported
	default:
		return model.VerdictAmbiguous
	}
}
