package validate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/claimlens/claimlens/internal/model"
)

const (
	// shortClaimWords is the word count at or below which a claim is
	// flagged as short and the downstream similarity threshold is relaxed.
	shortClaimWords = 3

	// longClaimTokens is the estimated token count near the inference
	// model's input limit. Estimation uses the rough 4-chars-per-token rule.
	longClaimTokens = 7500

	// specialCharRatio is the non-ASCII fraction above which the claim is
	// flagged as special-character heavy. Informational only.
	specialCharRatio = 0.3
)

// Validator checks claim text before any expensive pipeline work
type Validator struct {
	maxNonASCIIRatio float64
}

// NewValidator creates a validator with the default thresholds
func NewValidator() *Validator {
	return &Validator{maxNonASCIIRatio: specialCharRatio}
}

// Validate inspects claim text and returns its status, the normalized
// text, and any issues found. An invalid result must short-circuit the
// pipeline: it is the cheapest possible fail path and runs first.
func (v *Validator) Validate(text string) model.ValidationResult {
	normalized := Normalize(text)

	if normalized == "" {
		return invalid(model.IssueEmptyInput, "claim text is empty after trimming")
	}

	if !utf8.ValidString(text) || strings.ContainsRune(text, utf8.RuneError) || strings.ContainsRune(text, 0) {
		return invalid(model.IssueEncodingCorruption, "claim text contains replacement or NUL characters")
	}

	words := strings.Fields(normalized)
	if len(words) < 2 {
		return invalid(model.IssueSingleWord, "single-word input carries no verifiable proposition")
	}

	var issues []model.ValidationIssue

	if len(words) <= shortClaimWords {
		issues = append(issues, model.ValidationIssue{
			Code:    model.IssueShortClaim,
			Message: "claim is very short; similarity threshold will be relaxed",
		})
	}

	if estimateTokens(normalized) >= longClaimTokens {
		issues = append(issues, model.ValidationIssue{
			Code:    model.IssueLongClaim,
			Message: "claim approaches the inference model input limit and may be truncated",
		})
	}

	if ratio := nonASCIIRatio(normalized); ratio > v.maxNonASCIIRatio {
		issues = append(issues, model.ValidationIssue{
			Code:    model.IssueSpecialCharacters,
			Message: "claim has a high ratio of non-ASCII characters",
		})
	}

	status := model.StatusValid
	if len(issues) > 0 {
		status = model.StatusWarning
	}

	return model.ValidationResult{
		Status:         status,
		NormalizedText: normalized,
		Issues:         issues,
	}
}

// Normalize strips a UTF-8 BOM and collapses all whitespace runs to
// single spaces. Two claims that normalize identically share a cache
// fingerprint.
func Normalize(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	return strings.Join(strings.Fields(text), " ")
}

func invalid(code, message string) model.ValidationResult {
	return model.ValidationResult{
		Status: model.StatusInvalid,
		Issues: []model.ValidationIssue{{Code: code, Message: message}},
	}
}

// estimateTokens approximates the token count of text. Four characters
// per token matches the inference model's tokenizer closely enough for a
// warning threshold.
func estimateTokens(text string) int {
	return len(text) / 4
}

func nonASCIIRatio(text string) float64 {
	if text == "" {
		return 0
	}
	total, nonASCII := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r > unicode.MaxASCII {
			nonASCII++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(nonASCII) / float64(total)
}
