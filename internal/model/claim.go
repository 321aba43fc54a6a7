package model

// Claim represents a factual assertion submitted for verification
type Claim struct {
	ID     string `json:"id"`               // Caller-assigned identifier
	Text   string `json:"text"`             // The claim text itself
	Tenant string `json:"tenant,omitempty"` // Owning tenant (multi-tenant callers)
}

// ValidationStatus is the outcome of input validation
type ValidationStatus string

const (
	StatusValid   ValidationStatus = "valid"
	StatusWarning ValidationStatus = "warning" // Proceeds with adjusted thresholds
	StatusInvalid ValidationStatus = "invalid" // Rejected before any external call
)

// Validation issue codes
const (
	IssueEmptyInput         = "empty_input"
	IssueEncodingCorruption = "encoding_corruption"
	IssueSingleWord         = "single_word"
	IssueShortClaim         = "short_claim"
	IssueLongClaim          = "long_claim"
	IssueSpecialCharacters  = "special_characters"
)

// ValidationIssue describes a single problem found in claim text
type ValidationIssue struct {
	Code    string `json:"code"`    // Stable machine-readable code (e.g. "single_word")
	Message string `json:"message"` // Human-readable description
}

// ValidationResult contains the result of claim input validation
type ValidationResult struct {
	Status         ValidationStatus  `json:"status"`
	NormalizedText string            `json:"normalized_text"`
	Issues         []ValidationIssue `json:"issues,omitempty"`
}

// HasIssue reports whether a specific issue code was raised
func (r ValidationResult) HasIssue(code string) bool {
	for _, issue := range r.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
