package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures from external collaborators
type ErrorKind int

const (
	// KindTransient covers timeouts, connection failures, and rate
	// limits. Retried with backoff up to the configured attempt limit.
	KindTransient ErrorKind = iota

	// KindPermanent covers malformed responses and authentication
	// failures. Never retried; converted to a degraded outcome at once.
	KindPermanent
)

// ExternalError wraps a collaborator failure with its retry classification
type ExternalError struct {
	Kind ErrorKind
	Op   string // Collaborator operation, e.g. "embed", "search_evidence"
	Err  error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable external failure
func Transient(op string, err error) *ExternalError {
	return &ExternalError{Kind: KindTransient, Op: op, Err: err}
}

// Permanent wraps err as a non-retryable external failure
func Permanent(op string, err error) *ExternalError {
	return &ExternalError{Kind: KindPermanent, Op: op, Err: err}
}

// InputError reports invalid claim text. It is the only error Verify
// ever returns to the caller; it is never retried.
type InputError struct {
	Code    string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid claim: %s (%s)", e.Message, e.Code)
}

// Retryable reports this error's own classification
func (e *ExternalError) Retryable() bool {
	return e.Kind == KindTransient
}

// IsRetryable reports whether err should be retried. Errors that carry
// their own classification (a Retryable method) are trusted; raw errors
// are classified by message, matching the transient patterns
// collaborator SDKs surface. Unknown errors are not retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var classified interface{ Retryable() bool }
	if errors.As(err, &classified) {
		return classified.Retryable()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "429") ||
		strings.Contains(s, "503")
}
