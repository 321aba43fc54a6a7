package llm

import (
	"context"
	"fmt"

	"github.com/claimlens/claimlens/internal/model"
)

// Embedder turns claim or passage text into a fixed-size vector
type Embedder interface {
	// Name returns the provider name
	Name() string

	// Embed returns the embedding vector for text
	Embed(ctx context.Context, text string) ([]float32, error)
}

// InferenceProvider scores (claim, evidence) pairs for entailment
type InferenceProvider interface {
	// Name returns the provider name
	Name() string

	// InferPairs returns one score triple per input pair, order-preserving:
	// results[i] corresponds to pairs[i].
	InferPairs(ctx context.Context, pairs []model.InferencePair) ([]model.InferenceResult, error)
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "ollama"
	Provider string

	// EmbedModel is the embedding model name
	EmbedModel string

	// NLIModel is the model scoring entailment triples
	NLIModel string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama's OpenAI-compatible API)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxBatch caps how many pairs go into one inference request
	MaxBatch int
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:   mc.Provider,
		EmbedModel: mc.EmbedModel,
		NLIModel:   mc.NLIModel,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxBatch:   mc.MaxBatch,
	}
}

// APIError wraps a provider API failure with its HTTP status so the
// retry layer can classify it without inspecting provider SDK types.
type APIError struct {
	Op     string // "embed" or "infer"
	Status int    // 0 when the request never got a response
	Err    error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient. Rate limits and
// server errors retry; auth failures and malformed requests do not.
// Status 0 means a transport-level failure, which is worth retrying.
func (e *APIError) Retryable() bool {
	return e.Status == 0 || e.Status == 429 || e.Status >= 500
}
