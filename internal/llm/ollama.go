package llm

import (
	"context"

	"github.com/claimlens/claimlens/internal/model"
)

// defaultOllamaBaseURL points at Ollama's OpenAI-compatible endpoint
const defaultOllamaBaseURL = "http://localhost:11434/v1"

// OllamaProvider runs embeddings and entailment scoring against a local
// Ollama instance through its OpenAI-compatible API. No API key is
// required.
type OllamaProvider struct {
	inner *OpenAIProvider
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	if config.BaseURL == "" {
		config.BaseURL = defaultOllamaBaseURL
	}
	if config.APIKey == "" {
		config.APIKey = "ollama" // The endpoint ignores it but the client requires one
	}
	if config.EmbedModel == "" {
		config.EmbedModel = "nomic-embed-text"
	}
	if config.NLIModel == "" {
		config.NLIModel = "llama3.1"
	}

	inner, err := NewOpenAIProvider(config)
	if err != nil {
		return nil, err
	}
	return &OllamaProvider{inner: inner}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Embed returns the embedding vector for text
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.inner.Embed(ctx, text)
}

// InferPairs scores each (claim, evidence) pair
func (p *OllamaProvider) InferPairs(ctx context.Context, pairs []model.InferencePair) ([]model.InferenceResult, error) {
	return p.inner.InferPairs(ctx, pairs)
}
