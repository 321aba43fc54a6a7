package llm

import (
	"fmt"
	"strings"
)

// Client bundles the two collaborator roles a provider fills
type Client interface {
	Embedder
	InferenceProvider
}

// NewClient creates a provider based on configuration
func NewClient(config Config) (Client, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}
