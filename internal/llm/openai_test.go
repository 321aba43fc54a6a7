package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/claimlens/claimlens/internal/model"
)

func TestOpenAIProvider_Embed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("Expected path /embeddings, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header: %s", r.Header.Get("Authorization"))
		}

		resp := openai.EmbeddingResponse{
			Object: "list",
			Data: []openai.Embedding{
				{Object: "embedding", Embedding: []float32{0.1, 0.2, 0.3}},
			},
			Model: openai.SmallEmbedding3,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		EmbedModel: "text-embedding-3-small",
		Timeout:    5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	vector, err := provider.Embed(context.Background(), "The Earth orbits the Sun")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vector) != 3 || vector[0] != 0.1 {
		t.Errorf("Unexpected vector: %v", vector)
	}
}

func TestOpenAIProvider_InferPairs_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}

		content := `{"results": [
			{"support": 0.9, "refute": 0.05, "neutral": 0.05, "confidence": 0.95},
			{"support": 0.1, "refute": 0.8, "neutral": 0.1, "confidence": 0.85}
		]}`
		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	pairs := []model.InferencePair{
		{ClaimText: "The Earth orbits the Sun", EvidenceText: "Heliocentric model...", EvidenceID: "ev-1"},
		{ClaimText: "The Earth orbits the Sun", EvidenceText: "Geocentric model...", EvidenceID: "ev-2"},
	}
	results, err := provider.InferPairs(context.Background(), pairs)
	if err != nil {
		t.Fatalf("InferPairs failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].EvidenceID != "ev-1" || results[0].SupportScore != 0.9 {
		t.Errorf("Result order not preserved: %+v", results[0])
	}
	if results[1].EvidenceID != "ev-2" || results[1].RefuteScore != 0.8 {
		t.Errorf("Result order not preserved: %+v", results[1])
	}
}

func TestOpenAIProvider_InferPairs_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: `{"results": [{"support": 1, "refute": 0, "neutral": 0, "confidence": 1}]}`}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})

	pairs := []model.InferencePair{
		{ClaimText: "c", EvidenceText: "a", EvidenceID: "ev-1"},
		{ClaimText: "c", EvidenceText: "b", EvidenceID: "ev-2"},
	}
	_, err := provider.InferPairs(context.Background(), pairs)
	if err == nil {
		t.Fatal("Expected error on result count mismatch")
	}
	if !strings.Contains(err.Error(), "2 pairs") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestOpenAIProvider_RateLimitIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit", "type": "requests"}}`))
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})

	_, err := provider.Embed(context.Background(), "claim text here")
	if err == nil {
		t.Fatal("Expected error from 429")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T: %v", err, err)
	}
	if !apiErr.Retryable() {
		t.Error("429 should be retryable")
	}
}

func TestAPIError_Retryable(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{0, true},
		{401, false},
		{400, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, c := range cases {
		e := &APIError{Op: "embed", Status: c.status}
		if got := e.Retryable(); got != c.want {
			t.Errorf("Status %d: Retryable = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestBuildNLIPrompt(t *testing.T) {
	pairs := []model.InferencePair{
		{ClaimText: "The Earth orbits the Sun", EvidenceText: "First passage", EvidenceID: "ev-1"},
		{ClaimText: "The Earth orbits the Sun", EvidenceText: "Second passage", EvidenceID: "ev-2"},
	}
	prompt := buildNLIPrompt(pairs)

	if !strings.Contains(prompt, "Claim: The Earth orbits the Sun") {
		t.Error("Prompt missing claim")
	}
	if !strings.Contains(prompt, "1. First passage") || !strings.Contains(prompt, "2. Second passage") {
		t.Errorf("Prompt missing numbered passages:\n%s", prompt)
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	if _, err := NewClient(Config{Provider: "bedrock"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
