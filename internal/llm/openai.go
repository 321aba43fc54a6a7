package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/claimlens/claimlens/internal/model"
)

// OpenAIProvider implements Embedder and InferenceProvider against the
// OpenAI API (or any OpenAI-compatible endpoint via BaseURL).
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" && config.BaseURL == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Embed returns the embedding vector for text
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	embedModel := p.config.EmbedModel
	if embedModel == "" {
		embedModel = string(openai.SmallEmbedding3)
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(embedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, wrapAPIError("embed", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed: empty embedding response")
	}

	return resp.Data[0].Embedding, nil
}

// nliSystemPrompt pins the model to the scoring task. The three scores
// are required to be non-negative and sum to roughly 1 per pair.
const nliSystemPrompt = `You are a natural language inference scorer. For each numbered evidence passage, judge its relationship to the claim and respond with JSON only:
{"results": [{"support": s, "refute": r, "neutral": n, "confidence": c}, ...]}
where support, refute, neutral are non-negative scores summing to 1 (support = the passage entails the claim, refute = it contradicts the claim, neutral = it does neither) and confidence is your certainty in that judgement, 0 to 1. Return exactly one result per passage, in passage order.`

type nliResponse struct {
	Results []nliTriple `json:"results"`
}

type nliTriple struct {
	Support    float64 `json:"support"`
	Refute     float64 `json:"refute"`
	Neutral    float64 `json:"neutral"`
	Confidence float64 `json:"confidence"`
}

// InferPairs scores each (claim, evidence) pair. Pairs are chunked into
// MaxBatch-sized requests; results preserve input order.
func (p *OpenAIProvider) InferPairs(ctx context.Context, pairs []model.InferencePair) ([]model.InferenceResult, error) {
	if len(pairs) == 0 {
		return []model.InferenceResult{}, nil
	}

	maxBatch := p.config.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 16
	}

	results := make([]model.InferenceResult, 0, len(pairs))
	for start := 0; start < len(pairs); start += maxBatch {
		end := start + maxBatch
		if end > len(pairs) {
			end = len(pairs)
		}
		batch, err := p.inferBatch(ctx, pairs[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}

	return results, nil
}

func (p *OpenAIProvider) inferBatch(ctx context.Context, pairs []model.InferencePair) ([]model.InferenceResult, error) {
	nliModel := p.config.NLIModel
	if nliModel == "" {
		nliModel = openai.GPT4oMini
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: nliModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: nliSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildNLIPrompt(pairs)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0, // Scoring must be reproducible across retries
	})
	if err != nil {
		return nil, wrapAPIError("infer", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("infer: no response choices")
	}

	var parsed nliResponse
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("infer: malformed scorer response: %w", err)
	}
	if len(parsed.Results) != len(pairs) {
		return nil, fmt.Errorf("infer: scorer returned %d results for %d pairs", len(parsed.Results), len(pairs))
	}

	results := make([]model.InferenceResult, len(pairs))
	for i, triple := range parsed.Results {
		results[i] = model.InferenceResult{
			EvidenceID:   pairs[i].EvidenceID,
			SupportScore: clampScore(triple.Support),
			RefuteScore:  clampScore(triple.Refute),
			NeutralScore: clampScore(triple.Neutral),
			Confidence:   clampScore(triple.Confidence),
		}
	}

	return results, nil
}

// buildNLIPrompt renders the claim once and numbers the passages. All
// pairs within one batch share the claim text.
func buildNLIPrompt(pairs []model.InferencePair) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n\nEvidence passages:\n", pairs[0].ClaimText)
	for i, pair := range pairs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, pair.EvidenceText)
	}
	return b.String()
}

func (p *OpenAIProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// wrapAPIError converts SDK errors into APIError so the retry layer can
// classify them by HTTP status.
func wrapAPIError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Op: op, Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{Op: op, Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &APIError{Op: op, Err: err}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
