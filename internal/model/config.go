package model

import "time"

// Config is the complete Claimlens configuration, loadable from
// ~/.claimlens/config.yaml via viper and overridable by CLAIMLENS_* env
// vars and CLI flags.
type Config struct {
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	Retry       RetryConfig       `yaml:"retry" mapstructure:"retry"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Ingest      IngestConfig      `yaml:"ingest" mapstructure:"ingest"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// PipelineConfig controls orchestration defaults
type PipelineConfig struct {
	Strategy           string        `yaml:"strategy" mapstructure:"strategy"` // weighted_vote, majority_vote, confidence_threshold, strict_consensus
	TopKEvidence       int           `yaml:"top_k_evidence" mapstructure:"top_k_evidence"`
	MinSimilarity      float64       `yaml:"min_similarity" mapstructure:"min_similarity"`
	MinEvidence        int           `yaml:"min_evidence" mapstructure:"min_evidence"` // Below this the verdict is INSUFFICIENT
	UseCache           bool          `yaml:"use_cache" mapstructure:"use_cache"`
	TimeBudget         time.Duration `yaml:"time_budget" mapstructure:"time_budget"` // Soft ceiling, logged when exceeded
	FallbackSimilarity float64       `yaml:"fallback_similarity" mapstructure:"fallback_similarity"` // Similarity-only verdict floor on inference failure
}

// RetryConfig controls backoff for external collaborator calls
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
}

// CacheConfig controls the verification result cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir" mapstructure:"dir"` // Disk layer directory; empty disables the disk layer
}

// LLMConfig configures the embedding and inference collaborators
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, ollama
	EmbedModel string `yaml:"embed_model" mapstructure:"embed_model"`
	NLIModel   string `yaml:"nli_model" mapstructure:"nli_model"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxBatch   int    `yaml:"max_batch" mapstructure:"max_batch"`
}

// StoreConfig configures the SQLite evidence index
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// IngestConfig configures corpus ingestion fetches
type IngestConfig struct {
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	MinPassageWords   int           `yaml:"min_passage_words" mapstructure:"min_passage_words"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// ConcurrencyConfig controls worker pool sizes
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Strategy:           "weighted_vote",
			TopKEvidence:       10,
			MinSimilarity:      0.5,
			MinEvidence:        2,
			UseCache:           true,
			TimeBudget:         30 * time.Second,
			FallbackSimilarity: 0.75,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     8 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     1 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:   "openai",
			EmbedModel: "text-embedding-3-small",
			NLIModel:   "gpt-4o-mini",
			Timeout:    30,
			MaxBatch:   16,
		},
		Store: StoreConfig{
			Path: "claimlens.db",
		},
		Ingest: IngestConfig{
			UserAgent:         "Claimlens/0.1 (+https://github.com/claimlens/claimlens)",
			Timeout:           30 * time.Second,
			MaxBodyBytes:      2_000_000,
			RequestsPerSecond: 2,
			Burst:             5,
			MinPassageWords:   8,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 4,
		},
	}
}
