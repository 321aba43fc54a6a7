package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/claimlens/claimlens/internal/cache"
	"github.com/claimlens/claimlens/internal/llm"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/pipeline"
	"github.com/claimlens/claimlens/internal/store"
)

// loadConfig merges defaults, the config file, and CLAIMLENS_* env vars
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildPipeline assembles the verification pipeline and its evidence
// store. The caller owns closing the returned store.
func buildPipeline(cfg *model.Config, logger *slog.Logger) (*pipeline.Pipeline, *store.Store, error) {
	st, err := store.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open evidence store: %w", err)
	}

	client, err := llm.NewClient(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	var resultCache cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			resultCache = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			resultCache = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL)
		}
	}

	p := pipeline.NewPipeline(cfg, pipeline.Deps{
		Embedder:  client,
		Retriever: st,
		Inference: client,
		Cache:     resultCache,
		Persister: st,
		Logger:    logger,
	})
	return p, st, nil
}
