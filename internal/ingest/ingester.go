package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/claimlens/claimlens/internal/store"
)

// Embedder turns passage text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Indexer stores embedded passages
type Indexer interface {
	AddPassage(ctx context.Context, p store.Passage, vector []float32) error
}

// Fetch retrieves remote documents; satisfied by *Fetcher
type Fetch interface {
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)
}

// Ingester pipes documents through fetch, passage extraction,
// embedding and indexing.
type Ingester struct {
	fetcher  Fetch
	embedder Embedder
	index    Indexer
	minWords int
	logger   *slog.Logger
}

// NewIngester wires an ingester from its collaborators
func NewIngester(fetcher Fetch, embedder Embedder, index Indexer, minWords int, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	if minWords < 1 {
		minWords = 1
	}
	return &Ingester{
		fetcher:  fetcher,
		embedder: embedder,
		index:    index,
		minWords: minWords,
		logger:   logger,
	}
}

// IngestURL fetches one document and indexes its passages. It returns
// the number of passages indexed. A passage that fails to embed is
// skipped and logged; the rest of the document still goes in.
func (g *Ingester) IngestURL(ctx context.Context, rawURL string) (int, error) {
	result, err := g.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	var passages []string
	if strings.Contains(result.ContentType, "text/html") {
		passages, err = ExtractPassages(result.Body, g.minWords)
		if err != nil {
			return 0, fmt.Errorf("extract passages: %w", err)
		}
	} else {
		passages = SplitPlainText(result.Body, g.minWords)
	}

	return g.indexPassages(ctx, passages, result.FinalURL)
}

// IngestFile indexes the passages of a local plain-text file
func (g *Ingester) IngestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	passages := SplitPlainText(string(data), g.minWords)
	return g.indexPassages(ctx, passages, "file://"+path)
}

func (g *Ingester) indexPassages(ctx context.Context, passages []string, source string) (int, error) {
	indexed := 0
	for _, passage := range passages {
		vector, err := g.embedder.Embed(ctx, passage)
		if err != nil {
			if ctx.Err() != nil {
				return indexed, ctx.Err()
			}
			g.logger.Warn("passage embedding failed, skipping", "source", source, "error", err)
			continue
		}

		p := store.Passage{
			ID:      passageID(source, passage),
			Content: passage,
			Source:  source,
		}
		if err := g.index.AddPassage(ctx, p, vector); err != nil {
			return indexed, fmt.Errorf("index passage: %w", err)
		}
		indexed++
	}

	g.logger.Info("document ingested", "source", source, "passages", indexed, "candidates", len(passages))
	return indexed, nil
}

// passageID derives a stable ID from source and content so re-ingesting
// the same document updates rather than duplicates.
func passageID(source, content string) string {
	sum := sha256.Sum256([]byte(source + "\x00" + content))
	return hex.EncodeToString(sum[:12])
}
