// Package store provides the SQLite-backed evidence index and outcome
// persistence. Passages are stored with their embedding vectors;
// retrieval is a cosine-similarity scan over the corpus, which keeps the
// index dependency-free and is comfortably fast at local corpus sizes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/claimlens/claimlens/internal/model"
)

// Store manages the evidence corpus database
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the evidence database at path and creates
// the schema if it does not exist.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS passages (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			source TEXT,
			embedding TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			claim_id TEXT NOT NULL,
			verdict TEXT NOT NULL,
			confidence REAL NOT NULL,
			evidence_count INTEGER NOT NULL,
			is_degraded INTEGER NOT NULL,
			degradation_reason TEXT,
			verified_at TEXT NOT NULL,
			outcome_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_claim ON outcomes(claim_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Passage is one indexed evidence passage
type Passage struct {
	ID      string
	Content string
	Source  string
}

// AddPassage indexes a passage with its embedding vector. Re-adding an
// existing ID replaces the stored row.
func (s *Store) AddPassage(ctx context.Context, p Passage, vector []float32) error {
	embedding, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO passages (id, content, source, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Content, p.Source, string(embedding), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert passage: %w", err)
	}
	return nil
}

// CountPassages returns the number of indexed passages
func (s *Store) CountPassages(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count passages: %w", err)
	}
	return n, nil
}

// SearchEvidence returns the topK passages most similar to the query
// vector, filtered to similarity >= minSimilarity and ordered by
// similarity descending (passage ID breaks exact ties, so results are
// deterministic for a fixed corpus).
func (s *Store) SearchEvidence(ctx context.Context, vector []float32, topK int, minSimilarity float64) ([]model.EvidenceItem, error) {
	if topK <= 0 {
		topK = 10
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, content, source, embedding FROM passages`)
	if err != nil {
		return nil, fmt.Errorf("query passages: %w", err)
	}
	defer rows.Close()

	var items []model.EvidenceItem
	for rows.Next() {
		var (
			id, content, embedding string
			source                 sql.NullString
		)
		if err := rows.Scan(&id, &content, &source, &embedding); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}

		var stored []float32
		if err := json.Unmarshal([]byte(embedding), &stored); err != nil {
			continue // Skip rows with unreadable vectors
		}

		sim := CosineSimilarity(vector, stored)
		if sim < minSimilarity {
			continue
		}

		items = append(items, model.EvidenceItem{
			ID:              id,
			Content:         content,
			Source:          source.String,
			SimilarityScore: sim,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passages: %w", err)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].SimilarityScore != items[j].SimilarityScore {
			return items[i].SimilarityScore > items[j].SimilarityScore
		}
		return items[i].ID < items[j].ID
	})

	if len(items) > topK {
		items = items[:topK]
	}
	if items == nil {
		items = []model.EvidenceItem{}
	}
	return items, nil
}

// Persist records a verification outcome. Callers treat this as
// fire-and-forget: a persistence failure never changes the verdict.
func (s *Store) Persist(ctx context.Context, outcome *model.VerificationOutcome) error {
	full, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	degraded := 0
	if outcome.IsDegraded {
		degraded = 1
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO outcomes (claim_id, verdict, confidence, evidence_count, is_degraded, degradation_reason, verified_at, outcome_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.ClaimID, string(outcome.Verdict), outcome.Confidence, outcome.EvidenceCount,
		degraded, outcome.DegradationReason, outcome.VerifiedAt.UTC().Format(time.RFC3339), string(full))
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Outcomes returns the persisted outcomes for a claim, newest first
func (s *Store) Outcomes(ctx context.Context, claimID string) ([]model.VerificationOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome_json FROM outcomes WHERE claim_id = ? ORDER BY verified_at DESC`, claimID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []model.VerificationOutcome
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		var o model.VerificationOutcome
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, fmt.Errorf("unmarshal outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
