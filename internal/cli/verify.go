package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimlens/claimlens/internal/aggregate"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/pipeline"
)

var (
	verifyStrategy string
	verifyTopK     int
	verifyMinSim   float64
	verifyNoCache  bool
	verifyTimeout  time.Duration
	verifyJSON     string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Verify a single claim against the evidence corpus",
	Long: `Verify runs one claim through the full pipeline: validation, cache
lookup, embedding, evidence retrieval, inference and aggregation.

Example:
  claimlens verify "The Earth orbits the Sun once every year."
  claimlens verify "Sharks are mammals" --strategy strict_consensus
  claimlens verify "Honey never spoils" --json verdict.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyStrategy, "strategy", "", "aggregation strategy (weighted_vote, majority_vote, confidence_threshold, strict_consensus)")
	verifyCmd.Flags().IntVar(&verifyTopK, "top-k", 0, "max evidence passages to retrieve (default from config)")
	verifyCmd.Flags().Float64Var(&verifyMinSim, "min-similarity", 0, "similarity threshold for retrieved evidence (default from config)")
	verifyCmd.Flags().BoolVar(&verifyNoCache, "no-cache", false, "bypass the verification result cache")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 2*time.Minute, "overall verification timeout")
	verifyCmd.Flags().StringVar(&verifyJSON, "json", "", "write the outcome as JSON to this path ('-' for stdout)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	claimText := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := verifyOptions(cfg)
	if err != nil {
		return err
	}

	logger := newLogger()
	p, st, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	claim := model.Claim{ID: "claim-001", Text: claimText}
	outcome, err := p.Verify(ctx, claim, opts)
	if err != nil {
		var inputErr *pipeline.InputError
		if errors.As(err, &inputErr) {
			return fmt.Errorf("claim rejected (%s): %s", inputErr.Code, inputErr.Message)
		}
		return err
	}

	printOutcome(os.Stdout, claimText, outcome)

	if verifyJSON != "" {
		if err := writeJSON(verifyJSON, outcome); err != nil {
			return err
		}
		if verifyJSON != "-" {
			fmt.Fprintf(os.Stderr, "Report written: %s\n", verifyJSON)
		}
	}
	return nil
}

// verifyOptions folds CLI flags over pipeline defaults
func verifyOptions(cfg *model.Config) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions(cfg.Pipeline)

	if verifyStrategy != "" {
		strategy, err := aggregate.ParseStrategy(verifyStrategy)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Strategy = strategy
	}
	if verifyTopK > 0 {
		opts.TopKEvidence = verifyTopK
	}
	if verifyMinSim > 0 {
		opts.MinSimilarity = verifyMinSim
	}
	if verifyNoCache {
		opts.UseCache = false
	}
	return opts, nil
}
