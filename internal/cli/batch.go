package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimlens/claimlens/internal/worker"
)

var (
	batchConcurrency int
	batchTimeout     time.Duration
	batchJSON        string
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple claims from a file in parallel",
	Long: `Batch reads claims from a file (one per line, # starts a comment),
verifies them concurrently with a bounded worker pool and writes one
report covering all of them. Duplicate lines are verified once.

Example:
  claimlens batch claims.txt
  claimlens batch claims.txt --concurrency 8 --json report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch run")
	batchCmd.Flags().StringVar(&batchJSON, "json", "report.json", "output JSON path ('-' for stdout)")

	batchCmd.Flags().StringVar(&verifyStrategy, "strategy", "", "aggregation strategy")
	batchCmd.Flags().BoolVar(&verifyNoCache, "no-cache", false, "bypass the verification result cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := verifyOptions(cfg)
	if err != nil {
		return err
	}

	workers := batchConcurrency
	if workers <= 0 {
		workers = cfg.Concurrency.BatchWorkers
	}

	logger := newLogger()
	p, st, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	verifier := worker.NewBatchVerifier(p, opts, workers)
	results, err := verifier.ProcessFile(ctx, file)
	if err != nil {
		return err
	}

	summary := summarize(results)
	fmt.Fprintf(os.Stderr, "Claims:    %d\n", summary.Total)
	fmt.Fprintf(os.Stderr, "Verified:  %d\n", summary.Verified)
	fmt.Fprintf(os.Stderr, "Rejected:  %d\n", summary.Rejected)
	fmt.Fprintf(os.Stderr, "Degraded:  %d\n", summary.Degraded)
	fmt.Fprintf(os.Stderr, "Cached:    %d\n", summary.FromCache)

	if err := writeJSON(batchJSON, buildBatchReport(results)); err != nil {
		return err
	}
	if batchJSON != "-" {
		fmt.Fprintf(os.Stderr, "Report written: %s\n", batchJSON)
	}
	return nil
}
