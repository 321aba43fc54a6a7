package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimlens/claimlens/internal/ingest"
	"github.com/claimlens/claimlens/internal/llm"
	"github.com/claimlens/claimlens/internal/store"
)

var ingestTimeout time.Duration

var ingestCmd = &cobra.Command{
	Use:   "ingest <url-or-file>...",
	Short: "Add documents to the evidence corpus",
	Long: `Ingest fetches documents, splits them into passages, embeds each
passage and indexes it in the evidence store. Arguments starting with
http:// or https:// are fetched over the network (honoring robots.txt
and a per-host rate limit); anything else is read as a local plain-text
file.

Example:
  claimlens ingest https://en.wikipedia.org/wiki/Coral_reef
  claimlens ingest notes.txt facts.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "total ingestion timeout")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger()

	st, err := store.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open evidence store: %w", err)
	}
	defer func() { _ = st.Close() }()

	client, err := llm.NewClient(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return err
	}

	fetcher := ingest.NewFetcher(cfg.Ingest)
	ingester := ingest.NewIngester(fetcher, client, st, cfg.Ingest.MinPassageWords, logger)

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	total := 0
	failed := 0
	for _, arg := range args {
		var n int
		var ingestErr error
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			n, ingestErr = ingester.IngestURL(ctx, arg)
		} else {
			n, ingestErr = ingester.IngestFile(ctx, arg)
		}
		if ingestErr != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Failed: %s: %v\n", arg, ingestErr)
			continue
		}
		total += n
		fmt.Fprintf(os.Stderr, "Ingested %s: %d passage(s)\n", arg, n)
	}

	count, err := st.CountPassages(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nIndexed %d new passage(s); corpus now holds %d.\n", total, count)

	if failed == len(args) {
		return fmt.Errorf("all %d source(s) failed", failed)
	}
	return nil
}
