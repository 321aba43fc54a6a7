package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/worker"
)

// writeJSON renders v as indented JSON to path, or stdout for "-"
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// printOutcome renders one verdict for a human reader
func printOutcome(w io.Writer, claimText string, outcome *model.VerificationOutcome) {
	fmt.Fprintf(w, "Claim:      %s\n", claimText)
	fmt.Fprintf(w, "Verdict:    %s", outcome.Verdict)
	if outcome.FromCache {
		fmt.Fprintf(w, " (cached)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Confidence: %.2f\n", outcome.Confidence)
	fmt.Fprintf(w, "Evidence:   %d passage(s)\n", outcome.EvidenceCount)
	if outcome.IsDegraded {
		fmt.Fprintf(w, "Degraded:   %s\n", outcome.DegradationReason)
	}
	fmt.Fprintf(w, "Reasoning:  %s\n", outcome.Reasoning)
}

// batchSummary tallies a finished batch run
type batchSummary struct {
	Total     int `json:"total"`
	Verified  int `json:"verified"`
	Rejected  int `json:"rejected"`
	Degraded  int `json:"degraded"`
	FromCache int `json:"from_cache"`
}

func summarize(results []*worker.VerifyResult) batchSummary {
	s := batchSummary{Total: len(results)}
	for _, r := range results {
		if r.Error != nil {
			s.Rejected++
			continue
		}
		s.Verified++
		if r.Outcome.IsDegraded {
			s.Degraded++
		}
		if r.Outcome.FromCache {
			s.FromCache++
		}
	}
	return s
}

// batchReport is the JSON shape written for a batch run
type batchReport struct {
	Summary batchSummary       `json:"summary"`
	Results []batchReportEntry `json:"results"`
}

type batchReportEntry struct {
	ClaimID string                     `json:"claim_id"`
	Claim   string                     `json:"claim"`
	Error   string                     `json:"error,omitempty"`
	Outcome *model.VerificationOutcome `json:"outcome,omitempty"`
}

func buildBatchReport(results []*worker.VerifyResult) batchReport {
	report := batchReport{Summary: summarize(results)}
	for _, r := range results {
		entry := batchReportEntry{
			ClaimID: r.Claim.ID,
			Claim:   r.Claim.Text,
			Outcome: r.Outcome,
		}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		report.Results = append(report.Results, entry)
	}
	return report
}
