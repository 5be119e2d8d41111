package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/globechat/internal/countrydata"
	"github.com/ppiankov/globechat/internal/worker"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <questions-file>",
	Short: "Ask a file of questions about several countries in parallel",
	Long: `Batch asks every question in a file about every selected country:
- Read questions from input file (one per line, # for comments)
- Process question/country pairs with a bounded worker pool
- Pace backend calls with the configured rate limit
- Write a JSON report with one result per pair

Example:
  globechat batch questions.txt --countries US,JP,DE
  globechat batch questions.txt --countries IN --output report.json
  globechat batch questions.txt --concurrency 8 --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringSlice("countries", nil, "country codes to ask about (default: no country)")
	batchCmd.Flags().Int("concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().String("output", "", "write the JSON report to this path (default: stdout)")
	batchCmd.Flags().Duration("timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().String("data", "", "country dataset (default: embedded sample)")
	batchCmd.Flags().String("provider", "", "generation backend: gemini, openai, anthropic, ollama")
	batchCmd.Flags().Float64("rps", 0, "requests per second to the backend (default from config)")
	batchCmd.Flags().Duration("delay", 0, "pause before each backend call, per worker")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	s, err := newSession(cmd, map[string]string{
		"concurrency.workers": "concurrency",
		"data.path":           "data",
		"llm.provider":        "provider",
	})
	if err != nil {
		return err
	}
	defer s.log.Sync()

	batchTimeout, _ := cmd.Flags().GetDuration("timeout")
	codes, _ := cmd.Flags().GetStringSlice("countries")
	output, _ := cmd.Flags().GetString("output")

	store, err := countrydata.Load(s.cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	targets := make([]worker.Target, 0, len(codes))
	for _, code := range codes {
		record, ok := store.Lookup(code)
		if !ok {
			return fmt.Errorf("unknown country code %q", code)
		}
		targets = append(targets, worker.Target{Code: record.CountryCode, Record: &record})
	}

	p, err := buildPipeline(s.cfg, s.log)
	if err != nil {
		return err
	}

	workers := s.cfg.Concurrency.Workers
	limiter := worker.NewLimiter(s.cfg.RateLimit.RequestsPerSecond, s.cfg.RateLimit.Burst)
	if rps, _ := cmd.Flags().GetFloat64("rps"); rps > 0 {
		limiter.SetKeyRate(providerName(p), rps, s.cfg.RateLimit.Burst)
	}
	processor := worker.NewBatchProcessor(p, workers, limiter, providerName(p))
	if delay, _ := cmd.Flags().GetDuration("delay"); delay > 0 {
		processor.SetDelay(delay)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	s.log.Info("Starting batch",
		"file", file,
		"countries", len(targets),
		"workers", workers,
		"provider", providerName(p),
	)

	report, err := processor.ProcessFile(ctx, file, targets)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	for _, r := range report.Results {
		if r.Error != "" {
			s.printer.Error("%s %q: %s", countryLabel(r.Country), r.Question, r.Error)
		}
	}

	if err := writeReport(report, output, s); err != nil {
		return err
	}

	s.log.Info("Batch complete",
		"run_id", report.RunID,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"elapsed", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond).String(),
	)
	if stats := cacheStats(p); stats != nil {
		st := stats()
		s.log.Info("Response cache", "hits", st.Hits, "misses", st.Misses, "hit_ratio", st.HitRatio())
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d questions failed", report.Failed, len(report.Results))
	}
	return nil
}

func writeReport(report *worker.BatchReport, path string, s *session) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = s.printer.Out().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	s.printer.Info("✓ Report written to %s", path)
	return nil
}

func countryLabel(code string) string {
	if code == "" {
		return "(no country)"
	}
	return code
}
