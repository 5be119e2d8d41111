package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/globechat/internal/countrydata"
	"github.com/ppiankov/globechat/internal/llm"
	"github.com/ppiankov/globechat/internal/model"
	"github.com/ppiankov/globechat/internal/prompt"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Long: `Ask answers one question in-process and exits.

Example:
  globechat ask --country IN "What is the #1 research field?"
  globechat ask --country DE --show-prompt "Summarize the trends"
  globechat ask --check`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().String("country", "", "country code to ground the answer in")
	askCmd.Flags().String("data", "", "country dataset (default: embedded sample)")
	askCmd.Flags().String("provider", "", "generation backend: gemini, openai, anthropic, ollama")
	askCmd.Flags().String("model", "", "model name (default: provider default)")
	askCmd.Flags().Bool("show-prompt", false, "print the composed prompt instead of calling the backend")
	askCmd.Flags().Bool("check", false, "check that the backend is reachable and exit")
}

func runAsk(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, map[string]string{
		"data.path":    "data",
		"llm.provider": "provider",
		"llm.model":    "model",
	})
	if err != nil {
		return err
	}
	defer s.log.Sync()

	if check, _ := cmd.Flags().GetBool("check"); check {
		return runCheck(cmd.Context(), s)
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	var record *model.StatisticsRecord
	if code, _ := cmd.Flags().GetString("country"); code != "" {
		store, err := countrydata.Load(s.cfg.Data.Path)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		found, ok := store.Lookup(code)
		if !ok {
			return fmt.Errorf("unknown country code %q", code)
		}
		record = &found
	}

	if show, _ := cmd.Flags().GetBool("show-prompt"); show {
		fmt.Fprintln(s.printer.Out(), prompt.ComposeFor(question, record).Render())
		return nil
	}

	p, err := buildPipeline(s.cfg, s.log)
	if err != nil {
		return err
	}

	answer, err := p.Answer(cmd.Context(), question, record)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.printer.Out(), s.printer.FormatText(answer.Text))
	if verbose {
		s.printer.Info("%s/%s grounded=%t cached=%t tokens=%d in %s",
			answer.Provider, answer.Model, answer.Grounded, answer.Cached,
			answer.TokensUsed, answer.Duration.Round(time.Millisecond))
		if stats := cacheStats(p); stats != nil {
			st := stats()
			s.printer.Info("cache: %d hits, %d misses (%.0f%%)", st.Hits, st.Misses, st.HitRatio()*100)
		}
	}
	return nil
}

// runCheck probes the configured backend
func runCheck(ctx context.Context, s *session) error {
	p, err := buildPipeline(s.cfg, s.log)
	if err != nil {
		return err
	}
	provider := p.Provider()
	if provider == nil {
		return fmt.Errorf("%s: no API key configured", s.cfg.LLM.Provider)
	}

	timeout := time.Duration(s.cfg.LLM.Timeout) * time.Second
	if timeout <= 0 {
		timeout = llm.DefaultTimeout * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !provider.IsAvailable(ctx) {
		return fmt.Errorf("%s is not reachable", provider.Name())
	}
	s.printer.Info("✓ %s is available", provider.Name())
	return nil
}
