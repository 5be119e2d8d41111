// Test program to probe every generation backend that has credentials
// This shows which providers are reachable and how each answers the same
// grounded question
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/globechat/internal/countrydata"
	"github.com/ppiankov/globechat/internal/llm"
	"github.com/ppiankov/globechat/internal/logging"
	"github.com/ppiankov/globechat/internal/pipeline"
)

func main() {
	fmt.Println("=== Provider Probe ===")
	fmt.Println()

	store, err := countrydata.Load("")
	if err != nil {
		fmt.Printf("Load sample dataset: %v\n", err)
		return
	}
	codes := store.Codes()
	if len(codes) == 0 {
		fmt.Println("Sample dataset is empty")
		return
	}
	record, _ := store.Lookup(codes[0])
	question := "What is the #1 research field?"

	for _, name := range []string{"gemini", "openai", "anthropic", "ollama"} {
		fmt.Printf("Provider: %s\n", name)
		fmt.Println(strings.Repeat("-", 60))

		cfg := llm.DefaultConfig()
		cfg.Provider = name
		if name == "ollama" {
			cfg.Model = "llama3.1:8b"
		}
		cfg.APIKey = llm.ResolveAPIKey(name, "")

		provider, err := llm.NewProvider(cfg)
		if err != nil {
			fmt.Printf("  ✗ %v\n\n", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if !provider.IsAvailable(ctx) {
			fmt.Println("  ✗ Not reachable")
			fmt.Println()
			cancel()
			continue
		}

		p := pipeline.NewPipeline(provider, logging.Nop(), 0)
		answer, err := p.Answer(ctx, question, &record)
		cancel()
		if err != nil {
			fmt.Printf("  ✗ %v\n\n", err)
			continue
		}

		fmt.Printf("  ✓ %s (%s, %d tokens)\n", answer.Model, answer.Duration.Round(time.Millisecond), answer.TokensUsed)
		fmt.Printf("    %s: %s\n", record.CountryName, answer.Text)
		fmt.Println()
	}

	fmt.Println("=== Probe Complete ===")
	fmt.Println("\nNote: keys are read from GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY")
	fmt.Println("or GLOBECHAT_LLM_API_KEY. Ollama must be running on localhost:11434.")
}
