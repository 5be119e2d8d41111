package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/globechat/internal/model"
	"github.com/ppiankov/globechat/internal/util"
)

// NewProvider creates a new LLM provider based on configuration.
// A missing API key yields a GenerationError of KindMissingCredential.
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))

	switch provider {
	case "gemini", "google", "":
		return NewGeminiProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: gemini, openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:    modelConfig.Provider,
		Model:       modelConfig.Model,
		APIKey:      ResolveAPIKey(modelConfig.Provider, modelConfig.APIKey),
		BaseURL:     modelConfig.BaseURL,
		Timeout:     modelConfig.Timeout,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		HTTPProxy:   modelConfig.HTTPProxy,
		HTTPSProxy:  modelConfig.HTTPSProxy,
	}
}

// ResolveAPIKey returns the configured key, or the provider's conventional
// environment variable, or GLOBECHAT_LLM_API_KEY.
func ResolveAPIKey(provider, configured string) string {
	if configured != "" {
		return configured
	}
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gemini", "google", "":
		return util.EnvOr("", "GEMINI_API_KEY", "GLOBECHAT_LLM_API_KEY")
	case "openai":
		return util.EnvOr("", "OPENAI_API_KEY", "GLOBECHAT_LLM_API_KEY")
	case "anthropic", "claude":
		return util.EnvOr("", "ANTHROPIC_API_KEY", "GLOBECHAT_LLM_API_KEY")
	default:
		return util.EnvOr("", "GLOBECHAT_LLM_API_KEY")
	}
}
