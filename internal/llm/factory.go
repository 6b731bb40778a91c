package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/plantcare/internal/config"
)

// Factory builds a Client for one call. Settings are re-read before every
// remote call, so clients are not cached.
type Factory func(ctx context.Context, cfg config.LLMConfig) (Client, error)

func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	provider := strings.ToLower(cfg.Provider)
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = config.DefaultMaxTokens
	}

	switch provider {
	case "", "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, openAIBaseURL(cfg.BaseURL), cfg.MaxTokens), nil

	case "ollama":
		// Ollama serves the OpenAI-compatible API under /v1 and ignores the key.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, cfg.Model, openAIBaseURL(cfg.BaseURL), cfg.MaxTokens), nil

	case "claude", "anthropic":
		return NewClaudeClient(cfg.APIKey, cfg.Model, anthropicBaseURL(cfg.BaseURL), cfg.MaxTokens), nil

	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens)

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// openAIBaseURL turns a host root such as "https://api.openai.com/" into the
// versioned base the SDK expects. The Anthropic SDK uses the same layout.
func openAIBaseURL(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base
}
