package summarizer

import (
	"context"
	"fmt"

	"github.com/harun/thakir/internal/config"
)

// Default models per provider
const (
	DefaultAnthropicModel = "claude-sonnet-4"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

const defaultMaxTokens = 4096

// Provider is a text completion backend
type Provider interface {
	// Complete returns the raw model text for the prompt
	Complete(ctx context.Context, request CompletionRequest) (string, error)

	// Name returns the provider name
	Name() string
}

// CompletionRequest is a single-turn prompt
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float64
}

// NewProvider creates the provider for an AI profile
func NewProvider(profile config.AIProfile) (Provider, error) {
	if profile.APIKey == "" {
		return nil, fmt.Errorf("profile %s: api key is required", profile.ID)
	}

	switch profile.Provider {
	case "anthropic":
		return NewAnthropicProvider(profile.APIKey), nil
	case "openai":
		return NewOpenAIProvider(profile.APIKey), nil
	case "gemini":
		return NewGeminiProvider(profile.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", profile.Provider)
	}
}

// DefaultModel returns the model used when a profile leaves it empty
func DefaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return DefaultAnthropicModel
	case "openai":
		return DefaultOpenAIModel
	case "gemini":
		return DefaultGeminiModel
	default:
		return ""
	}
}
