// Package llm holds the summarization clients for the supported language model providers.
package llm

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsCurator/internal/config"
	"NewsCurator/internal/ports"
)

// Provider names a summarization backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const (
	maxPromptContent   = 3000
	weeklyTokensFactor = 3
	defaultTimeout     = 30 * time.Second
)

var (
	// ErrRateLimited marks provider responses that asked us to slow down.
	ErrRateLimited = errors.New("rate limited")
	// ErrMissingAPIKey is returned when the configured key variable is empty.
	ErrMissingAPIKey = errors.New("api key is not set")
)

// ParseProvider resolves a configured provider name.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case ProviderOpenAI, ProviderAnthropic:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported llm provider %q", name)
	}
}

// New builds the summarizer for cfg.Provider.
func New(cfg config.LLMConfig, logger *slog.Logger) (ports.Summarizer, error) {
	provider, err := ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: check %s", ErrMissingAPIKey, cfg.APIKeyEnv)
	}

	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, logger), nil
	default:
		return NewOpenAIClient(cfg, logger), nil
	}
}

func contextLine(hint string) string {
	if hint == "" {
		return ""
	}
	return "Context: " + hint + "\n\n"
}

func clip(content string) string {
	runes := []rune(content)
	if len(runes) <= maxPromptContent {
		return content
	}
	return string(runes[:maxPromptContent])
}

func timeoutOf(cfg config.LLMConfig) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return defaultTimeout
}
