package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"NewsCurator/internal/config"
	"NewsCurator/internal/ports"
)

// AnthropicClient implements ports.Summarizer with the Messages API.
type AnthropicClient struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	retry       retryPolicy
	logger      *slog.Logger
}

var _ ports.Summarizer = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration. cfg.Endpoint overrides the API base URL.
// The SDK's own retries are disabled in favour of the shared retry policy.
func NewAnthropicClient(cfg config.LLMConfig, logger *slog.Logger) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: timeoutOf(cfg)}),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	return &AnthropicClient{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		retry:       newRetryPolicy(cfg.MaxRetries, cfg.RateLimitDelay, logger),
		logger:      logger,
	}
}

// GenerateSummary asks for a concise technical summary of content.
func (c *AnthropicClient) GenerateSummary(ctx context.Context, content, hint string) (string, error) {
	prompt := contextLine(hint) + `Please create a concise technical summary of this article in 2-3 sentences. Focus on:

- Key technical concepts and innovations
- Practical implications for developers/engineers
- Security, performance, or architectural insights
- Relevance to current technology trends

Article content:
` + clip(content) + `

Summary:`

	return c.retry.do(ctx, "summary", func(ctx context.Context) (string, error) {
		return c.complete(ctx, prompt, c.maxTokens)
	})
}

// GenerateWeeklySummary turns the numbered digest of a week into a sectioned trend report.
func (c *AnthropicClient) GenerateWeeklySummary(ctx context.Context, digest string) (string, error) {
	prompt := `Create a comprehensive weekly summary report from these article summaries:

` + digest + `

Please analyze and provide:
1. **Key Trends**: Major themes and patterns across articles
2. **Important Developments**: Significant announcements, releases, or breakthroughs
3. **Technical Insights**: Notable technical details, security issues, or performance improvements
4. **Future Implications**: What these developments might mean going forward

Structure your response clearly with sections. Keep it informative but concise.`

	return c.retry.do(ctx, "weekly summary", func(ctx context.Context) (string, error) {
		return c.complete(ctx, prompt, c.maxTokens*weeklyTokensFactor)
	})
}

func (c *AnthropicClient) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("anthropic: %w", ErrRateLimited)
		}
		return "", fmt.Errorf("call anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("anthropic returned no text")
	}

	if c.logger != nil {
		c.logger.Debug("anthropic completion", "model", c.model, "length", len(text))
	}
	return text, nil
}
