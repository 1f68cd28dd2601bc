package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"NewsCurator/internal/config"
	"NewsCurator/internal/ports"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	openAISummarySystem   = "You are a technical news summarizer. Create concise, informative summaries that highlight key technical details and relevance."
	openAIWeeklySystem    = "You are a technical news analyst. Create insightful weekly summaries that identify trends and important developments."
)

// OpenAIClient implements ports.Summarizer against OpenAI-compatible chat completion APIs.
type OpenAIClient struct {
	endpoint    string
	model       string
	apiKey      string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	retry       retryPolicy
	logger      *slog.Logger
}

var _ ports.Summarizer = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration; an empty endpoint targets api.openai.com.
func NewOpenAIClient(cfg config.LLMConfig, logger *slog.Logger) *OpenAIClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	return &OpenAIClient{
		endpoint:    endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeoutOf(cfg)},
		retry:       newRetryPolicy(cfg.MaxRetries, cfg.RateLimitDelay, logger),
		logger:      logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateSummary asks for a two to three sentence summary of content.
func (c *OpenAIClient) GenerateSummary(ctx context.Context, content, hint string) (string, error) {
	prompt := contextLine(hint) + `Please summarize this technical article in 2-3 sentences, focusing on:
- Key technical points
- Practical implications
- Relevance to software development/security

Article content:
` + clip(content)

	return c.retry.do(ctx, "summary", func(ctx context.Context) (string, error) {
		return c.complete(ctx, openAISummarySystem, prompt, c.maxTokens)
	})
}

// GenerateWeeklySummary turns the numbered digest of a week into a trend report.
func (c *OpenAIClient) GenerateWeeklySummary(ctx context.Context, digest string) (string, error) {
	prompt := `Create a weekly summary report from these article summaries:

` + digest + `

Please provide:
1. Key trends and themes
2. Important developments
3. Notable releases or updates
4. Security or performance insights

Keep it concise but comprehensive.`

	return c.retry.do(ctx, "weekly summary", func(ctx context.Context) (string, error) {
		return c.complete(ctx, openAIWeeklySystem, prompt, c.maxTokens*weeklyTokensFactor)
	})
}

func (c *OpenAIClient) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("openai client misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal openai payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("openai: %w", ErrRateLimited)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if c.logger != nil {
		c.logger.Debug("openai completion", "model", c.model, "length", len(text))
	}
	return text, nil
}
