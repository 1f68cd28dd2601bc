package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
interestTopics:
  - Rust
  - machine learning
filtering:
  maxArticlesPerDay: 20
  sourceCredibility:
    myblog: 0.7
llm:
  provider: anthropic
  model: claude-3-5-haiku-latest
  endpoint: ""
  apiKeyEnv: TEST_CURATOR_KEY
  rateLimitDelay: 250ms
scheduler:
  cronExpression: "30 7 * * *"
  timezone: Europe/Berlin
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func validConfig() Config {
	cfg := Default()
	cfg.InterestTopics = []string{"Rust"}
	return cfg
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv("TEST_CURATOR_KEY", "secret")
	t.Setenv(llmModelEnv, "")
	t.Setenv(databaseDSNEnv, "")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Rust", "machine learning"}, cfg.InterestTopics)
	assert.Equal(t, 20, cfg.Filtering.MaxArticlesPerDay)
	assert.Equal(t, 0.3, cfg.Filtering.MinRelevanceScore)
	assert.Equal(t, 0.7, cfg.Filtering.SourceCredibility["myblog"])
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.LLM.RateLimitDelay)
	assert.Equal(t, 150, cfg.LLM.MaxTokens)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	assert.Len(t, cfg.Sites, 3)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(databaseDSNEnv, "postgres://env/db")
	t.Setenv(telegramTokenEnv, "token")
	t.Setenv(telegramChatIDEnv, "42")
	t.Setenv(llmModelEnv, "gpt-test")

	t.Setenv(configPathEnv, writeConfig(t, "interestTopics: [Go]\n"))
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
	assert.True(t, cfg.Notifications.Telegram.Enabled())
	assert.Equal(t, "gpt-test", cfg.LLM.Model)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "interestTopics: [\n"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "interestTopics: [Go]\nscheduler:\n  timezone: Mars/Olympus\n"))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "no topics", mutate: func(c *Config) { c.InterestTopics = nil }, want: "InterestTopics"},
		{name: "blank topic", mutate: func(c *Config) { c.InterestTopics = []string{"Rust", " "} }, want: "InterestTopics[1]"},
		{name: "threshold range", mutate: func(c *Config) { c.Filtering.MinRelevanceScore = 1.2 }, want: "MinRelevanceScore"},
		{name: "duplicate threshold", mutate: func(c *Config) { c.Filtering.DuplicateThreshold = 0 }, want: "DuplicateThreshold"},
		{name: "daily cap", mutate: func(c *Config) { c.Filtering.MaxArticlesPerDay = 0 }, want: "MaxArticlesPerDay"},
		{name: "weights sum", mutate: func(c *Config) { c.Filtering.Weights.Topic = 0.9 }, want: "sum to 1"},
		{name: "provider", mutate: func(c *Config) { c.LLM.Provider = "cohere" }, want: "Provider"},
		{name: "max tokens", mutate: func(c *Config) { c.LLM.MaxTokens = 0 }, want: "MaxTokens"},
		{name: "temperature", mutate: func(c *Config) { c.LLM.Temperature = 2.5 }, want: "Temperature"},
		{name: "no sites", mutate: func(c *Config) { c.Sites = nil }, want: "Sites"},
		{name: "storage backend", mutate: func(c *Config) { c.Storage.Backend = "s3" }, want: "Backend"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Storage.Backend = "postgres" }, want: "database.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
