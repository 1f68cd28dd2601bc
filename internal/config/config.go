package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWS_CURATOR_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	llmModelEnv       = "LLM_MODEL"
	logLevelEnv       = "LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting of the curator.
type Config struct {
	InterestTopics []string           `yaml:"interestTopics" validate:"min=1,dive,notblank"`
	Sites          []SiteConfig       `yaml:"sites" validate:"min=1,dive"`
	Crawl          CrawlConfig        `yaml:"crawl"`
	Filtering      FilteringConfig    `yaml:"filtering"`
	LLM            LLMConfig          `yaml:"llm"`
	Storage        StorageConfig      `yaml:"storage"`
	Database       DatabaseConfig     `yaml:"database"`
	Logging        LoggingConfig      `yaml:"logging"`
	Scheduler      SchedulerConfig    `yaml:"scheduler"`
	Reporting      ReportingConfig    `yaml:"reporting"`
	Notifications  NotificationConfig `yaml:"notifications"`
	Metrics        MetricsConfig      `yaml:"metrics"`
}

// CrawlConfig paces the HTTP fetcher shared by every scanner.
type CrawlConfig struct {
	RequestDelay time.Duration `yaml:"requestDelay" validate:"gte=0"`
	Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
}

// FilteringConfig tunes the curation pipeline.
type FilteringConfig struct {
	MinRelevanceScore  float64            `yaml:"minRelevanceScore" validate:"gte=0,lte=1"`
	MaxArticlesPerDay  int                `yaml:"maxArticlesPerDay" validate:"gt=0"`
	DuplicateThreshold float64            `yaml:"duplicateThreshold" validate:"gt=0,lte=1"`
	Weights            WeightsConfig      `yaml:"weights"`
	SourceCredibility  map[string]float64 `yaml:"sourceCredibility" validate:"dive,gte=0,lte=1"`
}

// WeightsConfig is the share of each relevance component; the values must sum to 1.
type WeightsConfig struct {
	Topic     float64 `yaml:"topic" validate:"gte=0,lte=1"`
	Quality   float64 `yaml:"quality" validate:"gte=0,lte=1"`
	Freshness float64 `yaml:"freshness" validate:"gte=0,lte=1"`
	Source    float64 `yaml:"source" validate:"gte=0,lte=1"`
	Corpus    float64 `yaml:"corpus" validate:"gte=0,lte=1"`
}

// LLMConfig describes the summarization provider.
type LLMConfig struct {
	Provider       string        `yaml:"provider" validate:"oneof=openai anthropic"`
	Model          string        `yaml:"model" validate:"required"`
	Endpoint       string        `yaml:"endpoint" validate:"omitempty,url"`
	APIKeyEnv      string        `yaml:"apiKeyEnv"`
	APIKey         string        `yaml:"-"`
	MaxTokens      int           `yaml:"maxTokens" validate:"gt=0"`
	Temperature    float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxRetries     int           `yaml:"maxRetries" validate:"gte=0"`
	RateLimitDelay time.Duration `yaml:"rateLimitDelay" validate:"gte=0"`
	MaxWorkers     int           `yaml:"maxWorkers" validate:"gt=0"`
	Timeout        time.Duration `yaml:"timeout" validate:"gte=0"`
}

// StorageConfig selects where curated data and the fingerprint index live.
type StorageConfig struct {
	Backend       string `yaml:"backend" validate:"oneof=file postgres"`
	DataDir       string `yaml:"dataDir" validate:"required"`
	BackupEnabled bool   `yaml:"backupEnabled"`
	RetentionDays int    `yaml:"retentionDays" validate:"gte=0"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig selects level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// SchedulerConfig defines when the daily crawl should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression" validate:"required"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// ReportingConfig shapes the weekly report.
type ReportingConfig struct {
	WeeklyDay           string `yaml:"weeklyDay" validate:"oneof=monday tuesday wednesday thursday friday saturday sunday"`
	IncludeSummaries    bool   `yaml:"includeSummaries"`
	MaxArticlesPerTopic int    `yaml:"maxArticlesPerTopic" validate:"gt=0"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfilePath"`
}

// SiteConfig describes a single site with its scanner strategy.
type SiteConfig struct {
	Name       string            `yaml:"name" validate:"required"`
	Scanner    string            `yaml:"scanner" validate:"required"`
	Disabled   bool              `yaml:"disabled"`
	Categories []CategoryConfig  `yaml:"categories" validate:"min=1,dive"`
	Options    map[string]string `yaml:"options"`
}

// CategoryConfig holds a concrete listing endpoint to crawl.
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url" validate:"required,url"`
}

// Load reads .env files, the YAML file at path (or $NEWS_CURATOR_CONFIG) over the defaults,
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFiles() error {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	if c.LLM.APIKeyEnv != "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalid, tz)
	}
	c.Scheduler.location = loc
	return nil
}

// Validate checks field ranges and cross-field rules. All violations are reported together.
func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	validate.RegisterStructValidation(validateWeights, WeightsConfig{})
	validate.RegisterStructValidation(validateStorage, Config{})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func validateWeights(sl validator.StructLevel) {
	w := sl.Current().Interface().(WeightsConfig)
	sum := w.Topic + w.Quality + w.Freshness + w.Source + w.Corpus
	if math.Abs(sum-1) > 1e-6 {
		sl.ReportError(w, "Weights", "Weights", "sum1", fmt.Sprintf("%.4f", sum))
	}
}

func validateStorage(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	if c.Storage.Backend == "postgres" && c.Database.DSN == "" {
		sl.ReportError(c.Database.DSN, "Database.DSN", "DSN", "required_with_postgres", "")
	}
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "notblank", "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "sum1":
		return fmt.Sprintf("%s must sum to 1, got %s", field, fe.Param())
	case "required_with_postgres":
		return "database.dsn is required for the postgres storage backend"
	default:
		return fmt.Sprintf("%s fails %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

// Default returns the built-in configuration every file is merged over.
func Default() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Filtering: FilteringConfig{
			MinRelevanceScore:  0.3,
			MaxArticlesPerDay:  100,
			DuplicateThreshold: 0.9,
			Weights:            WeightsConfig{Topic: 0.4, Quality: 0.2, Freshness: 0.1, Source: 0.1, Corpus: 0.2},
			SourceCredibility:  map[string]float64{},
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			MaxTokens:      150,
			Temperature:    0.3,
			MaxRetries:     3,
			RateLimitDelay: time.Second,
			MaxWorkers:     3,
			Timeout:        30 * time.Second,
		},
		Crawl:     CrawlConfig{RequestDelay: time.Second, Timeout: 20 * time.Second},
		Storage:   StorageConfig{Backend: "file", DataDir: "./data", BackupEnabled: true, RetentionDays: 90},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Reporting: ReportingConfig{WeeklyDay: "sunday", IncludeSummaries: true, MaxArticlesPerTopic: 10},
		Sites: []SiteConfig{
			{
				Name:       "hackernews",
				Scanner:    "hackernews",
				Categories: []CategoryConfig{{Name: "front", URL: "https://news.ycombinator.com/news"}},
				Options:    map[string]string{"maxPages": "3"},
			},
			{
				Name:       "lwn",
				Scanner:    "listing",
				Categories: []CategoryConfig{{Name: "archives", URL: "https://lwn.net/Archives/"}},
				Options:    map[string]string{"linkSelector": `a[href*="/Articles/"]`, "maxArticles": "50"},
			},
			{
				Name:       "arxiv",
				Scanner:    "arxiv",
				Categories: []CategoryConfig{{Name: "cs.AI", URL: "https://export.arxiv.org/list/cs.AI/pastweek"}},
			},
		},
	}
}
