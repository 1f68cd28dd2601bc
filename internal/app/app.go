package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"NewsCurator/internal/config"
	"NewsCurator/internal/curation"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/infrastructure/llm"
	"NewsCurator/internal/infrastructure/metrics"
	"NewsCurator/internal/infrastructure/parser"
	"NewsCurator/internal/infrastructure/scheduler"
	"NewsCurator/internal/infrastructure/storage"
	"NewsCurator/internal/infrastructure/telegram"
	"NewsCurator/internal/logging"
	"NewsCurator/internal/ports"
	"NewsCurator/internal/relevance"
	"NewsCurator/internal/scanner"
	"NewsCurator/internal/usecase"
)

// Application wires configuration to use cases and their lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.FileStore
	db        *sql.DB
	registry  *scanner.Registry
	processor *usecase.ContentProcessor
	pipeline  *usecase.Pipeline
	reports   *usecase.ReportGenerator
	cron      *scheduler.CronScheduler
	scheduler *usecase.Scheduler
}

// Status is the snapshot printed by the stats command.
type Status struct {
	Storage     storage.Stats        `json:"storage"`
	LastSession *domain.CrawlSession `json:"last_session,omitempty"`
	Sites       []string             `json:"sites"`
	Scanners    []string             `json:"scanners"`
	NextRun     *time.Time           `json:"next_run,omitempty"`
}

// New builds every adapter named by cfg. The caller owns Close.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	component := func(name string) *slog.Logger { return baseLogger.With("component", name) }

	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := storage.NewFileStore(cfg.Storage.DataDir, cfg.Storage.BackupEnabled, component("storage"))
	if err != nil {
		return nil, fmt.Errorf("open file store: %w", err)
	}
	a.store = store

	var fingerprints ports.FingerprintRepository = store
	if cfg.Storage.Backend == "postgres" {
		db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		repo := storage.NewPostgresFingerprintRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("prepare fingerprint schema: %w", err)
		}
		a.db = db
		fingerprints = repo
	}

	fetcher := parser.NewFetcher(&http.Client{Timeout: cfg.Crawl.Timeout}, cfg.Crawl.RequestDelay)
	registry := scanner.NewRegistry(
		parser.NewArxivScanner(fetcher, component("scanner.arxiv")),
		parser.NewHackerNewsScanner(fetcher, component("scanner.hackernews")),
		parser.NewListingScanner(fetcher, component("scanner.listing")),
	)
	a.registry = registry
	source := parser.NewStrategySource(registry, cfg.Sites, component("source"))

	summarizer, err := llm.New(cfg.LLM, component("llm"))
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		baseLogger.Warn("summaries disabled", "reason", err)
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("build summarizer: %w", err)
	default:
		a.processor = usecase.NewContentProcessor(summarizer, cfg.LLM.MaxWorkers, cfg.LLM.RateLimitDelay, component("processor"))
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		tg := cfg.Notifications.Telegram
		notifier = telegram.NewNotifier(tg.Endpoint, tg.BotToken, tg.ChatID)
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:        source,
		Fingerprints:  fingerprints,
		Store:         store,
		Curator:       curation.NewCurator(curation.WithLogger(component("curation"))),
		Processor:     a.processor,
		Notifier:      notifier,
		Metrics:       metrics.NewRecorder(cfg.Metrics.TextfilePath),
		Topics:        cfg.InterestTopics,
		Thresholds:    Thresholds(cfg.Filtering),
		Sites:         source.Sites(),
		RetentionDays: cfg.Storage.RetentionDays,
		Logger:        component("pipeline"),
	})

	a.reports = usecase.NewReportGenerator(store, a.processor, cfg.Reporting.IncludeSummaries,
		cfg.Reporting.MaxArticlesPerTopic, component("reports"))

	cron, err := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), component("scheduler"))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cron = cron
	a.scheduler = usecase.NewScheduler(cron, a.pipeline, a.reports, ReportWeekday(cfg.Reporting.WeeklyDay), component("scheduler"))

	return a, nil
}

// Thresholds converts the filtering section into curation thresholds.
func Thresholds(f config.FilteringConfig) curation.Thresholds {
	return curation.Thresholds{
		MinRelevance:       f.MinRelevanceScore,
		DuplicateThreshold: f.DuplicateThreshold,
		MaxPerDay:          f.MaxArticlesPerDay,
		Weights:            relevance.Weights(f.Weights),
		SourceCredibility:  f.SourceCredibility,
	}
}

// ReportWeekday maps a configured day name to a time.Weekday; unknown names mean Sunday.
func ReportWeekday(name string) time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d
		}
	}
	return time.Sunday
}

// Crawl runs the daily pipeline once for today in the scheduler timezone.
func (a *Application) Crawl(ctx context.Context) (usecase.RunSummary, error) {
	return a.pipeline.ProcessDay(ctx, time.Now().In(a.cfg.Scheduler.Location()))
}

// Report generates the weekly report; a zero weekStart selects the current week.
func (a *Application) Report(ctx context.Context, weekStart time.Time) (domain.WeeklyReport, string, error) {
	return a.reports.Generate(ctx, weekStart)
}

// Prune removes stored files older than days.
func (a *Application) Prune(ctx context.Context, days int) (int, error) {
	return a.store.Cleanup(ctx, days, time.Now())
}

// RetryFailedSummaries reruns summaries that failed on day and stores the result.
func (a *Application) RetryFailedSummaries(ctx context.Context, day time.Time) (usecase.ProcessingStats, error) {
	if a.processor == nil {
		return usecase.ProcessingStats{}, fmt.Errorf("summaries are disabled")
	}
	articles, err := a.store.LoadDay(ctx, day)
	if err != nil {
		return usecase.ProcessingStats{}, err
	}
	articles, err = a.processor.RetryFailed(ctx, articles)
	if err != nil {
		return usecase.ProcessingStats{}, err
	}
	if err := a.store.SaveDay(ctx, day, articles); err != nil {
		return usecase.ProcessingStats{}, err
	}
	return usecase.Stats(articles), nil
}

// Status reports storage usage, the last crawl and the next scheduled run.
func (a *Application) Status(ctx context.Context) (Status, error) {
	st, err := a.store.Stats()
	if err != nil {
		return Status{}, err
	}
	last, err := a.store.LastSession(ctx)
	if err != nil {
		return Status{}, err
	}
	status := Status{Storage: st, LastSession: last, Scanners: a.registry.Names()}
	for _, site := range a.cfg.Sites {
		if !site.Disabled {
			status.Sites = append(status.Sites, site.Name)
		}
	}
	next := a.cron.NextRun(time.Now())
	status.NextRun = &next
	return status, nil
}

// Serve runs the schedule until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler running", "cron", a.cfg.Scheduler.CronExpression, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Close releases the database connection when one was opened.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
