package ports

import (
	"context"
	"time"

	"NewsCurator/internal/domain"
)

// ArticleSource pulls the day's candidate records from upstream sites. A non-nil error may
// accompany partial results when only some sites failed.
type ArticleSource interface {
	FetchDaily(ctx context.Context, day time.Time) ([]domain.CandidateRecord, error)
}

// FingerprintRepository persists the URL index used for cross-run duplicate detection.
type FingerprintRepository interface {
	LoadFingerprints(ctx context.Context) (map[string]domain.FingerprintEntry, error)
	SaveFingerprints(ctx context.Context, entries map[string]domain.FingerprintEntry) error
}

// FingerprintPruner is implemented by repositories whose save never deletes, so stale URLs
// are dropped explicitly.
type FingerprintPruner interface {
	ForgetOlderThan(ctx context.Context, days int, now time.Time) (int, error)
}

// ArticleStore keeps curated days, crawl sessions and weekly reports.
type ArticleStore interface {
	SaveDay(ctx context.Context, day time.Time, articles []domain.CuratedArticle) error
	LoadDay(ctx context.Context, day time.Time) ([]domain.CuratedArticle, error)
	LoadRange(ctx context.Context, from, to time.Time) ([]domain.CuratedArticle, error)
	SaveSession(ctx context.Context, session *domain.CrawlSession) error
	LastSession(ctx context.Context) (*domain.CrawlSession, error)
	SaveReport(ctx context.Context, report domain.WeeklyReport, markdown string) error
	Cleanup(ctx context.Context, retentionDays int, now time.Time) (int, error)
}

// Summarizer generates natural-language summaries through a language model.
type Summarizer interface {
	GenerateSummary(ctx context.Context, content, hint string) (string, error)
	GenerateWeeklySummary(ctx context.Context, digest string) (string, error)
}

// Notifier streams selected digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// MetricsRecorder observes pipeline runs.
type MetricsRecorder interface {
	ObserveStage(stage string, count int)
	ObserveScores(scores []float64)
	ObserveSummaries(succeeded, failed int)
	ObserveRun(duration time.Duration, err error)
	Flush() error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
