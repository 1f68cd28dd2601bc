package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsCurator/internal/curation"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

// ErrNoCandidates is returned when every site failed and nothing was fetched.
var ErrNoCandidates = errors.New("no candidates fetched")

// PipelineDeps wires all driven adapters into the daily run.
type PipelineDeps struct {
	Source       ports.ArticleSource
	Fingerprints ports.FingerprintRepository
	Store        ports.ArticleStore
	Curator      *curation.Curator
	Processor    *ContentProcessor
	Notifier     ports.Notifier
	Metrics      ports.MetricsRecorder
	Topics       []string
	Thresholds   curation.Thresholds
	// Sites names the enabled sites recorded on the crawl session.
	Sites         []string
	RetentionDays int
	Logger        *slog.Logger
	Now           func() time.Time
}

// RunSummary is the outcome of one daily run.
type RunSummary struct {
	SessionID  string          `json:"session_id"`
	Day        time.Time       `json:"day"`
	Curation   curation.Stats  `json:"curation"`
	Processing ProcessingStats `json:"processing"`
	Saved      int             `json:"saved"`
	Pruned     int             `json:"pruned"`
	Notified   bool            `json:"notified"`
	Errors     []string        `json:"errors,omitempty"`
	Duration   time.Duration   `json:"duration"`
}

// Pipeline implements the daily curation workflow.
type Pipeline struct {
	deps PipelineDeps
	now  func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Curator == nil {
		deps.Curator = curation.NewCurator(curation.WithLogger(deps.Logger))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{deps: deps, now: now}
}

// ProcessDay fetches, curates, summarises, stores and announces the articles of day.
// Site and notification failures are recorded on the session and do not fail the run.
func (p *Pipeline) ProcessDay(ctx context.Context, day time.Time) (summary RunSummary, err error) {
	start := p.now()
	session := domain.NewCrawlSession(p.deps.Sites, start)
	summary = RunSummary{SessionID: session.SessionID, Day: day}
	p.info("daily run started", "session", session.SessionID, "day", day.Format(time.DateOnly))

	defer func() {
		summary.Duration = p.now().Sub(start)
		summary.Errors = session.Errors
		p.observeRun(summary.Duration, err)
	}()

	if p.deps.Source == nil {
		return summary, fmt.Errorf("article source is not configured")
	}

	candidates, fetchErr := p.deps.Source.FetchDaily(ctx, day)
	if fetchErr != nil {
		p.warn("fetch finished with errors", "error", fetchErr)
		session.AddError(p.now(), fetchErr)
		if len(candidates) == 0 {
			p.closeSession(ctx, session)
			return summary, fmt.Errorf("fetch daily: %w: %w", ErrNoCandidates, fetchErr)
		}
	}
	session.ArticlesFound = len(candidates)

	fingerprints := map[string]domain.FingerprintEntry{}
	indexLoaded := false
	if p.deps.Fingerprints != nil {
		loaded, loadErr := p.deps.Fingerprints.LoadFingerprints(ctx)
		if loadErr != nil {
			p.warn("fingerprints unavailable, starting with an empty index", "error", loadErr)
			session.AddError(p.now(), loadErr)
		} else {
			fingerprints = loaded
			indexLoaded = true
		}
	}

	selected, updated, stats, err := p.deps.Curator.Curate(candidates, fingerprints, p.deps.Topics, p.deps.Thresholds)
	if err != nil {
		session.AddError(p.now(), err)
		p.closeSession(ctx, session)
		return summary, fmt.Errorf("curate: %w", err)
	}
	summary.Curation = stats

	articles := Curated(selected)
	if p.deps.Processor != nil && len(articles) > 0 {
		articles, err = p.deps.Processor.Process(ctx, articles)
		if err != nil {
			session.AddError(p.now(), err)
			p.closeSession(ctx, session)
			return summary, fmt.Errorf("summarise: %w", err)
		}
	}
	summary.Processing = Stats(articles)

	if p.deps.Store != nil {
		merged, mergeErr := p.mergeDay(ctx, day, articles)
		if mergeErr != nil {
			session.AddError(p.now(), mergeErr)
			p.closeSession(ctx, session)
			return summary, mergeErr
		}
		if saveErr := p.deps.Store.SaveDay(ctx, day, merged); saveErr != nil {
			session.AddError(p.now(), saveErr)
			p.closeSession(ctx, session)
			return summary, fmt.Errorf("save day: %w", saveErr)
		}
		summary.Saved = len(merged)
	}

	// After a failed load the index holds only this run's URLs and must not replace the stored one.
	switch {
	case p.deps.Fingerprints == nil:
	case !indexLoaded:
		p.warn("skipping fingerprint save after failed load", "urls", len(updated))
	default:
		if saveErr := p.deps.Fingerprints.SaveFingerprints(ctx, updated); saveErr != nil {
			session.AddError(p.now(), saveErr)
			p.closeSession(ctx, session)
			return summary, fmt.Errorf("save fingerprints: %w", saveErr)
		}
		p.pruneFingerprints(ctx)
	}

	session.ArticlesProcessed = len(articles)
	p.closeSession(ctx, session)

	if p.deps.Store != nil && p.deps.RetentionDays > 0 {
		pruned, err := p.deps.Store.Cleanup(ctx, p.deps.RetentionDays, p.now())
		if err != nil {
			p.warn("retention sweep failed", "error", err)
		}
		summary.Pruned = pruned
	}

	p.observe(stats, articles, summary.Processing)

	if p.deps.Notifier != nil && len(articles) > 0 {
		if err := p.deps.Notifier.PublishDigest(ctx, buildDigestMessage(day, articles)); err != nil {
			p.warn("digest delivery failed", "error", err)
		} else {
			summary.Notified = true
		}
	}

	p.info("daily run finished",
		"session", session.SessionID,
		"found", stats.Found,
		"selected", stats.Final,
		"summarised", summary.Processing.WithSummaries,
		"saved", summary.Saved,
	)
	return summary, nil
}

// mergeDay keeps the articles already stored for day and replaces those re-selected by ID.
func (p *Pipeline) mergeDay(ctx context.Context, day time.Time, articles []domain.CuratedArticle) ([]domain.CuratedArticle, error) {
	existing, err := p.deps.Store.LoadDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load day: %w", err)
	}
	if len(existing) == 0 {
		return articles, nil
	}

	fresh := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		fresh[a.ID] = struct{}{}
	}
	merged := make([]domain.CuratedArticle, 0, len(existing)+len(articles))
	for _, a := range existing {
		if _, ok := fresh[a.ID]; !ok {
			merged = append(merged, a)
		}
	}
	return append(merged, articles...), nil
}

// pruneFingerprints drops stale URLs from repositories that never delete on save.
func (p *Pipeline) pruneFingerprints(ctx context.Context) {
	pruner, ok := p.deps.Fingerprints.(ports.FingerprintPruner)
	if !ok || p.deps.RetentionDays <= 0 {
		return
	}
	n, err := pruner.ForgetOlderThan(ctx, p.deps.RetentionDays, p.now())
	if err != nil {
		p.warn("fingerprint retention failed", "error", err)
		return
	}
	p.info("forgot stale fingerprints", "count", n)
}

func (p *Pipeline) closeSession(ctx context.Context, session *domain.CrawlSession) {
	session.Complete(p.now())
	if p.deps.Store == nil {
		return
	}
	if err := p.deps.Store.SaveSession(ctx, session); err != nil {
		p.warn("save session failed", "session", session.SessionID, "error", err)
	}
}

func (p *Pipeline) observe(stats curation.Stats, articles []domain.CuratedArticle, processing ProcessingStats) {
	m := p.deps.Metrics
	if m == nil {
		return
	}
	m.ObserveStage("found", stats.Found)
	m.ObserveStage("duplicate", stats.Duplicates)
	m.ObserveStage("topic_relevant", stats.TopicRelevant)
	m.ObserveStage("scored", stats.Scored)
	m.ObserveStage("failed", stats.Failed)
	m.ObserveStage("above_threshold", stats.AboveThreshold)
	m.ObserveStage("final", stats.Final)

	scores := make([]float64, len(articles))
	for i, a := range articles {
		scores[i] = a.RelevanceScore
	}
	m.ObserveScores(scores)
	m.ObserveSummaries(processing.WithSummaries, processing.Failed)
}

func (p *Pipeline) observeRun(duration time.Duration, err error) {
	m := p.deps.Metrics
	if m == nil {
		return
	}
	m.ObserveRun(duration, err)
	if flushErr := m.Flush(); flushErr != nil {
		p.warn("metrics flush failed", "error", flushErr)
	}
}

// buildDigestMessage lists articles in the order curation ranked them.
func buildDigestMessage(day time.Time, articles []domain.CuratedArticle) string {
	if len(articles) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "News digest for %s (%d articles)\n\n", day.Format(time.DateOnly), len(articles))
	for _, a := range articles {
		fmt.Fprintf(&sb, "- %s\nScore: %.2f\n%s\n%s\n\n", a.Title, a.RelevanceScore, a.Summary, a.URL)
	}
	return sb.String()
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.deps.Logger != nil {
		p.deps.Logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.deps.Logger != nil {
		p.deps.Logger.Warn(msg, args...)
	}
}
