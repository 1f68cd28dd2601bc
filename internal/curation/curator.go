// Package curation runs the selection pipeline: dedupe, topic gate, composite scoring,
// hard threshold and the daily cap.
package curation

import (
	"fmt"
	"log/slog"
	"time"

	"NewsCurator/internal/dedup"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/relevance"
	"NewsCurator/internal/topic"
)

// Failure is a record excluded because its scoring failed.
type Failure struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// Stats counts records at every stage of one run.
type Stats struct {
	Found              int                    `json:"found"`
	Duplicates         int                    `json:"duplicates"`
	DuplicatesByReason map[dedup.Reason]int   `json:"duplicates_by_reason"`
	Unique             int                    `json:"unique"`
	TopicRelevant      int                    `json:"topic_relevant"`
	Scored             int                    `json:"scored"`
	Failed             int                    `json:"failed"`
	Failures           []Failure              `json:"failures,omitempty"`
	AboveThreshold     int                    `json:"above_threshold"`
	Final              int                    `json:"final"`
	Distribution       relevance.Distribution `json:"distribution"`
	Topics             topic.Statistics       `json:"topics"`
}

// recordScorer is the composite scoring step; *relevance.Scorer implements it.
type recordScorer interface {
	Score(rec domain.ScoredRecord, corpus *relevance.Corpus) (float64, domain.ScoreBreakdown)
}

type scorerFactory func(topics []string, th Thresholds, now func() time.Time, logger *slog.Logger) recordScorer

func defaultScorer(topics []string, th Thresholds, now func() time.Time, logger *slog.Logger) recordScorer {
	return relevance.NewScorer(topics,
		relevance.WithWeights(th.Weights),
		relevance.WithSourceCredibility(th.SourceCredibility),
		relevance.WithClock(now),
		relevance.WithLogger(logger),
	)
}

// Curator runs curation batches. It holds no state between runs.
type Curator struct {
	now       func() time.Time
	logger    *slog.Logger
	newScorer scorerFactory
}

// Option customises a Curator.
type Option func(*Curator)

// WithClock overrides the time source for fingerprint timestamps and freshness.
func WithClock(now func() time.Time) Option {
	return func(c *Curator) { c.now = now }
}

// WithLogger attaches a logger; stage counts are logged at info level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Curator) { c.logger = logger }
}

// NewCurator builds a Curator.
func NewCurator(opts ...Option) *Curator {
	c := &Curator{now: time.Now, newScorer: defaultScorer}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Curate selects the day's records from candidates. fingerprints is not modified; the updated
// index is returned. The only error is ErrInvalidConfig, returned before any work is done.
func (c *Curator) Curate(
	candidates []domain.CandidateRecord,
	fingerprints map[string]domain.FingerprintEntry,
	topics []string,
	th Thresholds,
) ([]domain.ScoredRecord, map[string]domain.FingerprintEntry, Stats, error) {
	if err := ValidateTopics(topics); err != nil {
		return nil, nil, Stats{}, err
	}
	if err := th.Validate(); err != nil {
		return nil, nil, Stats{}, err
	}

	stats := Stats{Found: len(candidates), DuplicatesByReason: make(map[dedup.Reason]int)}

	store := dedup.NewStore(fingerprints)
	detector := dedup.NewDetector(th.DuplicateThreshold, dedup.WithClock(c.now), dedup.WithLogger(c.logger))
	partition := detector.Partition(candidates, store)
	stats.Unique = len(partition.Unique)
	stats.Duplicates = len(partition.Duplicates)
	for _, d := range partition.Duplicates {
		stats.DuplicatesByReason[d.Reason]++
	}

	matcher := topic.NewMatcher(topics, c.logger)
	relevant := matcher.Filter(partition.Unique, th.MinRelevance)
	stats.TopicRelevant = len(relevant)

	scored := c.score(relevant, topics, th, &stats)
	stats.Scored = len(scored)

	selected := make([]domain.ScoredRecord, 0, len(scored))
	for _, rec := range scored {
		if rec.RelevanceScore >= th.MinRelevance {
			selected = append(selected, rec)
		}
	}
	stats.AboveThreshold = len(selected)

	if len(selected) > th.MaxPerDay {
		selected = selected[:th.MaxPerDay]
	}
	stats.Final = len(selected)
	stats.Distribution = relevance.NewDistribution(relevance.Scores(selected))
	stats.Topics = matcher.Statistics(selected)

	c.info("curation finished",
		"found", stats.Found,
		"duplicates", stats.Duplicates,
		"topic_relevant", stats.TopicRelevant,
		"failed", stats.Failed,
		"final", stats.Final,
	)
	return selected, store.Snapshot(), stats, nil
}

// score computes the composite score of every gated record against a corpus built from the
// gated set, then sorts by descending score. A record whose scoring panics is excluded and
// counted as failed.
func (c *Curator) score(records []domain.ScoredRecord, topics []string, th Thresholds, stats *Stats) []domain.ScoredRecord {
	scorer := c.newScorer(topics, th, c.now, c.logger)
	corpus := relevance.NewCorpus(records)

	scored := make([]domain.ScoredRecord, 0, len(records))
	for _, rec := range records {
		if err := scoreRecord(scorer, &rec, corpus); err != nil {
			stats.Failed++
			stats.Failures = append(stats.Failures, Failure{URL: rec.URL, Message: err.Error()})
			c.warn("scoring failed", "url", rec.URL, "error", err)
			continue
		}
		scored = append(scored, rec)
	}

	relevance.SortByScore(scored)
	return scored
}

func scoreRecord(scorer recordScorer, rec *domain.ScoredRecord, corpus *relevance.Corpus) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("score record: %v", r)
		}
	}()
	rec.RelevanceScore, rec.Breakdown = scorer.Score(*rec, corpus)
	return nil
}

func (c *Curator) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Curator) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
