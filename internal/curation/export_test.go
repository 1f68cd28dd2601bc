package curation

import (
	"log/slog"
	"time"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/relevance"
)

// ScoreFunc lets tests replace composite scoring.
type ScoreFunc func(rec domain.ScoredRecord, corpus *relevance.Corpus) (float64, domain.ScoreBreakdown)

func (f ScoreFunc) Score(rec domain.ScoredRecord, corpus *relevance.Corpus) (float64, domain.ScoreBreakdown) {
	return f(rec, corpus)
}

func WithScoreFunc(f ScoreFunc) Option {
	return func(c *Curator) {
		c.newScorer = func([]string, Thresholds, func() time.Time, *slog.Logger) recordScorer { return f }
	}
}
