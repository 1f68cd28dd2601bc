package curation

import (
	"errors"
	"fmt"
	"strings"

	"NewsCurator/internal/dedup"
	"NewsCurator/internal/relevance"
	"NewsCurator/internal/topic"
)

// ErrInvalidConfig is returned before any work when topics or thresholds are unusable.
var ErrInvalidConfig = errors.New("invalid curation config")

// Thresholds are the tunables of one curation run.
type Thresholds struct {
	MinRelevance       float64
	DuplicateThreshold float64
	MaxPerDay          int
	Weights            relevance.Weights
	SourceCredibility  map[string]float64
}

// DefaultThresholds: min relevance 0.3, duplicate ratio 0.9, 100 per day, default weights.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRelevance:       topic.DefaultMinRelevance,
		DuplicateThreshold: dedup.DefaultThreshold,
		MaxPerDay:          100,
		Weights:            relevance.DefaultWeights(),
	}
}

// Validate rejects settings the pipeline cannot run with.
func (t Thresholds) Validate() error {
	if t.MinRelevance < 0 || t.MinRelevance > 1 {
		return fmt.Errorf("%w: min relevance %v outside [0,1]", ErrInvalidConfig, t.MinRelevance)
	}
	if t.DuplicateThreshold <= 0 || t.DuplicateThreshold > 1 {
		return fmt.Errorf("%w: duplicate threshold %v outside (0,1]", ErrInvalidConfig, t.DuplicateThreshold)
	}
	if t.MaxPerDay <= 0 {
		return fmt.Errorf("%w: max articles per day must be positive, got %d", ErrInvalidConfig, t.MaxPerDay)
	}
	if err := t.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for source, v := range t.SourceCredibility {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: credibility of %q is %v, outside [0,1]", ErrInvalidConfig, source, v)
		}
	}
	return nil
}

// ValidateTopics rejects an empty topic list and blank topics.
func ValidateTopics(topics []string) error {
	if len(topics) == 0 {
		return fmt.Errorf("%w: no interest topics", ErrInvalidConfig)
	}
	for i, t := range topics {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: interest topic %d is blank", ErrInvalidConfig, i)
		}
	}
	return nil
}
