// Package relevance computes the composite relevance score of curated records.
package relevance

import (
	"errors"
	"fmt"
	"math"
)

// Weights is the share of each component in the composite score. They must sum to 1.
type Weights struct {
	Topic     float64 `yaml:"topic" json:"topic" validate:"gte=0,lte=1"`
	Quality   float64 `yaml:"quality" json:"quality" validate:"gte=0,lte=1"`
	Freshness float64 `yaml:"freshness" json:"freshness" validate:"gte=0,lte=1"`
	Source    float64 `yaml:"source" json:"source" validate:"gte=0,lte=1"`
	Corpus    float64 `yaml:"corpus" json:"corpus" validate:"gte=0,lte=1"`
}

// DefaultWeights: topic 0.4, quality 0.2, freshness 0.1, source 0.1, corpus 0.2.
func DefaultWeights() Weights {
	return Weights{Topic: 0.4, Quality: 0.2, Freshness: 0.1, Source: 0.1, Corpus: 0.2}
}

// ErrWeightsSum is returned when the weights do not add up to 1.
var ErrWeightsSum = errors.New("relevance weights must sum to 1")

const weightTolerance = 1e-6

// Sum adds all weights.
func (w Weights) Sum() float64 {
	return w.Topic + w.Quality + w.Freshness + w.Source + w.Corpus
}

// Validate checks every weight is within [0,1] and that they sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"topic": w.Topic, "quality": w.Quality, "freshness": w.Freshness,
		"source": w.Source, "corpus": w.Corpus,
	} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("weight %s=%v out of range [0,1]", name, v)
		}
	}
	if math.Abs(w.Sum()-1) > weightTolerance {
		return fmt.Errorf("%w: got %.4f", ErrWeightsSum, w.Sum())
	}
	return nil
}

// DefaultSourceCredibility is the static credibility table keyed by source tag.
func DefaultSourceCredibility() map[string]float64 {
	return map[string]float64{
		"hackernews": 0.9,
		"lwn":        0.95,
		"github":     0.8,
		"arxiv":      1.0,
		"unknown":    0.5,
	}
}

// UnknownSourceCredibility applies to sources missing from the table.
const UnknownSourceCredibility = 0.5
