package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"NewsCurator/internal/domain"
)

func TestNewDistribution(t *testing.T) {
	t.Parallel()

	d := NewDistribution([]float64{0.9, 0.5, 0.1, 0.8})

	assert.Equal(t, 4, d.Count)
	assert.InDelta(t, 0.575, d.Mean, 1e-9)
	assert.Equal(t, 0.1, d.Min)
	assert.Equal(t, 0.9, d.Max)
	assert.Equal(t, 0.8, d.Median)
	assert.Equal(t, 2, d.High)
	assert.Equal(t, 1, d.Medium)
	assert.Equal(t, 1, d.Low)

	assert.Equal(t, Distribution{}, NewDistribution(nil))
}

func TestSuggestThreshold(t *testing.T) {
	t.Parallel()

	scores := []float64{0.2, 0.9, 0.5, 0.1, 0.8}
	assert.Equal(t, 0.9, SuggestThreshold(scores, 1))
	assert.Equal(t, 0.8, SuggestThreshold(scores, 2))
	assert.Equal(t, 0.2, SuggestThreshold(scores, 4))
	assert.Zero(t, SuggestThreshold(scores, 5))
	assert.Zero(t, SuggestThreshold(scores, 50))
	assert.Equal(t, []float64{0.2, 0.9, 0.5, 0.1, 0.8}, scores)
}

func TestTopN(t *testing.T) {
	t.Parallel()

	records := []domain.ScoredRecord{
		{RelevanceScore: 0.3, ID: "a"},
		{RelevanceScore: 0.9, ID: "b"},
		{RelevanceScore: 0.6, ID: "c"},
	}

	top := TopN(records, 2)
	assert.Equal(t, []string{"b", "c"}, []string{top[0].ID, top[1].ID})
	assert.Equal(t, "a", records[0].ID)
	assert.Len(t, TopN(records, 10), 3)
}
