package relevance

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCurator/internal/domain"
)

var fixedNow = time.Date(2025, 11, 8, 12, 0, 0, 0, time.UTC)

func newTestScorer(topics []string, opts ...Option) *Scorer {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewScorer(topics, opts...)
}

func rec(title, content, source string, discovered time.Time) domain.ScoredRecord {
	c := domain.CandidateRecord{
		Title:        title,
		URL:          "https://example.com/" + strings.ReplaceAll(title, " ", "-"),
		Source:       source,
		RawContent:   content,
		DiscoveredAt: discovered,
	}
	return domain.NewScoredRecord(c, "")
}

func advisory() domain.ScoredRecord {
	body := strings.Repeat("rust security patch notes describe memory safety fixes ", 15)
	return rec("New Rust Security Advisory Released", body, "lwn", fixedNow)
}

func TestScoreBatchAdvisoryScenario(t *testing.T) {
	t.Parallel()

	s := newTestScorer([]string{"Rust", "Security"})
	out := s.ScoreBatch([]domain.ScoredRecord{advisory()})

	require.Len(t, out, 1)
	b := out[0].Breakdown
	assert.True(t, b.CorpusUsed)
	assert.InDelta(t, 0.4, b.Topic, 1e-9)
	assert.InDelta(t, 0.144, b.Quality, 1e-9)
	assert.InDelta(t, 0.1, b.Freshness, 1e-9)
	assert.InDelta(t, 0.095, b.Source, 1e-9)
	assert.InDelta(t, 0, b.Corpus, 1e-9, "a single document has zero idf")
	assert.InDelta(t, 0.739, out[0].RelevanceScore, 1e-9)
	assert.Greater(t, out[0].RelevanceScore, 0.6)
}

func TestScoreWithoutCorpusFoldsWeightIntoTopic(t *testing.T) {
	t.Parallel()

	s := newTestScorer([]string{"Rust", "Security"})
	score, b := s.Score(advisory(), nil)

	assert.False(t, b.CorpusUsed)
	assert.InDelta(t, 0.6, b.Topic, 1e-9)
	assert.Zero(t, b.Corpus)
	assert.InDelta(t, 0.939, score, 1e-9)
}

func TestTopicRelevanceCountsWordsPerTopic(t *testing.T) {
	t.Parallel()

	s := newTestScorer([]string{"Rust", "Rust compiler", "Go"})
	assert.Equal(t, []string{"rust", "compiler", "go"}, s.Vocabulary())
	assert.InDelta(t, 0.5, s.TopicRelevance("RUST news"), 1e-9)
	assert.InDelta(t, 0.75, s.TopicRelevance("the rust compiler"), 1e-9)
	assert.Zero(t, newTestScorer(nil).TopicRelevance("rust"))
}

func TestQualityHeuristics(t *testing.T) {
	t.Parallel()

	s := newTestScorer([]string{"Rust"})

	tests := []struct {
		name  string
		title string
		body  string
		want  QualityBreakdown
	}{
		{name: "clickbait", title: "10 ways to go faster", body: "", want: QualityBreakdown{Title: 0.3, Body: 0.2}},
		{name: "short title with code", title: "Go", body: "import os", want: QualityBreakdown{Title: 0.1, Body: 0.3}},
		{name: "mid-length title", title: "A tiny release", body: "rust rust rust", want: QualityBreakdown{Title: 0.4, Body: 0.25}},
		{name: "long body", title: "Performance analysis of the new scheduler", body: strings.Repeat("word ", 60), want: QualityBreakdown{Title: 0.6, Body: 0.3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := s.Quality(tt.title, tt.body)
			assert.InDelta(t, tt.want.Title, got.Title, 1e-9)
			assert.InDelta(t, tt.want.Body, got.Body, 1e-9)
		})
	}
}

func TestFreshness(t *testing.T) {
	t.Parallel()

	s := newTestScorer(nil)
	tests := []struct {
		age  time.Duration
		want float64
	}{
		{age: 0, want: 1.0},
		{age: 24 * time.Hour, want: 1.0},
		{age: 25 * time.Hour, want: 0.8},
		{age: 72 * time.Hour, want: 0.8},
		{age: 100 * time.Hour, want: 0.6},
		{age: 500 * time.Hour, want: 0.4},
		{age: 1000 * time.Hour, want: 0.2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Freshness(fixedNow.Add(-tt.age)), tt.age.String())
	}
	assert.Equal(t, 0.5, s.Freshness(time.Time{}))
}

func TestSourceCredibility(t *testing.T) {
	t.Parallel()

	s := newTestScorer(nil)
	assert.Equal(t, 0.9, s.SourceCredibility("hackernews"))
	assert.Equal(t, 0.95, s.SourceCredibility("lwn"))
	assert.Equal(t, 0.8, s.SourceCredibility("github"))
	assert.Equal(t, 1.0, s.SourceCredibility("arxiv"))
	assert.Equal(t, 0.5, s.SourceCredibility("someblog"))

	custom := newTestScorer(nil, WithSourceCredibility(map[string]float64{"someblog": 0.7, "github": 0.6}))
	assert.Equal(t, 0.7, custom.SourceCredibility("someblog"))
	assert.Equal(t, 0.6, custom.SourceCredibility("github"))
	assert.Equal(t, 0.9, custom.SourceCredibility("hackernews"))
}

func TestScoreAlwaysWithinUnitInterval(t *testing.T) {
	t.Parallel()

	heavy := strings.Repeat("rust security () {} function ", 500)
	records := []domain.ScoredRecord{
		rec("", "", "", time.Time{}),
		rec("Rust Security", heavy, "arxiv", fixedNow),
		rec("Rust", "rust", "lwn", fixedNow.Add(time.Hour)),
		rec("You won't believe these 5 things", "", "unknown", fixedNow.AddDate(-1, 0, 0)),
	}

	weights := []Weights{DefaultWeights(), {Topic: 1}, {Corpus: 1}, {Quality: 0.5, Source: 0.5}}
	for i, w := range weights {
		for _, topics := range [][]string{nil, {"Rust", "Security"}, {"rust rust rust"}} {
			s := newTestScorer(topics, WithWeights(w))
			for _, r := range s.ScoreBatch(append([]domain.ScoredRecord(nil), records...)) {
				msg := fmt.Sprintf("weights %d topics %v title %q", i, topics, r.Title)
				assert.GreaterOrEqual(t, r.RelevanceScore, 0.0, msg)
				assert.LessOrEqual(t, r.RelevanceScore, 1.0, msg)
				assert.False(t, math.IsNaN(r.RelevanceScore), msg)
			}
			for _, r := range records {
				score, _ := s.Score(r, nil)
				assert.GreaterOrEqual(t, score, 0.0)
				assert.LessOrEqual(t, score, 1.0)
			}
		}
	}
}

func TestScoreBatchSortsDescending(t *testing.T) {
	t.Parallel()

	s := newTestScorer([]string{"Rust"})
	out := s.ScoreBatch([]domain.ScoredRecord{
		rec("Cooking pasta", "", "unknown", time.Time{}),
		advisory(),
		rec("Rust tips", "rust", "hackernews", fixedNow.AddDate(0, 0, -5)),
	})

	require.Len(t, out, 3)
	assert.Equal(t, "New Rust Security Advisory Released", out[0].Title)
	assert.Equal(t, "Cooking pasta", out[2].Title)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].RelevanceScore, out[i].RelevanceScore)
	}
}

func TestCorpusTermWeight(t *testing.T) {
	t.Parallel()

	c := NewCorpus([]domain.ScoredRecord{
		rec("", "rust rust go", "", time.Time{}),
		rec("", "go python", "", time.Time{}),
	})

	assert.Equal(t, 2, c.Documents())
	assert.Equal(t, 2, c.DocumentFrequency("go"))
	assert.InDelta(t, math.Log(2), c.IDF("rust"), 1e-12)
	assert.Zero(t, c.IDF("go"))
	assert.Zero(t, c.IDF("java"))

	assert.InDelta(t, 2.0/3*math.Log(2), c.TermWeight("rust rust go", []string{"rust"}), 1e-12)
	assert.InDelta(t, 2.0/3*math.Log(2)/2, c.TermWeight("rust rust go", []string{"rust", "go"}), 1e-12)
	assert.Zero(t, c.TermWeight("rust", nil))
	assert.Zero(t, c.TermWeight("", []string{"rust"}))
}

func TestWeightsValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultWeights().Validate())
	require.ErrorIs(t, Weights{Topic: 0.5}.Validate(), ErrWeightsSum)
	require.Error(t, Weights{Topic: 1.5, Quality: -0.5}.Validate())
}
