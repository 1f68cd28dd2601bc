package relevance

import (
	"log/slog"
	"regexp"
	"sort"
	"time"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/textutil"
)

// Scorer combines topic relevance, content quality, freshness, source credibility and
// corpus term weighting into one score in [0,1].
type Scorer struct {
	vocabulary  []string
	topicWords  []*regexp.Regexp
	quality     *qualityRater
	weights     Weights
	credibility map[string]float64
	now         func() time.Time
	logger      *slog.Logger
}

// Option customises a Scorer.
type Option func(*Scorer)

// WithWeights replaces the default component weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) { s.weights = w }
}

// WithSourceCredibility overrides entries of the default credibility table.
func WithSourceCredibility(table map[string]float64) Option {
	return func(s *Scorer) {
		for source, v := range table {
			s.credibility[source] = v
		}
	}
}

// WithClock overrides the time source used for freshness.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// WithLogger attaches a logger for per-record breakdowns.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) { s.logger = logger }
}

// NewScorer builds the topic vocabulary from topics. A topic word is any run of letters,
// digits or underscores in the lower-cased topic; words repeated across topics count once
// in the vocabulary but once per topic for topic relevance.
func NewScorer(topics []string, opts ...Option) *Scorer {
	s := &Scorer{
		weights:     DefaultWeights(),
		credibility: DefaultSourceCredibility(),
		now:         time.Now,
	}

	seen := make(map[string]struct{})
	for _, t := range topics {
		for _, w := range textutil.Words(textutil.Lower(t)) {
			s.topicWords = append(s.topicWords, textutil.WordBoundary(w))
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			s.vocabulary = append(s.vocabulary, w)
		}
	}
	s.quality = newQualityRater(s.vocabulary)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Vocabulary lists the distinct topic words in first-seen order.
func (s *Scorer) Vocabulary() []string {
	return append([]string(nil), s.vocabulary...)
}

// Score computes the composite score of rec. A nil corpus means ad-hoc scoring: the corpus
// weight is then added to the topic weight.
func (s *Scorer) Score(rec domain.ScoredRecord, corpus *Corpus) (float64, domain.ScoreBreakdown) {
	text := rec.Text()
	topic := s.TopicRelevance(text)

	b := domain.ScoreBreakdown{
		Quality:   s.Quality(rec.Title, rec.RawContent).Score() * s.weights.Quality,
		Freshness: s.Freshness(rec.DiscoveredAt) * s.weights.Freshness,
		Source:    s.SourceCredibility(rec.Source) * s.weights.Source,
	}
	if corpus != nil {
		b.Topic = topic * s.weights.Topic
		b.Corpus = corpus.TermWeight(text, s.vocabulary) * s.weights.Corpus
		b.CorpusUsed = true
	} else {
		b.Topic = topic * (s.weights.Topic + s.weights.Corpus)
	}

	score := clamp(b.Total())
	s.debug("scored record", "url", rec.URL, "score", score, "breakdown", b)
	return score, b
}

// ScoreBatch scores every record against a corpus built from the batch and sorts the slice
// in place by descending score. Ties keep their input order.
func (s *Scorer) ScoreBatch(records []domain.ScoredRecord) []domain.ScoredRecord {
	corpus := NewCorpus(records)
	for i := range records {
		records[i].RelevanceScore, records[i].Breakdown = s.Score(records[i], corpus)
	}
	SortByScore(records)

	if s.logger != nil && len(records) > 0 {
		s.logger.Info("scored batch", "count", len(records), "top_score", records[0].RelevanceScore)
	}
	return records
}

// TopicRelevance is the share of topic words, counted per topic, that occur as whole words in text.
func (s *Scorer) TopicRelevance(text string) float64 {
	if len(s.topicWords) == 0 {
		return 0
	}
	lowered := textutil.Lower(text)
	matched := 0
	for _, p := range s.topicWords {
		if p.MatchString(lowered) {
			matched++
		}
	}
	return float64(matched) / float64(len(s.topicWords))
}

// Quality rates the title and the body.
func (s *Scorer) Quality(title, body string) QualityBreakdown {
	return s.quality.rate(title, body)
}

// Freshness decays with the age since discovery. A zero time rates 0.5.
func (s *Scorer) Freshness(discovered time.Time) float64 {
	if discovered.IsZero() {
		return 0.5
	}
	switch age := s.now().Sub(discovered).Hours(); {
	case age <= 24:
		return 1.0
	case age <= 72:
		return 0.8
	case age <= 168:
		return 0.6
	case age <= 720:
		return 0.4
	default:
		return 0.2
	}
}

// SourceCredibility looks source up in the credibility table.
func (s *Scorer) SourceCredibility(source string) float64 {
	if v, ok := s.credibility[source]; ok {
		return v
	}
	return UnknownSourceCredibility
}

// SortByScore orders records by descending relevance score, keeping ties stable.
func SortByScore(records []domain.ScoredRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RelevanceScore > records[j].RelevanceScore
	})
}

func (s *Scorer) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
