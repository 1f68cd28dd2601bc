package topic

import (
	"log/slog"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/textutil"
)

// DefaultMinRelevance is the aggregate score a record needs to pass the topic gate.
const DefaultMinRelevance = 0.3

// Match is the outcome of scoring one text against every rule.
type Match struct {
	// Score is the aggregate: the per-topic sum divided by the number of topics, capped at 1.
	Score float64
	// Topics holds every topic with a nonzero score in declaration order.
	Topics   []string
	PerTopic map[string]float64
}

// Matcher scores texts against the configured interest topics.
type Matcher struct {
	rules  []Rule
	logger *slog.Logger
}

// NewMatcher compiles topics in declaration order.
func NewMatcher(topics []string, logger *slog.Logger) *Matcher {
	rules := make([]Rule, 0, len(topics))
	for _, t := range topics {
		rules = append(rules, NewRule(t))
	}
	return &Matcher{rules: rules, logger: logger}
}

// Rules exposes the compiled rules.
func (m *Matcher) Rules() []Rule {
	return m.rules
}

// Topics lists the configured topics.
func (m *Matcher) Topics() []string {
	topics := make([]string, len(m.rules))
	for i, r := range m.rules {
		topics[i] = r.Topic
	}
	return topics
}

// Score rates text. With no topics configured the score is zero and nothing matches.
func (m *Matcher) Score(text string) Match {
	match := Match{PerTopic: make(map[string]float64, len(m.rules))}
	if len(m.rules) == 0 {
		return match
	}

	lowered := textutil.Lower(text)
	total := 0.0
	for _, rule := range m.rules {
		s := rule.Score(text, lowered)
		if s <= 0 {
			continue
		}
		match.Topics = append(match.Topics, rule.Topic)
		match.PerTopic[rule.Topic] = s
		total += s
	}

	match.Score = min(total/float64(len(m.rules)), 1.0)
	return match
}

// Filter keeps the records whose aggregate score reaches minScore, tagging each with its
// matched topics and gate score. Order is preserved.
func (m *Matcher) Filter(records []domain.ScoredRecord, minScore float64) []domain.ScoredRecord {
	relevant := make([]domain.ScoredRecord, 0, len(records))
	for _, rec := range records {
		match := m.Score(rec.Text())
		if match.Score < minScore || len(m.rules) == 0 {
			continue
		}
		rec.TopicScore = match.Score
		rec.MatchedTopics = match.Topics
		relevant = append(relevant, rec)
	}

	if m.logger != nil {
		m.logger.Info("topic filter", "relevant", len(relevant), "total", len(records))
	}
	return relevant
}
