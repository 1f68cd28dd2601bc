// Package topic compiles interest topics into matching rules and scores text against them.
package topic

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"NewsCurator/internal/textutil"
)

var (
	separatorExpr = regexp.MustCompile(`[,;\s]+`)
	stopWords     = map[string]struct{}{
		"and": {}, "or": {}, "the": {}, "a": {}, "an": {}, "in": {},
		"on": {}, "at": {}, "for": {}, "with": {}, "by": {},
	}
)

// Rule is the compiled form of one interest topic.
type Rule struct {
	Topic    string
	Keywords []string
	Weight   float64

	phrase   string
	patterns []*regexp.Regexp
}

// NewRule derives keywords, matchers and the specificity weight from topic.
func NewRule(topic string) Rule {
	keywords := Keywords(topic)
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		patterns = append(patterns, textutil.WordBoundary(kw))
	}

	return Rule{
		Topic:    topic,
		Keywords: keywords,
		Weight:   Specificity(topic),
		phrase:   textutil.Lower(topic),
		patterns: patterns,
	}
}

// Keywords splits topic on commas, semicolons and whitespace, drops stop-words and keeps
// tokens of at least two characters unless they were written in capitals (C, R, ...).
func Keywords(topic string) []string {
	var keywords []string
	for _, token := range separatorExpr.Split(topic, -1) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		lowered := textutil.Lower(token)
		if _, stop := stopWords[lowered]; stop {
			continue
		}
		if utf8.RuneCountInString(lowered) < 2 && !textutil.IsUpper(token) {
			continue
		}
		keywords = append(keywords, lowered)
	}
	return keywords
}

// Specificity weights longer topics higher: one word 0.8, two words 1.0, more 1.2.
func Specificity(topic string) float64 {
	switch len(strings.Fields(topic)) {
	case 1:
		return 0.8
	case 2:
		return 1.0
	default:
		return 1.2
	}
}

// Score rates text against the rule. lowered must be the lower-cased text.
func (r Rule) Score(text, lowered string) float64 {
	score := 0.0

	if r.phrase != "" && strings.Contains(lowered, r.phrase) {
		score += 0.8 * r.Weight
	}

	matched := r.MatchedKeywords(text)
	if len(r.Keywords) > 0 {
		coverage := float64(matched) / float64(len(r.Keywords))
		score += coverage * 0.6 * r.Weight
	}

	if matched >= 2 {
		score += 0.2 * r.Weight
	}

	return min(score, 1.0)
}

// MatchedKeywords counts keywords present in text as whole words.
func (r Rule) MatchedKeywords(text string) int {
	matched := 0
	for _, p := range r.patterns {
		if p.MatchString(text) {
			matched++
		}
	}
	return matched
}
