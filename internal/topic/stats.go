package topic

import (
	"fmt"
	"regexp"
	"sort"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/textutil"
)

var suggestionWordExpr = regexp.MustCompile(`\b[A-Za-z]{3,}\b`)

const (
	mostCommonLimit = 10
	suggestionLimit = 20
)

// TopicCount pairs a topic with the number of records it was matched in.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// TopicCoverage is the share of records tagged with one configured topic.
type TopicCoverage struct {
	Topic    string  `json:"topic"`
	Count    int     `json:"count"`
	Coverage float64 `json:"coverage"`
}

// Statistics describes how the configured topics cover a set of tagged records.
type Statistics struct {
	TotalArticles     int             `json:"total_articles"`
	TopicsWithMatches int             `json:"topics_with_matches"`
	Coverage          []TopicCoverage `json:"topic_coverage"`
	MostCommonTopics  []TopicCount    `json:"most_common_topics"`
}

// Statistics counts matched topics across records that already went through Filter.
// Coverage follows declaration order; MostCommonTopics holds at most ten topics, ties in
// declaration order.
func (m *Matcher) Statistics(records []domain.ScoredRecord) Statistics {
	counts := make(map[string]int)
	for _, rec := range records {
		for _, t := range rec.MatchedTopics {
			counts[t]++
		}
	}

	st := Statistics{TotalArticles: len(records), TopicsWithMatches: len(counts)}
	for _, t := range m.Topics() {
		tc := TopicCoverage{Topic: t, Count: counts[t]}
		if len(records) > 0 {
			tc.Coverage = float64(tc.Count) / float64(len(records))
		}
		st.Coverage = append(st.Coverage, tc)
		if tc.Count > 0 {
			st.MostCommonTopics = append(st.MostCommonTopics, TopicCount{Topic: t, Count: tc.Count})
		}
	}

	sort.SliceStable(st.MostCommonTopics, func(i, j int) bool {
		return st.MostCommonTopics[i].Count > st.MostCommonTopics[j].Count
	})
	if len(st.MostCommonTopics) > mostCommonLimit {
		st.MostCommonTopics = st.MostCommonTopics[:mostCommonLimit]
	}
	return st
}

// SuggestTopics lists frequent words of at least three letters that no rule covers yet,
// formatted as "word (N occurrences)", most frequent first.
func (m *Matcher) SuggestTopics(records []domain.ScoredRecord, minFrequency int) []string {
	known := make(map[string]struct{})
	for _, rule := range m.rules {
		for _, kw := range rule.Keywords {
			known[kw] = struct{}{}
		}
	}

	freq := make(map[string]int)
	for _, rec := range records {
		for _, w := range suggestionWordExpr.FindAllString(textutil.Lower(rec.Text()), -1) {
			if _, ok := known[w]; ok {
				continue
			}
			if _, ok := stopWords[w]; ok {
				continue
			}
			freq[w]++
		}
	}

	words := make([]string, 0, len(freq))
	for w, n := range freq {
		if n >= minFrequency {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > suggestionLimit {
		words = words[:suggestionLimit]
	}

	out := make([]string, len(words))
	for i, w := range words {
		out[i] = fmt.Sprintf("%s (%d occurrences)", w, freq[w])
	}
	return out
}
