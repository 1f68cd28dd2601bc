package relevance

import (
	"regexp"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"NewsCurator/internal/textutil"
)

var (
	techKeywords = []string{
		"new", "release", "update", "security", "performance",
		"analysis", "research", "study", "development",
	}
	codeIndicators = []string{"()", "{}", "[]", "function", "class", "def ", "import "}

	clickbaitExprs = []*regexp.Regexp{
		regexp.MustCompile(`\d+\s+(things|ways|reasons)`),
		regexp.MustCompile(`you won't believe`),
		regexp.MustCompile(`shocking`),
		regexp.MustCompile(`amazing`),
		regexp.MustCompile(`incredible`),
	}
)

// substringSet reports whether any of a fixed set of substrings occurs in a text.
// ahocorasick.Matcher keeps per-match state, so calls are serialised.
type substringSet struct {
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
}

func newSubstringSet(patterns []string) *substringSet {
	return &substringSet{matcher: ahocorasick.NewStringMatcher(patterns)}
}

func (s *substringSet) Any(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matcher.Match([]byte(text))) > 0
}

// QualityBreakdown is the content-quality component split into its two heuristics.
type QualityBreakdown struct {
	Title float64
	Body  float64
}

// Score is 0.4 title + 0.6 body.
func (q QualityBreakdown) Score() float64 {
	return 0.4*q.Title + 0.6*q.Body
}

type qualityRater struct {
	vocabulary map[string]struct{}
	tech       *substringSet
	code       *substringSet
}

func newQualityRater(vocabulary []string) *qualityRater {
	vocab := make(map[string]struct{}, len(vocabulary))
	for _, w := range vocabulary {
		vocab[w] = struct{}{}
	}
	return &qualityRater{
		vocabulary: vocab,
		tech:       newSubstringSet(techKeywords),
		code:       newSubstringSet(codeIndicators),
	}
}

func (r *qualityRater) rate(title, body string) QualityBreakdown {
	return QualityBreakdown{Title: r.title(title), Body: r.body(body)}
}

// title favours 5-15 words, rewards technical wording and penalises clickbait.
func (r *qualityRater) title(title string) float64 {
	score := 0.0
	switch n := textutil.WordCount(title); {
	case n >= 5 && n <= 15:
		score += 0.5
	case n >= 3 && n <= 20:
		score += 0.3
	default:
		score += 0.1
	}

	lowered := textutil.Lower(title)
	if r.tech.Any(lowered) {
		score += 0.1
	}
	for _, expr := range clickbaitExprs {
		if expr.MatchString(lowered) {
			score -= 0.2
			break
		}
	}
	return clamp(score)
}

// body rewards length, topic vocabulary and code-like tokens. An empty body rates 0.2.
func (r *qualityRater) body(body string) float64 {
	if strings.TrimSpace(body) == "" {
		return 0.2
	}

	tokens := strings.Fields(textutil.Lower(body))
	score := 0.0
	switch n := len(tokens); {
	case n >= 100:
		score += 0.5
	case n >= 50:
		score += 0.3
	default:
		score += 0.1
	}

	terms := 0
	for _, tok := range tokens {
		if _, ok := r.vocabulary[tok]; ok {
			terms++
		}
	}
	score += min(0.3, float64(terms)*0.05)

	if r.code.Any(body) {
		score += 0.2
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	return max(0, min(v, 1))
}
