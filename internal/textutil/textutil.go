// Package textutil holds the text normalisation shared by the curation stages.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const strippedPunctuation = `.,!?;:"()[]{}`

var (
	wordExpr    = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	punctRemove = strings.NewReplacer(punctuationPairs()...)
)

func punctuationPairs() []string {
	pairs := make([]string, 0, len(strippedPunctuation)*2)
	for _, r := range strippedPunctuation {
		pairs = append(pairs, string(r), "")
	}
	return pairs
}

// Lower lower-cases s using Unicode case folding rules for an undetermined language.
// A fresh caser is used per call because cases.Caser is not safe for concurrent use.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// CollapseSpace trims s and replaces every whitespace run with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeContent prepares text for fingerprinting: lower-case, collapsed
// whitespace and the punctuation set .,!?;:"()[]{} removed.
func NormalizeContent(s string) string {
	return punctRemove.Replace(CollapseSpace(Lower(s)))
}

// Words returns the word tokens of s in order. A word is a run of letters, digits or underscores.
func Words(s string) []string {
	return wordExpr.FindAllString(s, -1)
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// WordBoundary compiles a case-insensitive matcher for word as a whole word. RE2's \b is
// ASCII-only, so the edges are spelled out as any rune that is not a letter, digit or
// underscore. The match includes those edge runes; use it with MatchString only.
func WordBoundary(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(word) + `(?:$|[^\p{L}\p{N}_])`)
}

// IsUpper reports whether s has at least one cased letter and no lower-case letters.
func IsUpper(s string) bool {
	hasUpper := false
	for _, r := range s {
		switch {
		case strings.ToLower(string(r)) != string(r):
			hasUpper = true
		case strings.ToUpper(string(r)) != string(r):
			return false
		}
	}
	return hasUpper
}
