package relevance

import (
	"math"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/textutil"
)

// Corpus holds batch-scoped document frequencies. Build one per batch and drop it afterwards.
type Corpus struct {
	docs int
	df   map[string]int
}

// NewCorpus counts, for every distinct word, the records whose title and content contain it.
func NewCorpus(records []domain.ScoredRecord) *Corpus {
	c := &Corpus{docs: len(records), df: make(map[string]int)}
	for _, rec := range records {
		seen := make(map[string]struct{})
		for _, w := range textutil.Words(textutil.Lower(rec.Text())) {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			c.df[w]++
		}
	}
	return c
}

// Documents is the number of records in the batch.
func (c *Corpus) Documents() int {
	return c.docs
}

// DocumentFrequency is the number of records containing word.
func (c *Corpus) DocumentFrequency(word string) int {
	return c.df[word]
}

// IDF is ln(N/df), zero for words outside the corpus.
func (c *Corpus) IDF(word string) float64 {
	df := c.df[word]
	if df == 0 || c.docs == 0 {
		return 0
	}
	return math.Log(float64(c.docs) / float64(df))
}

// TermWeight sums tf*idf over the vocabulary words present in text, divided by the
// vocabulary size and capped at 1.
func (c *Corpus) TermWeight(text string, vocabulary []string) float64 {
	if len(vocabulary) == 0 {
		return 0
	}
	words := textutil.Words(textutil.Lower(text))
	if len(words) == 0 {
		return 0
	}

	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}

	total := 0.0
	for _, v := range vocabulary {
		n := counts[v]
		if n == 0 {
			continue
		}
		tf := float64(n) / float64(len(words))
		total += tf * c.IDF(v)
	}
	return min(total/float64(len(vocabulary)), 1.0)
}
