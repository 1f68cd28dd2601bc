package relevance

import (
	"sort"

	"NewsCurator/internal/domain"
)

// Score bucket boundaries used by Distribution.
const (
	HighRelevance   = 0.7
	MediumRelevance = 0.3
)

// Distribution summarises a set of scores.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	High   int     `json:"high_relevance_count"`
	Medium int     `json:"medium_relevance_count"`
	Low    int     `json:"low_relevance_count"`
}

// Scores extracts the relevance scores of records.
func Scores(records []domain.ScoredRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.RelevanceScore
	}
	return out
}

// TopN returns the n highest scoring records without modifying records.
func TopN(records []domain.ScoredRecord, n int) []domain.ScoredRecord {
	sorted := append([]domain.ScoredRecord(nil), records...)
	SortByScore(sorted)
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// NewDistribution describes scores. The median is the element at n/2 of the ascending order.
// An empty input yields the zero Distribution.
func NewDistribution(scores []float64) Distribution {
	if len(scores) == 0 {
		return Distribution{}
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	d := Distribution{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: sorted[len(sorted)/2],
	}
	sum := 0.0
	for _, s := range sorted {
		sum += s
		switch {
		case s >= HighRelevance:
			d.High++
		case s >= MediumRelevance:
			d.Medium++
		default:
			d.Low++
		}
	}
	d.Mean = sum / float64(len(sorted))
	return d
}

// SuggestThreshold returns the k-th largest score, the cut-off that keeps about k records.
// With k or fewer scores there is nothing to cut and it returns 0.
func SuggestThreshold(scores []float64, k int) float64 {
	if k <= 0 || len(scores) <= k {
		return 0
	}
	sorted := append([]float64(nil), scores...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return sorted[k-1]
}
