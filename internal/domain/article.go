package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// CandidateRecord is an article as delivered by the acquisition layer.
// DiscoveredAt is zero when the source timestamp could not be parsed.
type CandidateRecord struct {
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	RawContent   string    `json:"raw_content,omitempty"`
	DiscoveredAt time.Time `json:"discovered_date"`
}

// ScoreBreakdown keeps the weighted contribution of every relevance component.
type ScoreBreakdown struct {
	Topic     float64 `json:"topic"`
	Quality   float64 `json:"quality"`
	Freshness float64 `json:"freshness"`
	Source    float64 `json:"source"`
	Corpus    float64 `json:"corpus"`
	// CorpusUsed is false when the corpus weight was folded into Topic.
	CorpusUsed bool `json:"corpus_used"`
}

// Total sums the weighted components without clamping.
func (b ScoreBreakdown) Total() float64 {
	return b.Topic + b.Quality + b.Freshness + b.Source + b.Corpus
}

// ScoredRecord is a unique candidate enriched by the curation stages.
type ScoredRecord struct {
	CandidateRecord
	ID                 string         `json:"id"`
	ContentFingerprint string         `json:"content_hash"`
	TopicScore         float64        `json:"topic_score"`
	RelevanceScore     float64        `json:"relevance_score"`
	MatchedTopics      []string       `json:"related_topics"`
	Breakdown          ScoreBreakdown `json:"breakdown"`
}

// NewScoredRecord derives the identity fields of a candidate.
func NewScoredRecord(c CandidateRecord, fingerprint string) ScoredRecord {
	return ScoredRecord{
		CandidateRecord:    c,
		ID:                 RecordID(c.URL),
		ContentFingerprint: fingerprint,
	}
}

// RecordID is the first 16 hex characters of the SHA-256 of the URL.
func RecordID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}

// Text is the title and the raw content joined by a space, the unit every matcher reads.
func (c CandidateRecord) Text() string {
	return c.Title + " " + c.RawContent
}

// CuratedArticle is a selected record after summarization, the unit persisted per day.
type CuratedArticle struct {
	ScoredRecord
	Summary     string    `json:"summary"`
	ProcessedAt time.Time `json:"processed_at"`
}

// SummaryFailed marks articles whose summary could not be generated.
const SummaryFailed = "Summary generation failed"

// HasSummary reports whether a usable summary is present.
func (a CuratedArticle) HasSummary() bool {
	return a.Summary != "" && a.Summary != SummaryFailed
}
