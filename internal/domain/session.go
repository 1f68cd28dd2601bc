package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CrawlSession records one daily run for the metadata store.
type CrawlSession struct {
	SessionID         string     `json:"session_id"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           *time.Time `json:"end_time"`
	SourcesCrawled    []string   `json:"websites_crawled"`
	ArticlesFound     int        `json:"articles_found"`
	ArticlesProcessed int        `json:"articles_processed"`
	Errors            []string   `json:"errors"`
}

// NewCrawlSession opens a session for the given sources.
func NewCrawlSession(sources []string, now time.Time) *CrawlSession {
	return &CrawlSession{
		SessionID:      uuid.NewString(),
		StartTime:      now,
		SourcesCrawled: append([]string(nil), sources...),
		Errors:         []string{},
	}
}

// Complete stamps the end time.
func (s *CrawlSession) Complete(now time.Time) {
	s.EndTime = &now
}

// AddError appends a timestamped error line.
func (s *CrawlSession) AddError(now time.Time, err error) {
	if err == nil {
		return
	}
	s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", now.Format(time.RFC3339), err))
}

// WeeklyReport aggregates a week of curated articles.
type WeeklyReport struct {
	WeekStart       time.Time        `json:"week_start"`
	WeekEnd         time.Time        `json:"week_end"`
	TotalArticles   int              `json:"total_articles"`
	ArticlesByTopic map[string]int   `json:"articles_by_topic"`
	TopArticles     []CuratedArticle `json:"top_articles"`
	Summary         string           `json:"summary"`
	GeneratedAt     time.Time        `json:"generated_at"`
}
