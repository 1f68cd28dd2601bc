package usecase

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
	"NewsCurator/internal/relevance"
)

const (
	reportTopArticles  = 20
	insightTopArticles = 10
	trendingLimit      = 5
	noArticlesSummary  = "No articles found for this week."
)

// TrendingTopic weighs how often and how recently a topic appeared during the week.
type TrendingTopic struct {
	Topic     string
	Frequency int
	Recency   float64
	Score     float64
}

// WeekAnalysis is the aggregate view a report summary is written from.
type WeekAnalysis struct {
	Total        int
	TopicCounts  map[string]int
	TopTopic     string
	TopTopicHits int
	Sources      []string
	AverageScore float64
	HighQuality  int
	Trending     []TrendingTopic
}

// ReportGenerator builds, renders and stores weekly reports.
type ReportGenerator struct {
	store            ports.ArticleStore
	processor        *ContentProcessor
	includeSummaries bool
	maxPerTopic      int
	now              func() time.Time
	logger           *slog.Logger
}

// NewReportGenerator wires the store and the optional summary processor. maxPerTopic caps the
// articles listed under each topic heading.
func NewReportGenerator(store ports.ArticleStore, processor *ContentProcessor, includeSummaries bool, maxPerTopic int, logger *slog.Logger) *ReportGenerator {
	if maxPerTopic <= 0 {
		maxPerTopic = 10
	}
	return &ReportGenerator{
		store:            store,
		processor:        processor,
		includeSummaries: includeSummaries,
		maxPerTopic:      maxPerTopic,
		now:              time.Now,
		logger:           logger,
	}
}

// WeekStart returns midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Generate builds the report for the seven days starting at weekStart, saves it and returns
// it with its markdown rendering. A zero weekStart selects the current week.
func (g *ReportGenerator) Generate(ctx context.Context, weekStart time.Time) (domain.WeeklyReport, string, error) {
	if weekStart.IsZero() {
		weekStart = WeekStart(g.now())
	}
	y, m, d := weekStart.Date()
	weekStart = time.Date(y, m, d, 0, 0, 0, 0, weekStart.Location())
	weekEnd := weekStart.AddDate(0, 0, 6)

	g.info("generating weekly report", "from", weekStart.Format(time.DateOnly), "to", weekEnd.Format(time.DateOnly))

	articles, err := g.store.LoadRange(ctx, weekStart, weekEnd)
	if err != nil {
		return domain.WeeklyReport{}, "", fmt.Errorf("load week: %w", err)
	}

	report := domain.WeeklyReport{
		WeekStart:       weekStart,
		WeekEnd:         weekEnd,
		TotalArticles:   len(articles),
		ArticlesByTopic: map[string]int{},
		TopArticles:     []domain.CuratedArticle{},
		GeneratedAt:     g.now(),
	}

	if len(articles) == 0 {
		g.warn("no articles for the week", "from", weekStart.Format(time.DateOnly))
		report.Summary = noArticlesSummary
	} else {
		analysis := Analyze(articles, g.now())
		report.ArticlesByTopic = analysis.TopicCounts
		report.TopArticles = topArticles(articles, reportTopArticles)
		report.Summary = g.summarise(ctx, report.TopArticles, analysis)
	}

	markdown := RenderMarkdown(report, articles, g.maxPerTopic)
	if err := g.store.SaveReport(ctx, report, markdown); err != nil {
		return report, markdown, fmt.Errorf("save report: %w", err)
	}

	g.info("weekly report generated", "articles", report.TotalArticles, "topics", len(report.ArticlesByTopic))
	return report, markdown, nil
}

func (g *ReportGenerator) summarise(ctx context.Context, top []domain.CuratedArticle, analysis WeekAnalysis) string {
	if !g.includeSummaries || g.processor == nil {
		return fallbackSummary(analysis)
	}
	digest := top[:min(len(top), insightTopArticles)]
	return insights(analysis) + "\n\n" + g.processor.BatchSummary(ctx, digest)
}

// Analyze counts topics and sources and ranks trending topics relative to now.
func Analyze(articles []domain.CuratedArticle, now time.Time) WeekAnalysis {
	a := WeekAnalysis{Total: len(articles), TopicCounts: make(map[string]int)}

	var topicOrder []string
	sources := make(map[string]struct{})
	timeline := make(map[string][]time.Time)
	total := 0.0
	for _, art := range articles {
		total += art.RelevanceScore
		if art.RelevanceScore >= relevance.HighRelevance {
			a.HighQuality++
		}
		if _, ok := sources[art.Source]; !ok {
			sources[art.Source] = struct{}{}
			a.Sources = append(a.Sources, art.Source)
		}
		for _, t := range art.MatchedTopics {
			if a.TopicCounts[t] == 0 {
				topicOrder = append(topicOrder, t)
			}
			a.TopicCounts[t]++
			if !art.DiscoveredAt.IsZero() {
				timeline[t] = append(timeline[t], art.DiscoveredAt)
			}
		}
	}
	if len(articles) > 0 {
		a.AverageScore = total / float64(len(articles))
	}

	for _, t := range topicOrder {
		if a.TopicCounts[t] > a.TopTopicHits {
			a.TopTopic, a.TopTopicHits = t, a.TopicCounts[t]
		}
	}

	today := truncateDay(now)
	for _, t := range topicOrder {
		dates := timeline[t]
		if len(dates) < 2 {
			continue
		}
		recency := 0.0
		for _, d := range dates {
			daysAgo := int(today.Sub(truncateDay(d)).Hours() / 24)
			recency += float64(max(0, 7-daysAgo)) / 7
		}
		recency /= float64(len(dates))
		a.Trending = append(a.Trending, TrendingTopic{
			Topic:     t,
			Frequency: len(dates),
			Recency:   recency,
			Score:     float64(len(dates))*0.6 + recency*0.4,
		})
	}
	slices.SortStableFunc(a.Trending, func(x, y TrendingTopic) int {
		return cmp.Compare(y.Score, x.Score)
	})
	if len(a.Trending) > trendingLimit {
		a.Trending = a.Trending[:trendingLimit]
	}
	return a
}

func insights(a WeekAnalysis) string {
	var lines []string
	if a.TopTopic != "" {
		lines = append(lines, fmt.Sprintf("Most discussed topic: %s (%d articles)", a.TopTopic, a.TopTopicHits))
	}
	lines = append(lines, fmt.Sprintf("Total articles collected: %d", a.Total))
	lines = append(lines, fmt.Sprintf("Average relevance score: %.2f", a.AverageScore))
	if len(a.Trending) > 0 {
		lines = append(lines, fmt.Sprintf("Top trending topic: %s (trend score: %.2f)", a.Trending[0].Topic, a.Trending[0].Score))
	}
	return "## Weekly Insights\n- " + strings.Join(lines, "\n- ")
}

func fallbackSummary(a WeekAnalysis) string {
	parts := []string{fmt.Sprintf("This week we collected %d relevant articles.", a.Total)}
	if a.TopTopic != "" {
		parts = append(parts, fmt.Sprintf("The most discussed topic was '%s' with %d articles.", a.TopTopic, a.TopTopicHits))
	}
	parts = append(parts,
		fmt.Sprintf("%d articles were rated as high quality (relevance score ≥ %.1f).", a.HighQuality, relevance.HighRelevance),
		fmt.Sprintf("Articles were collected from %d sources: %s.", len(a.Sources), strings.Join(a.Sources, ", ")),
	)
	return strings.Join(parts, "\n\n")
}

func topArticles(articles []domain.CuratedArticle, n int) []domain.CuratedArticle {
	sorted := slices.Clone(articles)
	slices.SortStableFunc(sorted, func(x, y domain.CuratedArticle) int {
		return cmp.Compare(y.RelevanceScore, x.RelevanceScore)
	})
	return sorted[:min(len(sorted), n)]
}

// RenderMarkdown lays the report out as the summary, the top articles and one section per
// topic, most frequent topic first.
func RenderMarkdown(report domain.WeeklyReport, articles []domain.CuratedArticle, maxPerTopic int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Weekly News Report: %s to %s\n\n", report.WeekStart.Format(time.DateOnly), report.WeekEnd.Format(time.DateOnly))
	fmt.Fprintf(&sb, "Generated %s. %d articles.\n\n", report.GeneratedAt.Format(time.RFC3339), report.TotalArticles)
	sb.WriteString("## Summary\n\n" + report.Summary + "\n")

	if len(report.TopArticles) > 0 {
		sb.WriteString("\n## Top Articles\n\n")
		for i, a := range report.TopArticles {
			writeArticle(&sb, fmt.Sprintf("%d.", i+1), a)
		}
	}

	topics := make([]string, 0, len(report.ArticlesByTopic))
	for t := range report.ArticlesByTopic {
		topics = append(topics, t)
	}
	slices.SortFunc(topics, func(x, y string) int {
		if c := cmp.Compare(report.ArticlesByTopic[y], report.ArticlesByTopic[x]); c != 0 {
			return c
		}
		return strings.Compare(x, y)
	})

	ranked := topArticles(articles, len(articles))
	for _, t := range topics {
		fmt.Fprintf(&sb, "\n## %s (%d)\n\n", t, report.ArticlesByTopic[t])
		listed := 0
		for _, a := range ranked {
			if listed == maxPerTopic {
				break
			}
			if slices.Contains(a.MatchedTopics, t) {
				writeArticle(&sb, "-", a)
				listed++
			}
		}
	}
	return sb.String()
}

func writeArticle(sb *strings.Builder, bullet string, a domain.CuratedArticle) {
	fmt.Fprintf(sb, "%s [%s](%s) (%s, score %.2f)\n", bullet, a.Title, a.URL, a.Source, a.RelevanceScore)
	if a.HasSummary() {
		fmt.Fprintf(sb, "   %s\n", a.Summary)
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (g *ReportGenerator) info(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Info(msg, args...)
	}
}

func (g *ReportGenerator) warn(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}
