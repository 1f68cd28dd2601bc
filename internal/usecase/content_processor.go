package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

const (
	maxPreparedChars = 3000
	maxSummaryChars  = 500
	batchSummaryTop  = 20
	noSummary        = "No summary available"
)

var (
	spaceExpr       = regexp.MustCompile(`\s+`)
	tagExpr         = regexp.MustCompile(`<[^>]+>`)
	urlExpr         = regexp.MustCompile(`https?://\S+`)
	emailExpr       = regexp.MustCompile(`\S+@\S+`)
	punctSpaceExpr  = regexp.MustCompile(`\s+([,.!?;:])`)
	summaryPrefixes = []string{"Summary: ", "Article Summary: ", "This article ", "The article ", "In summary, "}
	sourceContexts  = map[string]string{
		"hackernews": "This is from Hacker News, a tech community discussion platform",
		"lwn":        "This is from LWN.net, a Linux and open-source news publication",
		"github":     "This is from GitHub, likely related to code repositories",
		"arxiv":      "This is from arXiv, an academic preprint repository",
	}
)

// ProcessingStats summarises the summaries of a batch.
type ProcessingStats struct {
	Total            int     `json:"total_articles"`
	WithSummaries    int     `json:"articles_with_summaries"`
	Failed           int     `json:"articles_failed"`
	SuccessRate      float64 `json:"success_rate"`
	AvgSummaryLength float64 `json:"avg_summary_length"`
}

// ContentProcessor prepares article text and fans summarization out over a bounded pool of
// workers that share one rate limiter.
type ContentProcessor struct {
	summarizer ports.Summarizer
	workers    int
	limiter    *rate.Limiter
	now        func() time.Time
	logger     *slog.Logger
}

// NewContentProcessor wires the summarizer. workers below one run sequentially; delay is the
// minimum spacing between two provider calls.
func NewContentProcessor(summarizer ports.Summarizer, workers int, delay time.Duration, logger *slog.Logger) *ContentProcessor {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &ContentProcessor{
		summarizer: summarizer,
		workers:    max(workers, 1),
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
		logger:     logger,
	}
}

// Curated wraps selected records into articles awaiting a summary.
func Curated(records []domain.ScoredRecord) []domain.CuratedArticle {
	out := make([]domain.CuratedArticle, len(records))
	for i, rec := range records {
		out[i] = domain.CuratedArticle{ScoredRecord: rec}
	}
	return out
}

// Process summarises every article without a summary and returns the batch in input order.
// Articles whose summary cannot be generated carry domain.SummaryFailed. The error is non-nil
// only when ctx ends first.
func (p *ContentProcessor) Process(ctx context.Context, articles []domain.CuratedArticle) ([]domain.CuratedArticle, error) {
	out := make([]domain.CuratedArticle, len(articles))
	copy(out, articles)

	pending := make([]int, 0, len(out))
	for i := range out {
		if strings.TrimSpace(out[i].Summary) == "" {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		p.info("all articles already summarised", "articles", len(out))
		return out, nil
	}
	if p.summarizer == nil {
		return out, fmt.Errorf("summarizer is not configured")
	}

	p.info("generating summaries", "pending", len(pending), "workers", p.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, idx := range pending {
		g.Go(func() error {
			summary, err := p.summarise(gctx, out[idx])
			if err != nil {
				p.warn("summary failed", "title", clipTitle(out[idx].Title), "error", err)
				out[idx].Summary = domain.SummaryFailed
			} else {
				out[idx].Summary = summary
			}
			out[idx].ProcessedAt = p.now()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("process articles: %w", err)
	}
	return out, nil
}

// RetryFailed clears failed summaries and runs them again.
func (p *ContentProcessor) RetryFailed(ctx context.Context, articles []domain.CuratedArticle) ([]domain.CuratedArticle, error) {
	retry := make([]domain.CuratedArticle, len(articles))
	copy(retry, articles)

	failed := 0
	for i := range retry {
		if retry[i].Summary == domain.SummaryFailed {
			retry[i].Summary = ""
			failed++
		}
	}
	if failed == 0 {
		return retry, nil
	}
	p.info("retrying failed summaries", "failed", failed)
	return p.Process(ctx, retry)
}

func (p *ContentProcessor) summarise(ctx context.Context, article domain.CuratedArticle) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for rate limiter: %w", err)
	}
	summary, err := p.summarizer.GenerateSummary(ctx, PrepareContent(article.ScoredRecord), BuildContext(article.ScoredRecord))
	if err != nil {
		return "", err
	}
	return PostProcessSummary(summary), nil
}

// BatchSummary asks for a digest of the first twenty articles. Provider failures are
// reported inside the returned text.
func (p *ContentProcessor) BatchSummary(ctx context.Context, articles []domain.CuratedArticle) string {
	if len(articles) == 0 {
		return "No articles to summarize"
	}
	if p.summarizer == nil {
		return "Failed to generate summary: summarizer is not configured"
	}

	summary, err := p.summarizer.GenerateWeeklySummary(ctx, Digest(articles, batchSummaryTop))
	if err != nil {
		p.warn("batch summary failed", "error", err)
		return fmt.Sprintf("Failed to generate summary: %v", err)
	}
	return summary
}

// Digest numbers up to limit articles as "i. title: summary".
func Digest(articles []domain.CuratedArticle, limit int) string {
	var sb strings.Builder
	for i, a := range articles {
		if i >= limit {
			break
		}
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, a.Title)
		if a.Summary != "" {
			sb.WriteString(": " + a.Summary)
		}
	}
	return sb.String()
}

// Stats reports how many articles carry a usable summary and their mean length.
func Stats(articles []domain.CuratedArticle) ProcessingStats {
	st := ProcessingStats{Total: len(articles)}
	totalLen := 0
	for _, a := range articles {
		switch {
		case a.HasSummary():
			st.WithSummaries++
			totalLen += len([]rune(a.Summary))
		case a.Summary == domain.SummaryFailed:
			st.Failed++
		}
	}
	if st.Total > 0 {
		st.SuccessRate = float64(st.WithSummaries) / float64(st.Total)
	}
	if st.WithSummaries > 0 {
		st.AvgSummaryLength = math.Round(float64(totalLen)/float64(st.WithSummaries)*10) / 10
	}
	return st
}

// PrepareContent is the title and the cleaned body separated by a blank line, capped at 3000
// characters.
func PrepareContent(rec domain.ScoredRecord) string {
	content := rec.Title
	if rec.RawContent != "" {
		content += "\n\n" + CleanContent(rec.RawContent)
	}
	runes := []rune(content)
	if len(runes) > maxPreparedChars {
		content = string(runes[:maxPreparedChars]) + "..."
	}
	return content
}

// CleanContent collapses whitespace, strips tags, masks URLs and e-mail addresses and removes
// spaces before punctuation.
func CleanContent(content string) string {
	if content == "" {
		return ""
	}
	content = spaceExpr.ReplaceAllString(content, " ")
	content = tagExpr.ReplaceAllString(content, "")
	content = urlExpr.ReplaceAllString(content, "[URL]")
	content = emailExpr.ReplaceAllString(content, "[EMAIL]")
	content = punctSpaceExpr.ReplaceAllString(content, "$1")
	return strings.TrimSpace(content)
}

// BuildContext describes the source and the matched topics for the prompt.
func BuildContext(rec domain.ScoredRecord) string {
	var parts []string
	if desc, ok := sourceContexts[rec.Source]; ok {
		parts = append(parts, desc)
	}
	if len(rec.MatchedTopics) > 0 {
		parts = append(parts, "Related topics: "+strings.Join(rec.MatchedTopics, ", "))
	}
	return strings.Join(parts, ". ")
}

// PostProcessSummary strips one leading boilerplate prefix, ensures terminal punctuation and
// caps the text at 500 characters, cutting at a sentence boundary when possible.
func PostProcessSummary(summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return noSummary
	}

	for _, prefix := range summaryPrefixes {
		if strings.HasPrefix(summary, prefix) {
			summary = summary[len(prefix):]
			break
		}
	}

	if !strings.ContainsAny(summary[len(summary)-1:], ".!?") {
		summary += "."
	}

	if len([]rune(summary)) <= maxSummaryChars {
		return summary
	}

	var truncated strings.Builder
	for _, sentence := range strings.Split(summary, ". ") {
		if len([]rune(truncated.String()))+len([]rune(sentence))+2 > maxSummaryChars {
			break
		}
		truncated.WriteString(sentence + ". ")
	}
	if truncated.Len() > 0 {
		return strings.TrimRight(truncated.String(), " ")
	}
	return string([]rune(summary)[:maxSummaryChars]) + "..."
}

func clipTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= 50 {
		return title
	}
	return string(runes[:50]) + "..."
}

func (p *ContentProcessor) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *ContentProcessor) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
