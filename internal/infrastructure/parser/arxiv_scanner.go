package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/scanner"
	"NewsCurator/internal/textutil"
)

const (
	arxivBaseURL     = "https://arxiv.org"
	arxivDefaultShow = 200
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivScanner crawls category listings and returns the papers announced on the requested day.
type ArxivScanner struct {
	fetcher  *Fetcher
	pageSize int
	logger   *slog.Logger
}

var _ scanner.Scanner = (*ArxivScanner)(nil)

// NewArxivScanner wires a fetcher; pageSize defaults to 200.
func NewArxivScanner(fetcher *Fetcher, logger *slog.Logger) *ArxivScanner {
	if fetcher == nil {
		fetcher = NewFetcher(nil, 0)
	}
	return &ArxivScanner{fetcher: fetcher, pageSize: arxivDefaultShow, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return "arxiv"
}

// Scan pages through each category until entries older than the requested day appear.
func (a *ArxivScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.CandidateRecord, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	targetDay := req.Day.UTC().Truncate(24 * time.Hour)
	var records []domain.CandidateRecord
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		for skip := 0; ; skip += a.pageSize {
			pageURL, err := buildPageURL(cat.URL, skip, a.pageSize)
			if err != nil {
				return records, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			doc, err := a.fetcher.Document(ctx, pageURL)
			if err != nil {
				return records, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			page, more := a.extractRecords(doc, targetDay, req.SiteName)
			for _, rec := range page {
				if _, ok := seen[rec.URL]; ok {
					continue
				}
				seen[rec.URL] = struct{}{}
				records = append(records, rec)
			}
			a.debug("arxiv page", "category", cat.Name, "skip", skip, "records", len(page))

			if !more {
				break
			}
		}
	}

	return records, nil
}

func (a *ArxivScanner) extractRecords(doc *goquery.Document, targetDay time.Time, siteName string) ([]domain.CandidateRecord, bool) {
	var (
		collected []domain.CandidateRecord
		more      = true
		processed int
	)

	doc.Find("dl > dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		processed++

		rec, ok := parseEntry(dt, dt.Next(), siteName)
		if !ok {
			return true
		}

		if rec.DiscoveredAt.IsZero() {
			collected = append(collected, rec)
			return true
		}

		day := rec.DiscoveredAt.UTC().Truncate(24 * time.Hour)
		if day.Equal(targetDay) {
			collected = append(collected, rec)
		}
		if day.Before(targetDay) {
			more = false
			return false
		}
		return true
	})

	if processed < a.pageSize {
		more = false
	}
	return collected, more
}

// parseEntry reads one dt/dd pair. Entries without a parseable date keep a zero DiscoveredAt.
func parseEntry(dt, dd *goquery.Selection, siteName string) (domain.CandidateRecord, bool) {
	link := dt.Find(`a[href*="/abs/"]`).First()
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return domain.CandidateRecord{}, false
	}
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := textutil.CollapseSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))
	if title == "" {
		return domain.CandidateRecord{}, false
	}

	abstract := textutil.CollapseSpace(dd.Find("p.mathjax").First().Text())
	abstract = strings.TrimSpace(strings.TrimPrefix(abstract, "Abstract:"))

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	return domain.CandidateRecord{
		Title:        title,
		URL:          href,
		Source:       siteName,
		RawContent:   abstract,
		DiscoveredAt: parseListingDate(dateText),
	}, true
}

func parseListingDate(text string) time.Time {
	if match := dateExpr.FindString(text); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			return parsed
		}
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "Date:"))
	if ts, ok := parseTimestamp(text); ok {
		return ts
	}
	return time.Time{}
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (a *ArxivScanner) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
