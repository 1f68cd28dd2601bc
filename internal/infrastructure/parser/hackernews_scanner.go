package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/scanner"
	"NewsCurator/internal/textutil"
)

const hackerNewsDefaultPages = 3

// HackerNewsScanner walks the front pages of a Hacker News style listing and follows each story
// link to read the article body.
type HackerNewsScanner struct {
	fetcher *Fetcher
	now     func() time.Time
	logger  *slog.Logger
}

var _ scanner.Scanner = (*HackerNewsScanner)(nil)

// NewHackerNewsScanner wires a fetcher.
func NewHackerNewsScanner(fetcher *Fetcher, logger *slog.Logger) *HackerNewsScanner {
	if fetcher == nil {
		fetcher = NewFetcher(nil, 0)
	}
	return &HackerNewsScanner{fetcher: fetcher, now: time.Now, logger: logger}
}

// Name identifies the strategy inside the registry.
func (h *HackerNewsScanner) Name() string {
	return "hackernews"
}

// Scan reads options.maxPages pages of every category. A failed page is logged and skipped; the
// scan only fails when nothing could be read at all.
func (h *HackerNewsScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.CandidateRecord, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	maxPages := req.IntOption("maxPages", hackerNewsDefaultPages)
	fetchBodies := req.StringOption("fetchContent", "true") != "false"

	var (
		records []domain.CandidateRecord
		errs    []error
	)
	for _, cat := range req.Categories {
		base, err := url.Parse(cat.URL)
		if err != nil {
			errs = append(errs, fmt.Errorf("category %s: %w", cat.Name, err))
			continue
		}

		for page := 1; page <= maxPages; page++ {
			doc, err := h.fetcher.Document(ctx, pageURL(base, page))
			if err != nil {
				if ctx.Err() != nil {
					return records, ctx.Err()
				}
				h.warn("hacker news page failed", "category", cat.Name, "page", page, "error", err)
				errs = append(errs, fmt.Errorf("category %s page %d: %w", cat.Name, page, err))
				continue
			}

			stories := h.extractStories(ctx, doc, base, req.SiteName, fetchBodies)
			records = append(records, stories...)
		}
	}

	h.debug("hacker news scan done", "site", req.SiteName, "records", len(records))
	if len(records) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return records, nil
}

func (h *HackerNewsScanner) extractStories(ctx context.Context, doc *goquery.Document, base *url.URL, siteName string, fetchBodies bool) []domain.CandidateRecord {
	var records []domain.CandidateRecord
	doc.Find("tr.athing").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("span.titleline > a").First()
		title := textutil.CollapseSpace(link.Text())
		href, ok := link.Attr("href")
		if !ok || title == "" {
			return
		}
		storyURL, ok := resolveURL(base, href)
		if !ok {
			return
		}

		subtext := row.Next().Find("td.subtext").First()
		rec := domain.CandidateRecord{
			Title:        title,
			URL:          storyURL,
			Source:       siteName,
			DiscoveredAt: h.storyTime(subtext),
		}

		if fetchBodies && !sameHost(base, storyURL) {
			page, err := h.fetcher.Article(ctx, storyURL)
			if err != nil {
				h.debug("story body unavailable", "url", storyURL, "error", err)
			} else {
				rec.RawContent = page.Text
			}
		}
		if rec.RawContent == "" {
			rec.RawContent = strings.TrimSpace(title + "\n" + textutil.CollapseSpace(subtext.Text()))
		}

		records = append(records, rec)
	})
	return records
}

// storyTime reads the age span ("2025-11-08T12:00:00 1731067200"), falling back to now.
func (h *HackerNewsScanner) storyTime(subtext *goquery.Selection) time.Time {
	if raw, ok := subtext.Find("span.age").First().Attr("title"); ok {
		if fields := strings.Fields(raw); len(fields) > 0 {
			if ts, ok := parseTimestamp(fields[0]); ok {
				return ts
			}
		}
	}
	return h.now().UTC()
}

func pageURL(base *url.URL, page int) string {
	if page <= 1 {
		return base.String()
	}
	u := *base
	q := u.Query()
	q.Set("p", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func sameHost(base *url.URL, raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && strings.EqualFold(u.Host, base.Host)
}

func (h *HackerNewsScanner) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func (h *HackerNewsScanner) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
