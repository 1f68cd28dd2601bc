package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/scanner"
	"NewsCurator/internal/textutil"
)

const (
	listingDefaultSelector = "article a[href]"
	listingDefaultMax      = 30
)

// ListingScanner handles sites that publish a plain index page of article links (LWN archives,
// blogs). Each linked page is fetched and reduced to readable text.
type ListingScanner struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

var _ scanner.Scanner = (*ListingScanner)(nil)

// NewListingScanner wires a fetcher.
func NewListingScanner(fetcher *Fetcher, logger *slog.Logger) *ListingScanner {
	if fetcher == nil {
		fetcher = NewFetcher(nil, 0)
	}
	return &ListingScanner{fetcher: fetcher, logger: logger}
}

// Name identifies the strategy inside the registry.
func (l *ListingScanner) Name() string {
	return "listing"
}

// Scan collects up to options.maxArticles links matching options.linkSelector per category.
// Articles that cannot be fetched are logged and skipped.
func (l *ListingScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.CandidateRecord, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	selector := req.StringOption("linkSelector", listingDefaultSelector)
	limit := req.IntOption("maxArticles", listingDefaultMax)

	var records []domain.CandidateRecord
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		base, err := url.Parse(cat.URL)
		if err != nil {
			return records, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		doc, err := l.fetcher.Document(ctx, cat.URL)
		if err != nil {
			return records, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		links := collectLinks(doc, base, selector, limit, seen)
		l.debug("listing links", "category", cat.Name, "links", len(links))

		for _, link := range links {
			page, err := l.fetcher.Article(ctx, link.url)
			if err != nil {
				if ctx.Err() != nil {
					return records, ctx.Err()
				}
				l.warn("skip article", "url", link.url, "error", err)
				continue
			}

			title := link.title
			if title == "" {
				title = page.Title
			}
			if title == "" {
				continue
			}

			records = append(records, domain.CandidateRecord{
				Title:        title,
				URL:          link.url,
				Source:       req.SiteName,
				RawContent:   page.Text,
				DiscoveredAt: page.Published,
			})
		}
	}

	return records, nil
}

type listingLink struct {
	url   string
	title string
}

func collectLinks(doc *goquery.Document, base *url.URL, selector string, limit int, seen map[string]struct{}) []listingLink {
	var links []listingLink
	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(links) >= limit {
			return false
		}
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		abs, ok := resolveURL(base, href)
		if !ok {
			return true
		}
		if _, dup := seen[abs]; dup {
			return true
		}
		seen[abs] = struct{}{}
		links = append(links, listingLink{url: abs, title: textutil.CollapseSpace(sel.Text())})
		return true
	})
	return links
}

func (l *ListingScanner) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func (l *ListingScanner) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
