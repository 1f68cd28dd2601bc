package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"NewsCurator/internal/textutil"
)

const (
	userAgent        = "NewsCurator/1.0"
	maxBodyBytes     = 10 << 20
	maxContentChars  = 5000
	minContentChars  = 100
	defaultTimeout   = 20 * time.Second
	defaultPageDelay = 500 * time.Millisecond
)

var (
	contentSelectors = []string{
		"article", `[role="main"]`, ".post-content", ".entry-content", ".article-content",
		".content", ".post-body", ".article-body", "main", ".container",
	}
	publishedSelectors = []struct{ selector, attr string }{
		{`meta[property="article:published_time"]`, "content"},
		{`meta[name="date"]`, "content"},
		{"time[datetime]", "datetime"},
	}
)

// ErrNotText is returned for responses that are not HTML, XML, JSON or plain text.
var ErrNotText = errors.New("non-text content")

// Page is the readable part of a fetched article.
type Page struct {
	Title     string
	Text      string
	Published time.Time
}

// Fetcher performs polite GET requests shared by every scanner.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewFetcher wires an HTTP client and the minimum delay between requests. A nil client gets a
// 20s timeout; a non-positive delay disables throttling.
func NewFetcher(client *http.Client, delay time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Fetcher{client: client, limiter: rate.NewLimiter(limit, 1)}
}

// Get downloads pageURL and returns the body decoded to UTF-8.
func (f *Fetcher) Get(ctx context.Context, pageURL string) (string, error) {
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return "", fmt.Errorf("invalid url format: %q", pageURL)
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}
	if resp.ContentLength > maxBodyBytes {
		return "", fmt.Errorf("%s: content too large: %d bytes", pageURL, resp.ContentLength)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isTextual(contentType) {
		return "", fmt.Errorf("%s: %w: %s", pageURL, ErrNotText, contentType)
	}

	reader, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		reader = resp.Body
	}
	body, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", pageURL, err)
	}
	return string(body), nil
}

// Document fetches pageURL and parses it with goquery.
func (f *Fetcher) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := f.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// Article fetches pageURL and extracts its readable text.
func (f *Fetcher) Article(ctx context.Context, pageURL string) (Page, error) {
	body, err := f.Get(ctx, pageURL)
	if err != nil {
		return Page{}, err
	}
	return ExtractPage(body, pageURL)
}

// ExtractPage pulls the main text out of rawHTML, first through readability and then through
// common content containers. The text is whitespace-collapsed and capped at 5000 characters.
func ExtractPage(rawHTML, pageURL string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Page{}, fmt.Errorf("parse document: %w", err)
	}

	page := Page{
		Title:     textutil.CollapseSpace(doc.Find("title").First().Text()),
		Published: publishedAt(doc),
	}

	if text, title := readableText(rawHTML, pageURL); text != "" {
		page.Text = text
		if title != "" {
			page.Title = title
		}
	} else {
		page.Text = fallbackText(doc)
	}

	page.Text = truncate(page.Text, maxContentChars)
	return page, nil
}

func readableText(rawHTML, pageURL string) (string, string) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", ""
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil || article.Content == "" {
		return "", ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", ""
	}
	text := textutil.CollapseSpace(doc.Text())
	if len(text) <= minContentChars {
		return "", ""
	}
	return text, textutil.CollapseSpace(article.Title)
}

func fallbackText(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		sel.Find("script, style, nav, header, footer").Remove()
		if text := textutil.CollapseSpace(sel.Text()); len(text) > minContentChars {
			return text
		}
	}

	body := doc.Find("body").First()
	body.Find("script, style, nav, header, footer, aside").Remove()
	if text := textutil.CollapseSpace(body.Text()); len(text) > minContentChars {
		return text
	}
	return ""
}

func publishedAt(doc *goquery.Document) time.Time {
	for _, candidate := range publishedSelectors {
		if raw, ok := doc.Find(candidate.selector).First().Attr(candidate.attr); ok {
			if ts, ok := parseTimestamp(raw); ok {
				return ts
			}
		}
	}
	return time.Time{}
}

// parseTimestamp accepts RFC 3339 and whatever layout dateparse recognises, in UTC.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), true
	}
	ts, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	for _, marker := range []string{"text", "html", "xml", "json"} {
		if strings.Contains(ct, marker) {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func resolveURL(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if (abs.Scheme != "http" && abs.Scheme != "https") || abs.Host == "" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}
