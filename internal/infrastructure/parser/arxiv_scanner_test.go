package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCurator/internal/scanner"
)

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	u, err := buildPageURL("https://export.arxiv.org/list/cs.AI/pastweek", 200, 100)
	require.NoError(t, err)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "https", parsed.Scheme)
	assert.Equal(t, "export.arxiv.org", parsed.Host)
	assert.Equal(t, "200", parsed.Query().Get("skip"))
	assert.Equal(t, "100", parsed.Query().Get("show"))
}

func TestParseEntry(t *testing.T) {
	t.Parallel()

	html := `
	<dl>
	  <dt>
	    <span class="list-identifier"><a href="/abs/1234.56789">arXiv:1234.56789</a></span>
	  </dt>
	  <dd>
	    <div class="list-date">Date: 8 Nov 2025</div>
	    <div class="list-title mathjax">Title: Sample   Title</div>
	    <p class="mathjax">Abstract: Sample abstract text.</p>
	  </dd>
	</dl>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	rec, ok := parseEntry(doc.Find("dt").First(), doc.Find("dd").First(), "arxiv")
	require.True(t, ok)

	assert.Equal(t, "Sample Title", rec.Title)
	assert.Equal(t, "Sample abstract text.", rec.RawContent)
	assert.Equal(t, "https://arxiv.org/abs/1234.56789", rec.URL)
	assert.Equal(t, "arxiv", rec.Source)
	assert.Equal(t, time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC), rec.DiscoveredAt)
}

func TestParseEntryWithoutDate(t *testing.T) {
	t.Parallel()

	html := `<dl><dt><a href="https://arxiv.org/abs/1">x</a></dt><dd><div class="list-title">Title: Undated</div></dd></dl>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	rec, ok := parseEntry(doc.Find("dt").First(), doc.Find("dd").First(), "arxiv")
	require.True(t, ok)
	assert.True(t, rec.DiscoveredAt.IsZero())
	assert.Equal(t, "https://arxiv.org/abs/1", rec.URL)
}

func TestParseListingDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC), parseListingDate("Date: 8 Nov 2025 (v1)"))
	assert.Equal(t, time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC), parseListingDate("2025-11-08"))
	assert.True(t, parseListingDate("soon").IsZero())
}

func TestArxivScannerScan(t *testing.T) {
	t.Parallel()

	targetDay := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<dl>
		  <dt>
		    <span class="list-identifier"><a href="/abs/2501.00001">arXiv:2501.00001</a></span>
		  </dt>
		  <dd>
		    <div class="list-date">Date: 8 Nov 2025</div>
		    <div class="list-title mathjax">Title: Fresh Article</div>
		    <p class="mathjax">Abstract: brand new.</p>
		  </dd>
		  <dt>
		    <span class="list-identifier"><a href="/abs/2501.00002">arXiv:2501.00002</a></span>
		  </dt>
		  <dd>
		    <div class="list-date">Date: 7 Nov 2025</div>
		    <div class="list-title mathjax">Title: Old Article</div>
		    <p class="mathjax">Abstract: older.</p>
		  </dd>
		</dl>`))
	}))
	defer server.Close()

	sc := NewArxivScanner(NewFetcher(server.Client(), 0), nil)
	sc.pageSize = 10

	records, err := sc.Scan(context.Background(), scanner.Request{
		Day:        targetDay,
		SiteName:   "arxiv",
		Categories: []scanner.Category{{Name: "cs.AI", URL: server.URL + "/list/cs.AI"}},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Fresh Article", records[0].Title)
	assert.Equal(t, "https://arxiv.org/abs/2501.00001", records[0].URL)
	assert.Equal(t, "brand new.", records[0].RawContent)
}

func TestArxivScannerRequiresCategories(t *testing.T) {
	t.Parallel()

	_, err := NewArxivScanner(nil, nil).Scan(context.Background(), scanner.Request{SiteName: "arxiv"})
	assert.ErrorContains(t, err, "no categories")
}

func TestArxivScannerHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewArxivScanner(NewFetcher(server.Client(), 0), nil).Scan(context.Background(), scanner.Request{
		SiteName:   "arxiv",
		Categories: []scanner.Category{{Name: "cs.AI", URL: server.URL}},
	})
	assert.ErrorContains(t, err, "503")
}
