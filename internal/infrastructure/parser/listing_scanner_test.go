package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCurator/internal/scanner"
)

func TestListingScannerScan(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/Archives/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a href="/Articles/1/">Scheduler   rework lands</a>
			<a href="/Articles/2/">Paywalled piece</a>
			<a href="/Articles/1/">Scheduler rework lands</a>
			<a href="/Articles/3/"></a>
			<a href="/Articles/4/">Fourth</a>
			<a href="/about">About</a>
		</body></html>`))
	})
	mux.HandleFunc("/Articles/1/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML("Scheduler rework", longParagraph)))
	})
	mux.HandleFunc("/Articles/2/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "subscribers only", http.StatusForbidden)
	})
	mux.HandleFunc("/Articles/3/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Untitled link target</title></head><body>` + longParagraph + `</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	records, err := NewListingScanner(NewFetcher(server.Client(), 0), nil).Scan(context.Background(), scanner.Request{
		SiteName:   "lwn",
		Categories: []scanner.Category{{Name: "archives", URL: server.URL + "/Archives/"}},
		Options:    map[string]string{"linkSelector": `a[href*="/Articles/"]`, "maxArticles": "3"},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Scheduler rework lands", records[0].Title)
	assert.Equal(t, server.URL+"/Articles/1/", records[0].URL)
	assert.Equal(t, "lwn", records[0].Source)
	assert.Contains(t, records[0].RawContent, "memory allocator")
	assert.Equal(t, time.Date(2025, time.November, 8, 9, 30, 0, 0, time.UTC), records[0].DiscoveredAt)

	assert.Equal(t, server.URL+"/Articles/3/", records[1].URL)
	assert.NotEmpty(t, records[1].Title)
	assert.True(t, records[1].DiscoveredAt.IsZero())
}

func TestListingScannerListingFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewListingScanner(NewFetcher(server.Client(), 0), nil).Scan(context.Background(), scanner.Request{
		SiteName:   "lwn",
		Categories: []scanner.Category{{Name: "archives", URL: server.URL}},
	})
	assert.ErrorContains(t, err, "category archives")
}
