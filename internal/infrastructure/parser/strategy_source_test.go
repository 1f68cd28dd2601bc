package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCurator/internal/config"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/scanner"
)

type fakeScanner struct {
	name    string
	records []domain.CandidateRecord
	err     error
	calls   []scanner.Request
}

func (f *fakeScanner) Name() string { return f.name }

func (f *fakeScanner) Scan(_ context.Context, req scanner.Request) ([]domain.CandidateRecord, error) {
	f.calls = append(f.calls, req)
	return f.records, f.err
}

func site(name, scannerName string) config.SiteConfig {
	return config.SiteConfig{
		Name:       name,
		Scanner:    scannerName,
		Categories: []config.CategoryConfig{{Name: "main", URL: "https://" + name + ".example/"}},
		Options:    map[string]string{"maxPages": "1"},
	}
}

func TestStrategySourceFetchDaily(t *testing.T) {
	t.Parallel()

	good := &fakeScanner{name: "good", records: []domain.CandidateRecord{
		{Title: "a", URL: "https://a"},
		{Title: "b", URL: "https://b", Source: "custom"},
	}}
	broken := &fakeScanner{name: "broken", err: errors.New("boom"), records: []domain.CandidateRecord{{Title: "partial", URL: "https://p"}}}

	disabled := site("off", "good")
	disabled.Disabled = true

	src := NewStrategySource(
		scanner.NewRegistry(good, broken),
		[]config.SiteConfig{site("alpha", "good"), site("beta", "broken"), site("gamma", "missing"), disabled},
		nil,
	)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, src.Sites())

	day := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)
	records, err := src.FetchDaily(context.Background(), day)

	require.Error(t, err)
	assert.ErrorContains(t, err, "scan site beta: boom")
	assert.ErrorContains(t, err, "site gamma: scanner missing is not registered")

	require.Len(t, records, 3)
	assert.Equal(t, "alpha", records[0].Source)
	assert.Equal(t, "custom", records[1].Source)
	assert.Equal(t, "beta", records[2].Source)

	require.Len(t, good.calls, 1)
	assert.Equal(t, "alpha", good.calls[0].SiteName)
	assert.Equal(t, day, good.calls[0].Day)
	assert.Equal(t, []scanner.Category{{Name: "main", URL: "https://alpha.example/"}}, good.calls[0].Categories)
}

func TestStrategySourceWithoutRegistry(t *testing.T) {
	t.Parallel()

	_, err := NewStrategySource(nil, nil, nil).FetchDaily(context.Background(), time.Now())
	assert.Error(t, err)
}
