package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCurator/internal/domain"
)

type stubScanner string

func (s stubScanner) Name() string { return string(s) }

func (s stubScanner) Scan(context.Context, Request) ([]domain.CandidateRecord, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(stubScanner("listing"), stubScanner("arxiv"))

	sc, err := reg.Resolve("arxiv")
	require.NoError(t, err)
	assert.Equal(t, "arxiv", sc.Name())
	assert.Equal(t, []string{"arxiv", "listing"}, reg.Names())

	_, err = reg.Resolve("ieee")
	assert.ErrorContains(t, err, "ieee is not registered")
}

func TestRequestOptions(t *testing.T) {
	t.Parallel()

	req := Request{Options: map[string]string{"maxPages": "5", "broken": "x", "negative": "-1", "selector": "a.story"}}

	assert.Equal(t, 5, req.IntOption("maxPages", 3))
	assert.Equal(t, 3, req.IntOption("broken", 3))
	assert.Equal(t, 3, req.IntOption("negative", 3))
	assert.Equal(t, 30, req.IntOption("missing", 30))
	assert.Equal(t, "a.story", req.StringOption("selector", "a"))
	assert.Equal(t, "a", req.StringOption("missing", "a"))
}
