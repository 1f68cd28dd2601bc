package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"NewsCurator/internal/domain"
)

func TestStoreForgetOlderThan(t *testing.T) {
	t.Parallel()

	old := domain.NewFingerprintEntry("https://old.example", "aa", fixedNow.AddDate(0, 0, -10))
	recent := domain.NewFingerprintEntry("https://new.example", "bb", fixedNow.AddDate(0, 0, -1))
	edge := domain.NewFingerprintEntry("https://edge.example", "cc", fixedNow.AddDate(0, 0, -7))

	s := NewStore(map[string]domain.FingerprintEntry{old.URL: old, recent.URL: recent, edge.URL: edge})

	assert.Equal(t, 1, s.ForgetOlderThan(7, fixedNow))
	assert.Equal(t, []string{"https://edge.example", "https://new.example"}, s.URLs())
	assert.Equal(t, 0, s.ForgetOlderThan(7, fixedNow))
}

func TestStoreCopiesInput(t *testing.T) {
	t.Parallel()

	input := map[string]domain.FingerprintEntry{}
	s := NewStore(input)
	s.Upsert("https://a.example", "aa", fixedNow)

	assert.Empty(t, input)
	snap := s.Snapshot()
	snap["https://b.example"] = domain.FingerprintEntry{}
	assert.Equal(t, 1, s.Len())
}

func TestStoreUpsertAndStats(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	s.Upsert("https://a.example", "aa", fixedNow)
	s.Upsert("https://b.example", "bb", fixedNow)
	entry := s.Upsert("https://a.example", "cc", fixedNow.Add(time.Hour))

	assert.Equal(t, 2, entry.SeenCount)
	assert.Equal(t, "cc", entry.ContentFingerprint)
	assert.Equal(t, fixedNow, entry.FirstSeen)
	assert.Equal(t, Stats{TotalURLs: 2, MultiSeenURLs: 1}, s.Stats())
}
