package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsCurator/internal/domain"
)

func newMockRepo(t *testing.T) (*PostgresFingerprintRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresFingerprintRepository(db), mock
}

func TestPostgresEnsureSchema(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS url_fingerprints").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadFingerprints(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	first := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT url, content_hash, first_seen, last_seen, seen_count FROM url_fingerprints`).
		WillReturnRows(sqlmock.NewRows([]string{"url", "content_hash", "first_seen", "last_seen", "seen_count"}).
			AddRow("https://a", "h1", first, last, 2).
			AddRow("https://b", "h2", last, last, 1))

	entries, err := repo.LoadFingerprints(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.FingerprintEntry{
		URL: "https://a", ContentFingerprint: "h1", FirstSeen: first, LastSeen: last, SeenCount: 2,
	}, entries["https://a"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveFingerprints(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	now := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)
	entries := map[string]domain.FingerprintEntry{
		"https://b": domain.NewFingerprintEntry("https://b", "h2", now),
		"https://a": domain.NewFingerprintEntry("https://a", "h1", now),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO url_fingerprints \(url,content_hash,first_seen,last_seen,seen_count\) VALUES \(\$1,\$2,\$3,\$4,\$5\) ON CONFLICT \(url\) DO UPDATE`).
		WithArgs("https://a", "h1", now, now, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO url_fingerprints`).
		WithArgs("https://b", "h2", now, now, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveFingerprints(context.Background(), entries))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveEmptyIndexKeepsTable(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, repo.SaveFingerprints(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresForgetOlderThan(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	now := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM url_fingerprints WHERE last_seen < \$1`).
		WithArgs(now.AddDate(0, 0, -30)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.ForgetOlderThan(context.Background(), 30, now)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresForgetOlderThanReportsError(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectExec(`DELETE FROM url_fingerprints`).WillReturnError(errors.New("read-only transaction"))

	_, err := repo.ForgetOlderThan(context.Background(), 30, time.Now())
	assert.ErrorContains(t, err, "delete stale fingerprints")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveRollsBackOnError(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	now := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO url_fingerprints`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.SaveFingerprints(context.Background(), map[string]domain.FingerprintEntry{
		"https://a": domain.NewFingerprintEntry("https://a", "h1", now),
	})
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
