package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

const fingerprintTable = "url_fingerprints"

const fingerprintSchema = `CREATE TABLE IF NOT EXISTS url_fingerprints (
    url          TEXT PRIMARY KEY,
    content_hash TEXT NOT NULL,
    first_seen   TIMESTAMPTZ NOT NULL,
    last_seen    TIMESTAMPTZ NOT NULL,
    seen_count   INTEGER NOT NULL DEFAULT 1
)`

// PostgresFingerprintRepository keeps the URL index in Postgres.
type PostgresFingerprintRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.FingerprintRepository = (*PostgresFingerprintRepository)(nil)
	_ ports.FingerprintPruner     = (*PostgresFingerprintRepository)(nil)
)

// NewPostgresFingerprintRepository wires a sql.DB implementation.
func NewPostgresFingerprintRepository(db *sql.DB) *PostgresFingerprintRepository {
	return &PostgresFingerprintRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// OpenPostgres opens and pings a lib/pq connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the fingerprint table when missing.
func (r *PostgresFingerprintRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, fingerprintSchema); err != nil {
		return fmt.Errorf("create %s: %w", fingerprintTable, err)
	}
	return nil
}

// LoadFingerprints reads the whole index.
func (r *PostgresFingerprintRepository) LoadFingerprints(ctx context.Context) (map[string]domain.FingerprintEntry, error) {
	query, args, err := r.builder.
		Select("url", "content_hash", "first_seen", "last_seen", "seen_count").
		From(fingerprintTable).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}

	entries := make(map[string]domain.FingerprintEntry)
	for rows.Next() {
		var e domain.FingerprintEntry
		if err := rows.Scan(&e.URL, &e.ContentFingerprint, &e.FirstSeen, &e.LastSeen, &e.SeenCount); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		entries[e.URL] = e
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return entries, nil
}

// SaveFingerprints upserts every entry in one transaction. Rows absent from entries are
// left alone; only ForgetOlderThan deletes.
func (r *PostgresFingerprintRepository) SaveFingerprints(ctx context.Context, entries map[string]domain.FingerprintEntry) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	urls := make([]string, 0, len(entries))
	for url := range entries {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	for _, url := range urls {
		e := entries[url]
		query, args, buildErr := r.builder.
			Insert(fingerprintTable).
			Columns("url", "content_hash", "first_seen", "last_seen", "seen_count").
			Values(url, e.ContentFingerprint, e.FirstSeen, e.LastSeen, e.SeenCount).
			Suffix("ON CONFLICT (url) DO UPDATE SET content_hash = EXCLUDED.content_hash, last_seen = EXCLUDED.last_seen, seen_count = EXCLUDED.seen_count").
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("build upsert: %w", buildErr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert fingerprint %s: %w", url, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit fingerprints: %w", err)
	}
	return nil
}

// ForgetOlderThan deletes fingerprints last seen before now-days and returns how many went.
func (r *PostgresFingerprintRepository) ForgetOlderThan(ctx context.Context, days int, now time.Time) (int, error) {
	query, args, err := r.builder.
		Delete(fingerprintTable).
		Where(sq.Lt{"last_seen": now.AddDate(0, 0, -days)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete stale fingerprints: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
