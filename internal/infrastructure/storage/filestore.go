// Package storage persists curated days, sessions, reports and the fingerprint index.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

const (
	articlesDir  = "articles"
	reportsDir   = "reports"
	metadataDir  = "metadata"
	sessionFile  = "last_crawl.json"
	urlIndexFile = "processed_urls.json"
	reportPrefix = "week-"
	backupSuffix = ".backup"
	tmpSuffix    = ".tmp"
)

// ErrCorrupted is returned when a stored file cannot be decoded.
var ErrCorrupted = errors.New("corrupted data file")

// FileStore keeps everything as indented JSON under one data directory:
// articles/YYYY-MM-DD.json, reports/week-YYYY-MM-DD.{json,md} and metadata/*.json.
type FileStore struct {
	root   string
	backup bool
	now    func() time.Time
	logger *slog.Logger
}

var (
	_ ports.ArticleStore          = (*FileStore)(nil)
	_ ports.FingerprintRepository = (*FileStore)(nil)
)

// NewFileStore creates the directory layout under root.
func NewFileStore(root string, backup bool, logger *slog.Logger) (*FileStore, error) {
	for _, dir := range []string{articlesDir, reportsDir, metadataDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", dir, err)
		}
	}
	return &FileStore{root: root, backup: backup, now: time.Now, logger: logger}, nil
}

type dayFile struct {
	Date     string                  `json:"date"`
	Count    int                     `json:"count"`
	Articles []domain.CuratedArticle `json:"articles"`
	SavedAt  time.Time               `json:"saved_at"`
}

// SaveDay replaces the curated set stored for day.
func (s *FileStore) SaveDay(ctx context.Context, day time.Time, articles []domain.CuratedArticle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if articles == nil {
		articles = []domain.CuratedArticle{}
	}
	date := day.Format(time.DateOnly)
	payload := dayFile{Date: date, Count: len(articles), Articles: articles, SavedAt: s.now()}
	if err := s.writeJSON(s.dayPath(day), payload); err != nil {
		return err
	}
	s.info("saved day", "date", date, "articles", len(articles))
	return nil
}

// LoadDay returns the curated set of day, or nil when nothing was stored.
func (s *FileStore) LoadDay(ctx context.Context, day time.Time) ([]domain.CuratedArticle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var payload dayFile
	found, err := s.readJSON(s.dayPath(day), &payload)
	if err != nil || !found {
		return nil, err
	}
	return payload.Articles, nil
}

// LoadRange concatenates every stored day between from and to inclusive.
func (s *FileStore) LoadRange(ctx context.Context, from, to time.Time) ([]domain.CuratedArticle, error) {
	var all []domain.CuratedArticle
	start := truncateDay(from)
	end := truncateDay(to)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		articles, err := s.LoadDay(ctx, day)
		if err != nil {
			return nil, err
		}
		all = append(all, articles...)
	}
	s.debug("loaded range", "from", start.Format(time.DateOnly), "to", end.Format(time.DateOnly), "articles", len(all))
	return all, nil
}

// SaveSession overwrites the last crawl session.
func (s *FileStore) SaveSession(ctx context.Context, session *domain.CrawlSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("save session: nil session")
	}
	return s.writeJSON(filepath.Join(s.root, metadataDir, sessionFile), session)
}

// LastSession returns the most recent crawl session, or nil when none was saved.
func (s *FileStore) LastSession(ctx context.Context) (*domain.CrawlSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var session domain.CrawlSession
	found, err := s.readJSON(filepath.Join(s.root, metadataDir, sessionFile), &session)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

// SaveReport stores the report as JSON next to its markdown rendering.
func (s *FileStore) SaveReport(ctx context.Context, report domain.WeeklyReport, markdown string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	base := filepath.Join(s.root, reportsDir, reportPrefix+report.WeekStart.Format(time.DateOnly))
	if err := s.writeJSON(base+".json", report); err != nil {
		return err
	}
	if err := s.writeFile(base+".md", []byte(markdown)); err != nil {
		return err
	}
	s.info("saved weekly report", "week_start", report.WeekStart.Format(time.DateOnly), "articles", report.TotalArticles)
	return nil
}

type fingerprintFile struct {
	UpdatedAt time.Time                    `json:"updated_at"`
	Count     int                          `json:"count"`
	URLs      map[string]fingerprintRecord `json:"urls"`
}

// fingerprintRecord keeps timestamps as strings so index files written with naive ISO
// timestamps still load.
type fingerprintRecord struct {
	URL          string `json:"url"`
	FirstSeen    string `json:"first_seen"`
	LastSeen     string `json:"last_seen"`
	ProcessCount int    `json:"process_count"`
	ContentHash  string `json:"content_hash"`
}

// LoadFingerprints reads the URL index. A missing file yields an empty index.
func (s *FileStore) LoadFingerprints(ctx context.Context) (map[string]domain.FingerprintEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.root, metadataDir, urlIndexFile)
	var payload fingerprintFile
	found, err := s.readJSON(path, &payload)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]domain.FingerprintEntry, len(payload.URLs))
	if !found {
		return entries, nil
	}

	for url, rec := range payload.URLs {
		first, err := parseStoredTime(rec.FirstSeen)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: first_seen of %s: %v", ErrCorrupted, path, url, err)
		}
		last, err := parseStoredTime(rec.LastSeen)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: last_seen of %s: %v", ErrCorrupted, path, url, err)
		}
		entries[url] = domain.FingerprintEntry{
			URL:                url,
			FirstSeen:          first,
			LastSeen:           last,
			SeenCount:          rec.ProcessCount,
			ContentFingerprint: rec.ContentHash,
		}
	}
	s.debug("loaded fingerprints", "count", len(entries))
	return entries, nil
}

// SaveFingerprints replaces the URL index.
func (s *FileStore) SaveFingerprints(ctx context.Context, entries map[string]domain.FingerprintEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload := fingerprintFile{
		UpdatedAt: s.now(),
		Count:     len(entries),
		URLs:      make(map[string]fingerprintRecord, len(entries)),
	}
	for url, e := range entries {
		payload.URLs[url] = fingerprintRecord{
			URL:          url,
			FirstSeen:    e.FirstSeen.Format(time.RFC3339Nano),
			LastSeen:     e.LastSeen.Format(time.RFC3339Nano),
			ProcessCount: e.SeenCount,
			ContentHash:  e.ContentFingerprint,
		}
	}
	return s.writeJSON(filepath.Join(s.root, metadataDir, urlIndexFile), payload)
}

// Cleanup removes daily sets and weekly reports dated before now minus retentionDays and
// returns how many files were deleted. A non-positive retention keeps everything.
func (s *FileStore) Cleanup(ctx context.Context, retentionDays int, now time.Time) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays).Format(time.DateOnly)

	removed := 0
	sweep := func(dir, prefix string) error {
		entries, err := os.ReadDir(filepath.Join(s.root, dir))
		if err != nil {
			return fmt.Errorf("list %s: %w", dir, err)
		}
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := entry.Name()
			if entry.IsDir() || !strings.HasPrefix(name, prefix) {
				continue
			}
			date, ok := datePart(strings.TrimPrefix(name, prefix))
			if !ok || date >= cutoff {
				continue
			}
			if err := os.Remove(filepath.Join(s.root, dir, name)); err != nil {
				s.warn("cleanup failed", "file", name, "error", err)
				continue
			}
			removed++
		}
		return nil
	}

	if err := sweep(articlesDir, ""); err != nil {
		return removed, err
	}
	if err := sweep(reportsDir, reportPrefix); err != nil {
		return removed, err
	}

	if removed > 0 {
		s.info("cleaned up old data", "files", removed, "cutoff", cutoff)
	}
	return removed, nil
}

// Stats summarises what is on disk.
type Stats struct {
	Articles      int     `json:"articles"`
	Reports       int     `json:"reports"`
	MetadataFiles int     `json:"metadata_files"`
	TotalBytes    int64   `json:"total_bytes"`
	TotalSizeMB   float64 `json:"total_size_mb"`
}

// Stats counts stored JSON files per directory and their total size.
func (s *FileStore) Stats() (Stats, error) {
	var st Stats
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		st.TotalBytes += info.Size()
		switch filepath.Base(filepath.Dir(path)) {
		case articlesDir:
			st.Articles++
		case reportsDir:
			st.Reports++
		case metadataDir:
			st.MetadataFiles++
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("walk data dir: %w", err)
	}
	st.TotalSizeMB = float64(st.TotalBytes*100/(1<<20)) / 100
	return st, nil
}

func (s *FileStore) dayPath(day time.Time) string {
	return filepath.Join(s.root, articlesDir, day.Format(time.DateOnly)+".json")
}

func (s *FileStore) writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return s.writeFile(path, raw)
}

// writeFile copies the previous version to .backup when enabled, then writes through a temp
// file and renames it into place.
func (s *FileStore) writeFile(path string, raw []byte) error {
	if s.backup {
		if err := copyFile(path, path+backupSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.warn("backup failed", "file", path, "error", err)
		}
	}

	tmp := path + tmpSuffix
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	s.debug("wrote file", "path", path, "bytes", len(raw))
	return nil
}

func (s *FileStore) readJSON(path string, v any) (bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupted, path, err)
	}
	return true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func parseStoredTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts, nil
	}
	return dateparse.ParseIn(raw, time.UTC)
}

// datePart extracts YYYY-MM-DD from names such as "2025-11-08.json" or "2025-11-08.md".
func datePart(name string) (string, bool) {
	if len(name) < len(time.DateOnly) {
		return "", false
	}
	date := name[:len(time.DateOnly)]
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return "", false
	}
	return date, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *FileStore) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *FileStore) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *FileStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
