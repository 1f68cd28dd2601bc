// Package dedup detects exact and near-duplicate articles within a batch and across runs.
package dedup

import (
	"sort"
	"time"

	"NewsCurator/internal/domain"
)

// Store is the URL -> fingerprint index consulted by the detector.
// It is not safe for concurrent mutation; one run owns it at a time.
type Store struct {
	entries map[string]domain.FingerprintEntry
}

// NewStore wraps a previously persisted map. The map is copied.
func NewStore(entries map[string]domain.FingerprintEntry) *Store {
	s := &Store{entries: make(map[string]domain.FingerprintEntry, len(entries))}
	for url, entry := range entries {
		s.entries[url] = entry
	}
	return s
}

// Lookup returns the entry for url.
func (s *Store) Lookup(url string) (domain.FingerprintEntry, bool) {
	entry, ok := s.entries[url]
	return entry, ok
}

// Upsert creates the entry on first sight, otherwise advances it.
func (s *Store) Upsert(url, fingerprint string, now time.Time) domain.FingerprintEntry {
	entry, ok := s.entries[url]
	if !ok {
		entry = domain.NewFingerprintEntry(url, fingerprint, now)
	} else {
		entry.Seen(fingerprint, now)
	}
	s.entries[url] = entry
	return entry
}

// ForgetOlderThan drops entries last seen before now-days and returns how many were removed.
func (s *Store) ForgetOlderThan(days int, now time.Time) int {
	cutoff := now.AddDate(0, 0, -days)
	removed := 0
	for url, entry := range s.entries {
		if entry.LastSeen.Before(cutoff) {
			delete(s.entries, url)
			removed++
		}
	}
	return removed
}

// Len is the number of tracked URLs.
func (s *Store) Len() int {
	return len(s.entries)
}

// Stats summarises the index.
type Stats struct {
	TotalURLs     int `json:"total_processed_urls"`
	MultiSeenURLs int `json:"multi_processed_urls"`
}

// Stats counts tracked URLs and those seen more than once.
func (s *Store) Stats() Stats {
	st := Stats{TotalURLs: len(s.entries)}
	for _, entry := range s.entries {
		if entry.SeenCount > 1 {
			st.MultiSeenURLs++
		}
	}
	return st
}

// Snapshot returns a copy of the entries for persistence.
func (s *Store) Snapshot() map[string]domain.FingerprintEntry {
	out := make(map[string]domain.FingerprintEntry, len(s.entries))
	for url, entry := range s.entries {
		out[url] = entry
	}
	return out
}

// URLs lists tracked URLs in lexical order.
func (s *Store) URLs() []string {
	urls := make([]string, 0, len(s.entries))
	for url := range s.entries {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}
