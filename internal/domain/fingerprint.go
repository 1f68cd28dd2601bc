package domain

import "time"

// FingerprintEntry tracks a URL across runs for duplicate detection.
type FingerprintEntry struct {
	URL                string    `json:"url"`
	FirstSeen          time.Time `json:"first_seen"`
	LastSeen           time.Time `json:"last_seen"`
	SeenCount          int       `json:"process_count"`
	ContentFingerprint string    `json:"content_hash"`
}

// NewFingerprintEntry records the first encounter of url.
func NewFingerprintEntry(url, fingerprint string, now time.Time) FingerprintEntry {
	return FingerprintEntry{
		URL:                url,
		FirstSeen:          now,
		LastSeen:           now,
		SeenCount:          1,
		ContentFingerprint: fingerprint,
	}
}

// Seen advances the entry for a repeated encounter.
func (e *FingerprintEntry) Seen(fingerprint string, now time.Time) {
	e.LastSeen = now
	e.SeenCount++
	e.ContentFingerprint = fingerprint
}
