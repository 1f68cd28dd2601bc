package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/textutil"
)

// DefaultThreshold is the title similarity ratio at or above which titles are duplicates.
const DefaultThreshold = 0.9

var titlePrefixes = []string{"ask hn:", "show hn:", "tell hn:", "hn:"}

// Reason names the check that flagged a duplicate.
type Reason string

const (
	ReasonURL     Reason = "url"
	ReasonContent Reason = "content"
	ReasonTitle   Reason = "title"
)

// Duplicate is a rejected candidate and the evidence against it.
type Duplicate struct {
	Record domain.CandidateRecord
	Reason Reason
	// MatchedWith is the URL, fingerprint or title the record collided with.
	MatchedWith string
	Similarity  float64
}

// Result partitions one batch. Unique keeps the input order.
type Result struct {
	Unique     []domain.ScoredRecord
	Duplicates []Duplicate
}

// Detector runs the URL history, content fingerprint and title similarity checks.
type Detector struct {
	threshold float64
	now       func() time.Time
	logger    *slog.Logger
}

// Option customises a Detector.
type Option func(*Detector)

// WithClock overrides the time source used for fingerprint timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithLogger attaches a logger for per-record decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

// NewDetector builds a detector; a non-positive threshold falls back to DefaultThreshold.
func NewDetector(threshold float64, opts ...Option) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	d := &Detector{threshold: threshold, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Partition splits the batch into unique records and duplicates, updating store for every
// accepted record. Comparison against accepted titles is quadratic in the batch size.
func (d *Detector) Partition(batch []domain.CandidateRecord, store *Store) Result {
	if store == nil {
		store = NewStore(nil)
	}

	var res Result
	seen := make(map[string]struct{}, len(batch))
	accepted := make([]string, 0, len(batch))
	now := d.now()

	for _, record := range batch {
		fingerprint := Fingerprint(record)

		if dup, ok := d.check(record, fingerprint, store, seen, accepted); ok {
			d.debug("duplicate", "reason", dup.Reason, "url", record.URL, "title", record.Title)
			res.Duplicates = append(res.Duplicates, dup)
			continue
		}

		seen[fingerprint] = struct{}{}
		accepted = append(accepted, NormalizeTitle(record.Title))
		store.Upsert(record.URL, fingerprint, now)
		res.Unique = append(res.Unique, domain.NewScoredRecord(record, fingerprint))
	}

	d.debug("partitioned batch", "total", len(batch), "unique", len(res.Unique), "duplicates", len(res.Duplicates))
	return res
}

func (d *Detector) check(record domain.CandidateRecord, fingerprint string, store *Store, seen map[string]struct{}, accepted []string) (Duplicate, bool) {
	if entry, ok := store.Lookup(record.URL); ok && entry.ContentFingerprint == fingerprint {
		return Duplicate{Record: record, Reason: ReasonURL, MatchedWith: record.URL, Similarity: 1}, true
	}

	if _, ok := seen[fingerprint]; ok {
		return Duplicate{Record: record, Reason: ReasonContent, MatchedWith: fingerprint, Similarity: 1}, true
	}

	title := NormalizeTitle(record.Title)
	for _, other := range accepted {
		if ratio := TitleSimilarity(title, other); ratio >= d.threshold {
			return Duplicate{Record: record, Reason: ReasonTitle, MatchedWith: other, Similarity: ratio}, true
		}
	}

	return Duplicate{}, false
}

// FindSimilar returns the records in existing that share a similar title, the same fingerprint
// or the same URL with record.
func (d *Detector) FindSimilar(record domain.CandidateRecord, existing []domain.ScoredRecord) []domain.ScoredRecord {
	fingerprint := Fingerprint(record)
	title := NormalizeTitle(record.Title)

	var similar []domain.ScoredRecord
	for _, other := range existing {
		switch {
		case TitleSimilarity(title, NormalizeTitle(other.Title)) >= d.threshold,
			other.ContentFingerprint == fingerprint,
			other.URL == record.URL:
			similar = append(similar, other)
		}
	}
	return similar
}

// Fingerprint digests the normalised content. Empty or whitespace-only content is not hashed
// as the empty string: such records are fingerprinted by their title instead, so link-only
// items from the same batch do not collapse into one content duplicate.
func Fingerprint(record domain.CandidateRecord) string {
	content := record.RawContent
	if strings.TrimSpace(content) == "" {
		content = record.Title
	}
	return ContentFingerprint(content)
}

// ContentFingerprint is the hex SHA-256 of the normalised text.
func ContentFingerprint(content string) string {
	sum := sha256.Sum256([]byte(textutil.NormalizeContent(content)))
	return hex.EncodeToString(sum[:])
}

// NormalizeTitle lower-cases, trims, drops forum prefixes such as "show hn:" and collapses whitespace.
func NormalizeTitle(title string) string {
	normalized := strings.TrimSpace(textutil.Lower(title))
	for _, prefix := range titlePrefixes {
		if strings.HasPrefix(normalized, prefix) {
			normalized = strings.TrimSpace(normalized[len(prefix):])
		}
	}
	return textutil.CollapseSpace(normalized)
}

// TitleSimilarity is the 2*M/T longest-matching-block ratio over the characters of a and b.
func TitleSimilarity(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func (d *Detector) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
