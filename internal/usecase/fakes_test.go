package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

var (
	_ ports.ArticleStore          = (*memStore)(nil)
	_ ports.FingerprintRepository = (*memStore)(nil)
	_ ports.FingerprintPruner     = (*memStore)(nil)
	_ ports.Summarizer            = (*fakeSummarizer)(nil)
	_ ports.Notifier              = (*fakeNotifier)(nil)
	_ ports.MetricsRecorder       = (*fakeMetrics)(nil)
	_ ports.ArticleSource         = (*fakeSource)(nil)
)

type fakeSource struct {
	records []domain.CandidateRecord
	err     error
}

func (s *fakeSource) FetchDaily(context.Context, time.Time) ([]domain.CandidateRecord, error) {
	return s.records, s.err
}

type memStore struct {
	mu           sync.Mutex
	days         map[string][]domain.CuratedArticle
	sessions     []domain.CrawlSession
	reports      []domain.WeeklyReport
	markdown     []string
	fingerprints map[string]domain.FingerprintEntry
	loadErr      error
	saveDayErr   error
	saveFPErr    error
	cleanups     int
	forgetDays   []int
}

func newMemStore() *memStore {
	return &memStore{days: map[string][]domain.CuratedArticle{}}
}

func (m *memStore) SaveDay(_ context.Context, day time.Time, articles []domain.CuratedArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveDayErr != nil {
		return m.saveDayErr
	}
	m.days[day.Format(time.DateOnly)] = articles
	return nil
}

func (m *memStore) LoadDay(_ context.Context, day time.Time) ([]domain.CuratedArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.days[day.Format(time.DateOnly)], nil
}

func (m *memStore) LoadRange(ctx context.Context, from, to time.Time) ([]domain.CuratedArticle, error) {
	var out []domain.CuratedArticle
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		day, _ := m.LoadDay(ctx, d)
		out = append(out, day...)
	}
	return out, nil
}

func (m *memStore) SaveSession(_ context.Context, session *domain.CrawlSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, *session)
	return nil
}

func (m *memStore) LastSession(context.Context) (*domain.CrawlSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) == 0 {
		return nil, nil
	}
	s := m.sessions[len(m.sessions)-1]
	return &s, nil
}

func (m *memStore) SaveReport(_ context.Context, report domain.WeeklyReport, markdown string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	m.markdown = append(m.markdown, markdown)
	return nil
}

func (m *memStore) Cleanup(context.Context, int, time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups++
	return 0, nil
}

func (m *memStore) LoadFingerprints(context.Context) (map[string]domain.FingerprintEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]domain.FingerprintEntry, len(m.fingerprints))
	for k, v := range m.fingerprints {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) SaveFingerprints(_ context.Context, entries map[string]domain.FingerprintEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveFPErr != nil {
		return m.saveFPErr
	}
	m.fingerprints = entries
	return nil
}

func (m *memStore) ForgetOlderThan(_ context.Context, days int, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forgetDays = append(m.forgetDays, days)
	cutoff := now.AddDate(0, 0, -days)
	removed := 0
	for url, e := range m.fingerprints {
		if e.LastSeen.Before(cutoff) {
			delete(m.fingerprints, url)
			removed++
		}
	}
	return removed, nil
}

// fakeSummarizer echoes the first line of the prepared content and fails for titles
// containing "broken".
type fakeSummarizer struct {
	mu       sync.Mutex
	calls    int
	contexts []string
	weekly   []string
}

func (f *fakeSummarizer) GenerateSummary(_ context.Context, content, hint string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.contexts = append(f.contexts, hint)
	f.mu.Unlock()

	title, _, _ := strings.Cut(content, "\n")
	if strings.Contains(title, "broken") {
		return "", errors.New("provider unavailable")
	}
	return "Summary: " + title, nil
}

func (f *fakeSummarizer) GenerateWeeklySummary(_ context.Context, digest string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weekly = append(f.weekly, digest)
	return "A busy week for systems programming.", nil
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (n *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	n.messages = append(n.messages, digest)
	return n.err
}

type fakeMetrics struct {
	stages    map[string]int
	scores    []float64
	succeeded int
	failed    int
	runs      []error
	flushes   int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{stages: map[string]int{}}
}

func (m *fakeMetrics) ObserveStage(stage string, count int) { m.stages[stage] += count }
func (m *fakeMetrics) ObserveScores(scores []float64)       { m.scores = append(m.scores, scores...) }
func (m *fakeMetrics) ObserveSummaries(succeeded, failed int) {
	m.succeeded += succeeded
	m.failed += failed
}
func (m *fakeMetrics) ObserveRun(_ time.Duration, err error) { m.runs = append(m.runs, err) }
func (m *fakeMetrics) Flush() error {
	m.flushes++
	return nil
}

type fakeDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *fakeDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}
