// Package metrics exports pipeline counters in the Prometheus format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"NewsCurator/internal/ports"
)

const namespace = "news_curator"

// Recorder owns a private registry so repeated runs in one process never collide with the
// default one.
type Recorder struct {
	registry     *prometheus.Registry
	records      *prometheus.CounterVec
	summaries    *prometheus.CounterVec
	runs         *prometheus.CounterVec
	scores       prometheus.Histogram
	lastDuration prometheus.Gauge
	lastSuccess  prometheus.Gauge
	textfile     string
}

var _ ports.MetricsRecorder = (*Recorder)(nil)

// NewRecorder registers the collectors. When textfile is set Flush writes the registry there for
// the node exporter textfile collector.
func NewRecorder(textfile string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records leaving each pipeline stage.",
		}, []string{"stage"}),
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Summary generation attempts by result.",
		}, []string{"result"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Daily pipeline runs by outcome.",
		}, []string{"status"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_score",
			Help:      "Composite relevance score of selected records.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the most recent run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the most recent successful run.",
		}),
		textfile: textfile,
	}

	r.registry.MustRegister(r.records, r.summaries, r.runs, r.scores, r.lastDuration, r.lastSuccess)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveStage adds count records to the stage counter.
func (r *Recorder) ObserveStage(stage string, count int) {
	r.records.WithLabelValues(stage).Add(float64(count))
}

// ObserveScores records the final score of every selected record.
func (r *Recorder) ObserveScores(scores []float64) {
	for _, s := range scores {
		r.scores.Observe(s)
	}
}

// ObserveSummaries counts summary outcomes.
func (r *Recorder) ObserveSummaries(succeeded, failed int) {
	r.summaries.WithLabelValues("ok").Add(float64(succeeded))
	r.summaries.WithLabelValues("failed").Add(float64(failed))
}

// ObserveRun records the outcome and duration of one run.
func (r *Recorder) ObserveRun(duration time.Duration, err error) {
	r.lastDuration.Set(duration.Seconds())
	if err != nil {
		r.runs.WithLabelValues("error").Inc()
		return
	}
	r.runs.WithLabelValues("ok").Inc()
	r.lastSuccess.SetToCurrentTime()
}

// Flush writes the textfile export; without a configured path it does nothing.
func (r *Recorder) Flush() error {
	if r.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(r.textfile, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
