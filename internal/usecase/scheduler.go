package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsCurator/internal/ports"
)

// Scheduler binds the cron driver to the daily pipeline and, on the report weekday, to the
// weekly report of the week that just ended.
type Scheduler struct {
	driver    ports.Scheduler
	pipeline  *Pipeline
	reports   *ReportGenerator
	reportDay time.Weekday
	logger    *slog.Logger
}

// NewScheduler returns a helper to start and stop the recurring run. reports may be nil.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, reports *ReportGenerator, reportDay time.Weekday, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, reports: reports, reportDay: reportDay, logger: logger}
}

// Start registers the job with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}
	return s.driver.Start(ctx, func(trigger time.Time) { s.Run(ctx, trigger) })
}

// Run executes one scheduled tick. Failures are logged; the schedule keeps going.
func (s *Scheduler) Run(ctx context.Context, trigger time.Time) {
	if _, err := s.pipeline.ProcessDay(ctx, trigger); err != nil {
		s.logError("scheduled crawl failed", "trigger", trigger, "error", err)
	}

	if s.reports == nil || trigger.Weekday() != s.reportDay {
		return
	}
	lastWeek := WeekStart(trigger).AddDate(0, 0, -7)
	if _, _, err := s.reports.Generate(ctx, lastWeek); err != nil {
		s.logError("scheduled report failed", "week_start", lastWeek.Format(time.DateOnly), "error", err)
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

func (s *Scheduler) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
