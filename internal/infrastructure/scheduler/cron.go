package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"

	"NewsCurator/internal/ports"
)

// CronScheduler fires a job at every instant matched by a cron expression, evaluated in a
// fixed timezone.
type CronScheduler struct {
	expr     *cronexpr.Expression
	spec     string
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler parses spec (five fields, or six/seven with year and seconds).
func NewCronScheduler(spec string, location *time.Location, logger *slog.Logger) (*CronScheduler, error) {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	if location == nil {
		location = time.UTC
	}
	return &CronScheduler{expr: expr, spec: spec, location: location, now: time.Now, logger: logger}, nil
}

// NextRun returns the first activation strictly after from.
func (c *CronScheduler) NextRun(from time.Time) time.Time {
	return c.expr.Next(from.In(c.location))
}

// Start runs job in a background goroutine until ctx is done or Stop is called. Runs never
// overlap: the next activation is computed after the job returns.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return fmt.Errorf("scheduler already started")
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go c.loop(ctx, job, c.stop, c.done)
	return nil
}

func (c *CronScheduler) loop(ctx context.Context, job func(time.Time), stop, done chan struct{}) {
	defer close(done)
	for {
		now := c.now()
		next := c.NextRun(now)
		if next.IsZero() {
			c.info("cron expression has no future activation", "spec", c.spec)
			return
		}
		c.info("next run scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(now))
		select {
		case t := <-timer.C:
			job(t.In(c.location))
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stop:
			timer.Stop()
			return
		}
	}
}

// Stop halts the loop and waits for a running job to finish or ctx to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronScheduler) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
