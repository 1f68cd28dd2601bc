package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRunHonoursTimezone(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	s, err := NewCronScheduler("0 6 * * *", loc, nil)
	require.NoError(t, err)

	from := time.Date(2025, time.November, 8, 2, 0, 0, 0, time.UTC) // 05:00 local
	next := s.NextRun(from)
	assert.Equal(t, time.Date(2025, time.November, 8, 3, 0, 0, 0, time.UTC), next.UTC())

	next = s.NextRun(next)
	assert.Equal(t, time.Date(2025, time.November, 9, 3, 0, 0, 0, time.UTC), next.UTC())
}

func TestNewCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	_, err := NewCronScheduler("every day", nil, nil)
	assert.ErrorContains(t, err, "parse cron expression")
}

func TestStartRunsJobUntilStopped(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("* * * * * * *", time.UTC, nil)
	require.NoError(t, err)

	var runs atomic.Int32
	fired := make(chan struct{}, 1)
	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		runs.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	}))
	assert.Error(t, s.Start(context.Background(), func(time.Time) {}))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not fire")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
	assert.NoError(t, s.Stop(ctx))
}
