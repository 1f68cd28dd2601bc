package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultErrorDelay = time.Second

// retryPolicy doubles the wait after every failed attempt. Rate-limit failures start from the
// configured rate-limit delay, every other failure from errorDelay.
type retryPolicy struct {
	maxRetries     int
	rateLimitDelay time.Duration
	errorDelay     time.Duration
	logger         *slog.Logger
}

func newRetryPolicy(maxRetries int, rateLimitDelay time.Duration, logger *slog.Logger) retryPolicy {
	return retryPolicy{
		maxRetries:     max(maxRetries, 0),
		rateLimitDelay: rateLimitDelay,
		errorDelay:     defaultErrorDelay,
		logger:         logger,
	}
}

// doublingBackOff implements backoff.BackOff and picks its base from the last error seen.
type doublingBackOff struct {
	policy  *retryPolicy
	attempt int
	lastErr error
}

func (b *doublingBackOff) NextBackOff() time.Duration {
	base := b.policy.errorDelay
	if errors.Is(b.lastErr, ErrRateLimited) {
		base = b.policy.rateLimitDelay
	}
	wait := base << b.attempt
	b.attempt++
	return wait
}

func (b *doublingBackOff) Reset() {
	b.attempt = 0
	b.lastErr = nil
}

// do runs call up to maxRetries+1 times.
func (p retryPolicy) do(ctx context.Context, op string, call func(context.Context) (string, error)) (string, error) {
	policy := p
	bo := &doublingBackOff{policy: &policy}

	var out string
	operation := func() error {
		text, err := call(ctx)
		if err != nil {
			bo.lastErr = err
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		out = text
		return nil
	}

	notify := func(err error, wait time.Duration) {
		if p.logger != nil {
			p.logger.Warn("llm call failed, retrying", "op", op, "wait", wait, "rate_limited", errors.Is(err, ErrRateLimited), "error", err)
		}
	}

	strategy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.maxRetries)), ctx)
	if err := backoff.RetryNotify(operation, strategy, notify); err != nil {
		return "", err
	}
	return out, nil
}
