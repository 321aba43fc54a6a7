package pipeline

import (
	"context"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

// retrySleep waits between attempts; tests substitute it to avoid real
// backoff sleeps. It must honor context cancellation so a backoff wait
// never outlives an abandoned request.
var retrySleep = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// withRetry runs op up to cfg.MaxAttempts times, doubling the delay
// between attempts from cfg.InitialDelay and capping it at cfg.MaxDelay.
// Only errors classified retryable by IsRetryable are retried; permanent
// and input errors return immediately. The delay is scoped to this
// call's context, so one request's backoff never blocks another.
func withRetry[T any](ctx context.Context, cfg model.RetryConfig, op func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := cfg.InitialDelay
	if delay <= 0 {
		delay = 1 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := retrySleep(ctx, delay); err != nil {
				return zero, err
			}
			delay *= 2
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}
	}

	return zero, lastErr
}
