package providers

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy bounds a lookup loop.
type RetryPolicy struct {
	// MaxAttempts caps the total number of calls. Values below 1 mean 1.
	MaxAttempts int
	// Backoff is slept between attempts. Zero retries immediately.
	Backoff time.Duration
	// OnRetry runs before every retry with the error that caused it. Adapters
	// use it to force re-authentication after ErrorSessionExpired. A
	// non-retryable error from OnRetry ends the loop.
	OnRetry func(ctx context.Context, attempt int, cause error) error
}

// Retry calls fn until it succeeds, fails with a non-retryable error, the
// context ends, or MaxAttempts is reached. Exceeding the cap returns an error
// wrapping both ErrRetriesExhausted and the last failure.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := max(policy.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if policy.OnRetry != nil {
				if err := policy.OnRetry(ctx, attempt, lastErr); err != nil {
					if !IsRetryable(err) {
						return zero, err
					}
					lastErr = err
					continue
				}
			}
			if err := sleep(ctx, policy.Backoff); err != nil {
				return zero, err
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		lastErr = err
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, maxAttempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
