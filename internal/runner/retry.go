package runner

import (
	"context"
	"time"
)

// Operation is a retryable unit of work, such as opening a driver handle.
type Operation func(ctx context.Context) error

// RetryPolicy configures retry behavior.
type RetryPolicy struct {
	MaxAttempts int                                        // total attempts including initial try
	Delay       time.Duration                              // fixed delay between retries (used if DelayFunc nil)
	ShouldRetry func(error) bool                           // predicate; if nil, all errors retried
	DelayFunc   func(attempt int, err error) time.Duration // dynamic backoff; attempt is 1-based
}

// WithRetry wraps op so that failures are retried according to policy.
func WithRetry(op Operation, policy RetryPolicy) Operation {
	if policy.MaxAttempts <= 1 {
		return op
	}
	return func(ctx context.Context) error {
		var lastErr error
		for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			lastErr = op(ctx)
			if lastErr == nil {
				return nil
			}

			// Don't delay after the last attempt.
			if attempt < policy.MaxAttempts {
				if policy.ShouldRetry != nil && !policy.ShouldRetry(lastErr) {
					return lastErr
				}
				delay := policy.Delay
				if policy.DelayFunc != nil {
					delay = policy.DelayFunc(attempt, lastErr)
				}
				if delay > 0 {
					select {
					case <-time.After(delay):
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		}
		return lastErr
	}
}

// ExponentialBackoff returns a DelayFunc doubling base per attempt up to maxDelay.
func ExponentialBackoff(base, maxDelay time.Duration) func(int, error) time.Duration {
	return func(attempt int, _ error) time.Duration {
		delay := base << (attempt - 1)
		if delay <= 0 || delay > maxDelay {
			return maxDelay
		}
		return delay
	}
}
