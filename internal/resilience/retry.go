package resilience

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/LavishGent/stormdrain/internal/config"
)

// AttemptFunc performs one attempt. attempt starts at 1.
type AttemptFunc func(ctx context.Context, attempt int) (any, error)

// RetryPolicy retries failed attempts with exponential backoff. The number
// of retries is supplied per call, so each request carries its own budget.
type RetryPolicy struct {
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitter         bool

	// OnRetry, when set, runs before each backoff sleep.
	OnRetry func(attempt int, err error, backoff time.Duration)

	totalRetries atomic.Int64
	totalSuccess atomic.Int64
	totalFailure atomic.Int64
}

// NewRetryPolicy creates a new retry policy with the given configuration.
func NewRetryPolicy(cfg config.RetryConfig) *RetryPolicy {
	rp := &RetryPolicy{
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		multiplier:     cfg.Multiplier,
		jitter:         cfg.Jitter,
	}

	if rp.initialBackoff <= 0 {
		rp.initialBackoff = 100 * time.Millisecond
	}
	if rp.maxBackoff <= 0 {
		rp.maxBackoff = 2 * time.Second
	}
	if rp.maxBackoff < rp.initialBackoff {
		rp.maxBackoff = rp.initialBackoff
	}
	if rp.multiplier < 1 {
		rp.multiplier = 2.0
	}

	return rp
}

// Do runs fn up to retries+1 times. It stops early on success, on an error
// IsRetryable rejects, or when ctx ends; in the last case the most recent
// attempt error is returned if there was one. Otherwise the last error is
// returned once the budget is spent.
func (rp *RetryPolicy) Do(ctx context.Context, retries int, fn AttemptFunc) (any, error) {
	if retries < 0 {
		retries = 0
	}
	maxAttempts := retries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, rp.abandoned(lastErr, err)
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			rp.totalSuccess.Add(1)
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == maxAttempts {
			break
		}

		rp.totalRetries.Add(1)
		backoff := rp.calculateBackoff(attempt)
		if rp.OnRetry != nil {
			rp.OnRetry(attempt, err, backoff)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, rp.abandoned(lastErr, ctx.Err())
		case <-timer.C:
		}
	}

	rp.totalFailure.Add(1)
	return nil, lastErr
}

func (rp *RetryPolicy) abandoned(lastErr, ctxErr error) error {
	rp.totalFailure.Add(1)
	if lastErr != nil {
		return lastErr
	}
	return ctxErr
}

// calculateBackoff returns initial * multiplier^(attempt-1), capped at the
// maximum, with optional ±25% jitter.
func (rp *RetryPolicy) calculateBackoff(attempt int) time.Duration {
	backoff := float64(rp.initialBackoff) * math.Pow(rp.multiplier, float64(attempt-1))

	if backoff > float64(rp.maxBackoff) {
		backoff = float64(rp.maxBackoff)
	}

	if rp.jitter {
		jitterRange := backoff * 0.25
		backoff += (rand.Float64() * 2 * jitterRange) - jitterRange //nolint:gosec // Jitter does not need a secure source
	}

	return time.Duration(backoff)
}

// Stats returns retry statistics.
func (rp *RetryPolicy) Stats() (retries, success, failure int64) {
	return rp.totalRetries.Load(), rp.totalSuccess.Load(), rp.totalFailure.Load()
}

// Reset resets the statistics.
func (rp *RetryPolicy) Reset() {
	rp.totalRetries.Store(0)
	rp.totalSuccess.Store(0)
	rp.totalFailure.Store(0)
}
