// Package ratelimit throttles outbound calls with a token bucket.
package ratelimit

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// Limiter admits or defers outbound calls. It never blocks.
type Limiter interface {
	// TryAcquire takes n tokens if they are available. A denial has no side effect.
	TryAcquire(n int) bool
	// TimeUntilAvailable reports how long until n tokens will be available.
	TimeUntilAvailable(n int) time.Duration
}

// TokenBucket refills at a constant rate up to a burst capacity.
// The bucket starts full.
type TokenBucket struct {
	limiter *rate.Limiter
	now     func() time.Time
	rps     float64
	burst   int
}

var _ Limiter = (*TokenBucket)(nil)

// New creates a bucket holding burst tokens and refilling at rps tokens per second.
func New(rps float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		now:     time.Now,
		rps:     rps,
		burst:   burst,
	}
}

func (b *TokenBucket) TryAcquire(n int) bool {
	if n <= 0 {
		return true
	}
	return b.limiter.AllowN(b.now(), n)
}

func (b *TokenBucket) TimeUntilAvailable(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	if n > b.burst || b.rps <= 0 {
		return time.Duration(math.MaxInt64)
	}

	deficit := float64(n) - b.limiter.TokensAt(b.now())
	if deficit <= 0 {
		return 0
	}
	return time.Duration(deficit / b.rps * float64(time.Second))
}

// Tokens reports the current token count, in [0, burst].
func (b *TokenBucket) Tokens() float64 {
	t := b.limiter.TokensAt(b.now())
	if t < 0 {
		return 0
	}
	return t
}

func (b *TokenBucket) Rate() float64 { return b.rps }

func (b *TokenBucket) Burst() int { return b.burst }

// Wait blocks until n tokens are acquired or ctx is done. It polls the
// non-blocking operations, so it never reserves tokens ahead of other callers.
func Wait(ctx context.Context, l Limiter, n int) error {
	for {
		if l.TryAcquire(n) {
			return nil
		}

		wait := l.TimeUntilAvailable(n)
		if wait <= 0 {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

type disabled struct{}

// NewDisabled returns a limiter that admits every call.
func NewDisabled() Limiter {
	return disabled{}
}

func (disabled) TryAcquire(int) bool                  { return true }
func (disabled) TimeUntilAvailable(int) time.Duration { return 0 }
