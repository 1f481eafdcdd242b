package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavishGent/stormdrain/internal/config"
)

func BenchmarkCircuitBreaker_Allow(b *testing.B) {
	cb := NewCircuitBreaker("fetch", config.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenDuration:     30 * time.Second,
	})

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = cb.Allow()
	}
}

func BenchmarkCircuitBreaker_RecordFailure(b *testing.B) {
	cb := NewCircuitBreaker("fetch", config.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1000000, // Prevent opening during benchmark
		OpenDuration:     30 * time.Second,
	})

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cb.RecordFailure()
	}
}

func BenchmarkRetry_Do_Success(b *testing.B) {
	rp := NewRetryPolicy(config.RetryConfig{InitialBackoff: time.Microsecond})
	ctx := context.Background()
	fn := func(ctx context.Context, attempt int) (any, error) { return nil, nil }

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = rp.Do(ctx, 2, fn)
	}
}

func BenchmarkRetry_Do_FailThenSuccess(b *testing.B) {
	rp := NewRetryPolicy(config.RetryConfig{InitialBackoff: time.Microsecond, MaxBackoff: time.Microsecond})
	ctx := context.Background()
	errTransient := errors.New("transient")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = rp.Do(ctx, 2, func(ctx context.Context, attempt int) (any, error) {
			if attempt == 1 {
				return nil, errTransient
			}
			return nil, nil
		})
	}
}

func BenchmarkPolicy_ExecuteParallel(b *testing.B) {
	p := NewPolicy(
		config.RetryConfig{InitialBackoff: time.Microsecond},
		config.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1000000},
		nil,
	)
	ctx := context.Background()
	fn := func(ctx context.Context, attempt int) (any, error) { return "ok", nil }

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = p.Execute(ctx, 1, fn)
		}
	})
}
