package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavishGent/stormdrain/internal/config"
	"github.com/LavishGent/stormdrain/internal/types"
)

// CircuitBreakerExecutor defines the interface for circuit breaker operations.
type CircuitBreakerExecutor interface {
	Name() string
	Execute(fn func() (any, error)) (any, error)
	Allow() bool
	RecordSuccess()
	RecordFailure()
	State() State
	IsOpen() bool
	SetOnStateChange(fn func(from, to State))
}

// Policy runs fetch attempts through the retry policy and the circuit
// breaker. Execution order: Retry -> Circuit Breaker -> attempt, so that
// every attempt, including retries, counts toward the circuit state.
type Policy struct {
	retry          *RetryPolicy
	circuitBreaker CircuitBreakerExecutor
	logger         *slog.Logger
	onCircuit      []func(from, to State)
}

// NewPolicy builds a policy from the retry and circuit breaker sections of
// cfg. The breaker is replaced by a pass-through one when it is disabled.
func NewPolicy(retry config.RetryConfig, breaker config.CircuitBreakerConfig, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Policy{
		retry:  NewRetryPolicy(retry),
		logger: logger.With("component", "resilience"),
	}

	if breaker.Enabled {
		p.circuitBreaker = NewCircuitBreaker("fetch", breaker)
	} else {
		p.circuitBreaker = NewDisabledCircuitBreaker()
	}

	p.retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		p.logger.Debug("Retrying fetch", "attempt", attempt, "backoff", backoff, "error", err)
	}
	p.circuitBreaker.SetOnStateChange(func(from, to State) {
		p.logger.Warn("Circuit breaker state changed",
			"breaker", p.circuitBreaker.Name(),
			"from", from.String(),
			"to", to.String(),
		)
		for _, fn := range p.onCircuit {
			fn(from, to)
		}
	})

	return p
}

// OnCircuitChange registers fn to run after each circuit state transition.
// Register before the first Execute.
func (p *Policy) OnCircuitChange(fn func(from, to State)) {
	p.onCircuit = append(p.onCircuit, fn)
}

// Execute runs fn with up to retries retries. A rejected attempt from an
// open circuit fails with FetchFailed(ErrCircuitOpen) and is not retried.
func (p *Policy) Execute(ctx context.Context, retries int, fn AttemptFunc) (any, error) {
	result, err := p.retry.Do(ctx, retries, func(ctx context.Context, attempt int) (any, error) {
		return p.circuitBreaker.Execute(func() (any, error) {
			return fn(ctx, attempt)
		})
	})
	if err != nil && IsCircuitOpen(err) {
		return nil, types.FetchFailed(err)
	}
	return result, err
}

// CircuitBreaker returns the circuit breaker component.
func (p *Policy) CircuitBreaker() CircuitBreakerExecutor {
	return p.circuitBreaker
}

// Retry returns the retry component.
func (p *Policy) Retry() *RetryPolicy {
	return p.retry
}

// IsCircuitOpen returns true if the circuit breaker is open.
func (p *Policy) IsCircuitOpen() bool {
	return p.circuitBreaker.IsOpen()
}

// CircuitState returns the current circuit breaker state.
func (p *Policy) CircuitState() State {
	return p.circuitBreaker.State()
}

var (
	_ CircuitBreakerExecutor = (*CircuitBreaker)(nil)
	_ CircuitBreakerExecutor = (*DisabledCircuitBreaker)(nil)
)
