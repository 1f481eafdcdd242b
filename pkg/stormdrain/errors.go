package stormdrain

import (
	"github.com/LavishGent/stormdrain/internal/types"
)

type (
	// CacheError represents a cache operation error.
	CacheError = types.CacheError
	// RequestError wraps the failure delivered to a request's submitters.
	RequestError = types.RequestError
)

var (
	// ErrTimeout indicates a fetch exceeded the request timeout.
	ErrTimeout = types.ErrTimeout
	// ErrRateLimited indicates no rate limit token was available.
	ErrRateLimited = types.ErrRateLimited
	// ErrCacheMiss indicates that no cached data was available.
	ErrCacheMiss = types.ErrCacheMiss
	// ErrFetchFailed indicates the fetcher returned an error.
	ErrFetchFailed = types.ErrFetchFailed
	// ErrShutdownInProgress indicates the orchestrator stopped before the request resolved.
	ErrShutdownInProgress = types.ErrShutdownInProgress
	// ErrCanceled indicates the request was canceled.
	ErrCanceled = types.ErrCanceled
	// ErrCircuitOpen indicates that the circuit breaker is open.
	ErrCircuitOpen = types.ErrCircuitOpen
	// ErrInvalidRequest indicates a request failed validation.
	ErrInvalidRequest = types.ErrInvalidRequest
	// ErrInvalidKey indicates that a cache key is invalid.
	ErrInvalidKey = types.ErrInvalidKey
	// ErrEntryTooLarge indicates a value larger than the cache byte budget.
	ErrEntryTooLarge = types.ErrEntryTooLarge
	// ErrSerializationFailed indicates that serialization failed.
	ErrSerializationFailed = types.ErrSerializationFailed
	// ErrClosed indicates the orchestrator has been closed.
	ErrClosed = types.ErrClosed
	// ErrShutdownTimeout indicates workers did not stop within the grace period.
	ErrShutdownTimeout = types.ErrShutdownTimeout
)

// FetchFailed wraps an upstream error so it is reported as ErrFetchFailed.
func FetchFailed(cause error) error {
	return types.FetchFailed(cause)
}

// Permanent marks a fetch error as not worth retrying.
func Permanent(err error) error {
	return types.Permanent(err)
}

func IsTimeout(err error) bool     { return types.IsTimeout(err) }
func IsCacheMiss(err error) bool   { return types.IsCacheMiss(err) }
func IsFetchFailed(err error) bool { return types.IsFetchFailed(err) }
func IsShutdown(err error) bool    { return types.IsShutdown(err) }
func IsCanceled(err error) bool    { return types.IsCanceled(err) }
func IsCircuitOpen(err error) bool { return types.IsCircuitOpen(err) }

// IsRetryable returns true if the error can be retried.
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}
