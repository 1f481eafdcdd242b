package types

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTimeout             = errors.New("stormdrain: request timed out")
	ErrRateLimited         = errors.New("stormdrain: rate limited")
	ErrCacheMiss           = errors.New("stormdrain: no data available in cache")
	ErrFetchFailed         = errors.New("stormdrain: fetch failed")
	ErrShutdownInProgress  = errors.New("stormdrain: shutdown in progress")
	ErrCanceled            = errors.New("stormdrain: request canceled")
	ErrCircuitOpen         = errors.New("stormdrain: circuit breaker open")
	ErrInvalidRequest      = errors.New("stormdrain: invalid request")
	ErrInvalidKey          = errors.New("stormdrain: invalid key")
	ErrEntryTooLarge       = errors.New("stormdrain: entry exceeds cache byte budget")
	ErrCorruptEntry        = errors.New("stormdrain: corrupt cache entry")
	ErrSerializationFailed = errors.New("stormdrain: serialization failed")
	ErrRedisUnavailable    = errors.New("stormdrain: redis unavailable")
	ErrClosed              = errors.New("stormdrain: closed")
	ErrShutdownTimeout     = errors.New("stormdrain: shutdown timeout waiting for workers")
)

// CacheError is returned by the cache store, the outcome ledger and snapshot stores.
type CacheError struct {
	Op    string
	Key   string
	Layer string
	Err   error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s on %s [%s]: %v", e.Op, e.Layer, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s on %s: %v", e.Op, e.Layer, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func NewCacheError(op, key, layer string, err error) *CacheError {
	return &CacheError{
		Op:    op,
		Key:   key,
		Layer: layer,
		Err:   err,
	}
}

// RequestError is the error delivered to a submitter's failure path.
type RequestError struct {
	Op       string
	ID       string
	Endpoint string
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s %s [%s]: %v", e.Op, e.ID, e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func NewRequestError(op string, req *Request, err error) *RequestError {
	re := &RequestError{Op: op, Err: err}
	if req != nil {
		re.ID = req.Identity()
		re.Endpoint = req.Endpoint
	}
	return re
}

// FetchFailed wraps a collaborator error so that both ErrFetchFailed and the
// cause match with errors.Is.
func FetchFailed(cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, ErrFetchFailed) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrFetchFailed, cause)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks a fetch error as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func IsFetchFailed(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

func IsShutdown(err error) bool {
	return errors.Is(err, ErrShutdownInProgress)
}

func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if IsPermanent(err) {
		return false
	}

	// A cache miss only fails CacheOnly requests, and retrying cannot fill the cache
	if IsCacheMiss(err) {
		return false
	}

	// Circuit open is not retryable - need to wait for recovery
	if IsCircuitOpen(err) {
		return false
	}

	if IsShutdown(err) || IsCanceled(err) || errors.Is(err, ErrClosed) {
		return false
	}

	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, context.Canceled) {
		return false
	}

	// Timeouts and collaborator failures are retried within the request's budget
	return true
}

// ErrorKind returns a short label for the error taxonomy, used in metrics tags
// and the outcome ledger.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsTimeout(err):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case IsCacheMiss(err):
		return "cache_miss"
	case IsShutdown(err):
		return "shutdown"
	case IsCanceled(err):
		return "canceled"
	case IsFetchFailed(err):
		return "fetch_failed"
	default:
		return "error"
	}
}

// KindError maps an ErrorKind label back to its sentinel.
func KindError(kind string) error {
	switch kind {
	case "timeout":
		return ErrTimeout
	case "rate_limited":
		return ErrRateLimited
	case "cache_miss":
		return ErrCacheMiss
	case "shutdown":
		return ErrShutdownInProgress
	case "canceled":
		return ErrCanceled
	case "fetch_failed":
		return ErrFetchFailed
	default:
		return nil
	}
}
