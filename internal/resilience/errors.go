package resilience

import (
	"context"
	"errors"

	"github.com/LavishGent/stormdrain/internal/types"
)

var ErrCircuitOpen = types.ErrCircuitOpen

// IsCircuitOpen returns true if the error is a circuit open error.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, types.ErrCircuitOpen)
}

// IsRetryable reports whether a failed fetch attempt is worth another try.
// Timeouts and collaborator failures are; an open circuit, cancellation,
// shutdown and permanent errors are not.
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}

// countsAsFailure reports whether err says something about the health of
// the fetch target. Cancellation and shutdown do not.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || types.IsCanceled(err) || types.IsShutdown(err) {
		return false
	}
	return !IsCircuitOpen(err)
}
