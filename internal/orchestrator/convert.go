package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LavishGent/stormdrain/internal/types"
)

// As converts a request result to T. Results restored from a cache snapshot
// arrive as json.RawMessage; those, and values of another shape such as a
// map decoded from JSON, are converted through their JSON encoding.
func As[T any](value any) (T, error) {
	var zero T

	switch v := value.(type) {
	case T:
		return v, nil
	case nil:
		return zero, fmt.Errorf("%w: nil value", types.ErrSerializationFailed)
	case json.RawMessage:
		var out T
		if err := json.Unmarshal(v, &out); err != nil {
			return zero, fmt.Errorf("%w: %w", types.ErrSerializationFailed, err)
		}
		return out, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return zero, fmt.Errorf("%w: %w", types.ErrSerializationFailed, err)
		}
		var out T
		if err := json.Unmarshal(data, &out); err != nil {
			return zero, fmt.Errorf("%w: %w", types.ErrSerializationFailed, err)
		}
		return out, nil
	}
}

// WaitAs waits for h and converts its result with As.
func WaitAs[T any](ctx context.Context, h *Handle) (T, error) {
	value, err := h.Wait(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](value)
}
