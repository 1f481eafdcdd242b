package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/LavishGent/stormdrain/internal/queue"
	"github.com/LavishGent/stormdrain/internal/types"
)

// Handle is the caller's view of one submission. Submissions deduplicated
// onto the same work each get their own handle, and all of them resolve
// with the same outcome.
type Handle struct {
	id        string
	onSuccess func(any)
	onFailure func(error)
	detach    func(*Handle)
	logger    *slog.Logger

	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

var _ queue.Waiter = (*Handle)(nil)

func newHandle(req *types.Request, detach func(*Handle), logger *slog.Logger) *Handle {
	return &Handle{
		id:        req.Identity(),
		onSuccess: req.OnSuccess,
		onFailure: req.OnFailure,
		detach:    detach,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// ID returns the request identity.
func (h *Handle) ID() string {
	return h.id
}

// Done is closed once the handle is resolved.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the outcome is known or ctx ends. Ending ctx only stops
// waiting; the submission stays attached.
func (h *Handle) Wait(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome without blocking. ok is false while pending.
func (h *Handle) Result() (value any, ok bool, err error) {
	select {
	case <-h.done:
		return h.value, true, h.err
	default:
		return nil, false, nil
	}
}

// Cancel detaches this submission and resolves it with ErrCanceled. Other
// submissions of the same identity are unaffected; queued work is dropped
// once none remain. Cancel reports false if the handle was already resolved.
func (h *Handle) Cancel() bool {
	err := &types.RequestError{Op: "cancel", ID: h.id, Err: types.ErrCanceled}
	if !h.resolve(nil, err) {
		return false
	}
	if h.detach != nil {
		h.detach(h)
	}
	return true
}

// Resolve implements queue.Waiter. Only the first resolution counts. The
// submission's callbacks run before Done is closed.
func (h *Handle) Resolve(value any, err error) {
	h.resolve(value, err)
}

func (h *Handle) resolve(value any, err error) bool {
	first := false
	h.once.Do(func() {
		h.value, h.err = value, err
		first = true
	})
	if first {
		h.notify(value, err)
		close(h.done)
	}
	return first
}

func (h *Handle) notify(value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Recovered from panic in request callback", "id", h.id, "panic", r)
		}
	}()

	if err == nil {
		if h.onSuccess != nil {
			h.onSuccess(value)
		}
		return
	}
	if h.onFailure != nil {
		h.onFailure(err)
	}
}
