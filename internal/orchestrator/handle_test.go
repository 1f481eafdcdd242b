package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/LavishGent/stormdrain/internal/types"
)

func testHandle(req *types.Request) *Handle {
	return newHandle(req, nil, slog.Default())
}

func TestHandleResolve(t *testing.T) {
	h := testHandle(types.NewRequest("weather", nil))

	if _, ok, _ := h.Result(); ok {
		t.Fatal("Result() ok = true before resolution")
	}

	h.Resolve("sunny", nil)
	h.Resolve("ignored", errors.New("late"))

	v, ok, err := h.Result()
	if !ok || err != nil || v != "sunny" {
		t.Errorf("Result() = (%v, %v, %v), want (sunny, true, nil)", v, ok, err)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done() not closed after Resolve")
	}
}

func TestHandleWait(t *testing.T) {
	t.Run("returns the outcome", func(t *testing.T) {
		h := testHandle(types.NewRequest("weather", nil))
		go h.Resolve(nil, types.ErrCacheMiss)

		_, err := h.Wait(context.Background())
		if !errors.Is(err, types.ErrCacheMiss) {
			t.Errorf("Wait() error = %v, want ErrCacheMiss", err)
		}
	})

	t.Run("stops at the context deadline", func(t *testing.T) {
		h := testHandle(types.NewRequest("weather", nil))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := h.Wait(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
		}
		if _, ok, _ := h.Result(); ok {
			t.Error("handle resolved by an expired Wait")
		}
	})
}

func TestHandleCallbacks(t *testing.T) {
	tests := []struct {
		name        string
		value       any
		err         error
		wantSuccess bool
		wantFailure bool
	}{
		{"success", "sunny", nil, true, false},
		{"failure", nil, types.ErrTimeout, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSuccess, gotFailure bool
			req := types.NewRequest("weather", nil, types.WithCallbacks(
				func(any) { gotSuccess = true },
				func(error) { gotFailure = true },
			))
			h := testHandle(req)

			h.Resolve(tt.value, tt.err)
			<-h.Done()

			if gotSuccess != tt.wantSuccess {
				t.Errorf("OnSuccess called = %v, want %v", gotSuccess, tt.wantSuccess)
			}
			if gotFailure != tt.wantFailure {
				t.Errorf("OnFailure called = %v, want %v", gotFailure, tt.wantFailure)
			}
		})
	}
}

func TestHandleCallbackPanic(t *testing.T) {
	req := types.NewRequest("weather", nil, types.WithCallbacks(nil, func(error) { panic("boom") }))
	h := testHandle(req)

	h.Resolve(nil, types.ErrTimeout)

	select {
	case <-h.Done():
	default:
		t.Fatal("Done() not closed after a panicking callback")
	}
}

func TestHandleCancel(t *testing.T) {
	var detached *Handle
	req := types.NewRequest("weather", nil)
	h := newHandle(req, func(d *Handle) { detached = d }, slog.Default())

	if !h.Cancel() {
		t.Fatal("Cancel() = false on a pending handle")
	}
	if detached != h {
		t.Error("Cancel() did not detach the handle")
	}
	if h.Cancel() {
		t.Error("second Cancel() = true, want false")
	}

	_, err := h.Wait(context.Background())
	if !types.IsCanceled(err) {
		t.Errorf("Wait() error = %v, want ErrCanceled", err)
	}
	var reqErr *types.RequestError
	if !errors.As(err, &reqErr) || reqErr.ID != req.Identity() {
		t.Errorf("Wait() error = %#v, want RequestError for %s", err, req.Identity())
	}
}

type reading struct {
	City  string  `json:"city"`
	TempC float64 `json:"tempC"`
}

func TestAs(t *testing.T) {
	t.Run("same type", func(t *testing.T) {
		got, err := As[reading](reading{City: "Oslo", TempC: 4.5})
		if err != nil || got.City != "Oslo" {
			t.Errorf("As() = (%v, %v), want Oslo reading", got, err)
		}
	})

	t.Run("raw json from a snapshot", func(t *testing.T) {
		got, err := As[reading](json.RawMessage(`{"city":"Bergen","tempC":9}`))
		if err != nil || got != (reading{City: "Bergen", TempC: 9}) {
			t.Errorf("As() = (%v, %v), want Bergen reading", got, err)
		}
	})

	t.Run("decoded map", func(t *testing.T) {
		got, err := As[reading](map[string]any{"city": "Tromsø", "tempC": -3.0})
		if err != nil || got != (reading{City: "Tromsø", TempC: -3}) {
			t.Errorf("As() = (%v, %v), want Tromsø reading", got, err)
		}
	})

	t.Run("raw json kept when asked for", func(t *testing.T) {
		raw := json.RawMessage(`[1,2]`)
		got, err := As[json.RawMessage](raw)
		if err != nil || string(got) != "[1,2]" {
			t.Errorf("As() = (%s, %v), want [1,2]", got, err)
		}
	})

	errorCases := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"malformed json", json.RawMessage(`{"city":`)},
		{"incompatible shape", "just a string"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := As[reading](tt.value); !errors.Is(err, types.ErrSerializationFailed) {
				t.Errorf("As() error = %v, want ErrSerializationFailed", err)
			}
		})
	}
}

func TestWaitAs(t *testing.T) {
	h := testHandle(types.NewRequest("weather", nil))
	h.Resolve(json.RawMessage(`{"city":"Oslo","tempC":1.5}`), nil)

	got, err := WaitAs[reading](context.Background(), h)
	if err != nil || got.TempC != 1.5 {
		t.Errorf("WaitAs() = (%v, %v), want tempC 1.5", got, err)
	}

	failed := testHandle(types.NewRequest("weather", nil))
	failed.Resolve(nil, types.ErrTimeout)
	if _, err := WaitAs[reading](context.Background(), failed); !types.IsTimeout(err) {
		t.Errorf("WaitAs() error = %v, want ErrTimeout", err)
	}
}
