package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/LavishGent/stormdrain/internal/config"
	"github.com/LavishGent/stormdrain/internal/types"
)

const layerLedger = "ledger"

// Outcome is the retained terminal state of a request identity.
//
//nolint:govet // Ledger record - field order mirrors the encoded form
type Outcome struct {
	ID          string             `json:"id"`
	State       types.RequestState `json:"state"`
	ErrKind     string             `json:"errKind,omitempty"`
	ErrMessage  string             `json:"error,omitempty"`
	Value       json.RawMessage    `json:"value,omitempty"`
	CompletedAt time.Time          `json:"completedAt"`
}

// recordedError restores a failure from the ledger. It matches the sentinel
// of its kind with errors.Is and keeps the original message.
type recordedError struct {
	kind error
	msg  string
}

func (e *recordedError) Error() string { return e.msg }
func (e *recordedError) Unwrap() error { return e.kind }

// Status converts the outcome to the public status form.
func (o *Outcome) Status() types.Status {
	st := types.Status{
		ID:          o.ID,
		State:       o.State,
		Value:       o.Value,
		CompletedAt: o.CompletedAt,
	}
	if o.ErrMessage != "" {
		st.Err = &recordedError{kind: types.KindError(o.ErrKind), msg: o.ErrMessage}
	}
	return st
}

// Ledger retains terminal request outcomes for a bounded time and size.
// It is backed by BigCache, so old outcomes age out without per-entry timers.
type Ledger struct {
	cache      *bigcache.BigCache
	serializer types.Serializer
	logger     *slog.Logger
	// maxRecord caps an encoded record. Larger records are kept without
	// their value. Zero means no cap.
	maxRecord int

	records atomic.Int64
	lookups atomic.Int64
	expired atomic.Int64
	closed  atomic.Bool
}

// NewLedger creates a ledger that keeps outcomes for cfg.Retention.
func NewLedger(cfg config.StatusConfig, serializer types.Serializer, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if serializer == nil {
		serializer = NewJSONSerializer()
	}

	l := &Ledger{
		serializer: serializer,
		logger:     logger.With("component", "outcome-ledger"),
	}
	if cfg.MaxSizeMB > 0 && cfg.Shards > 0 {
		// bigcache rejects entries larger than one shard; leave room for
		// its entry header and for other records in the same shard.
		l.maxRecord = cfg.MaxSizeMB * 1024 * 1024 / cfg.Shards / 2
	}

	cleanWindow := cfg.Retention / 4
	if cleanWindow < time.Second {
		cleanWindow = time.Second
	}

	bcConfig := bigcache.Config{
		Shards:             cfg.Shards,
		LifeWindow:         cfg.Retention,
		CleanWindow:        cleanWindow,
		MaxEntriesInWindow: 10_000,
		MaxEntrySize:       512,
		HardMaxCacheSize:   cfg.MaxSizeMB,
		Verbose:            false,
		Logger:             &bigcacheLogger{logger: l.logger},
		OnRemoveWithReason: func(key string, entry []byte, reason bigcache.RemoveReason) {
			if reason == bigcache.Expired || reason == bigcache.NoSpace {
				l.expired.Add(1)
			}
		},
	}

	bc, err := bigcache.New(context.Background(), bcConfig)
	if err != nil {
		return nil, types.NewCacheError("New", "", layerLedger, err)
	}

	l.cache = bc
	return l, nil
}

// Record stores an outcome, replacing any earlier outcome for the same id.
// A value too large to retain is dropped so the terminal state survives.
func (l *Ledger) Record(o Outcome) error {
	if l.closed.Load() {
		return types.ErrClosed
	}

	data, err := l.serializer.Marshal(o)
	if err != nil {
		return types.NewCacheError("Record", o.ID, layerLedger, err)
	}
	if l.maxRecord > 0 && len(data) > l.maxRecord && o.Value != nil {
		l.logger.Debug("Outcome value too large to retain", "id", o.ID, "bytes", len(data))
		return l.recordWithoutValue(o)
	}

	if err := l.cache.Set(o.ID, data); err != nil {
		if o.Value != nil {
			l.logger.Debug("Outcome rejected, retrying without value", "id", o.ID, "error", err)
			return l.recordWithoutValue(o)
		}
		return types.NewCacheError("Record", o.ID, layerLedger, err)
	}

	l.records.Add(1)
	return nil
}

func (l *Ledger) recordWithoutValue(o Outcome) error {
	o.Value = nil
	data, err := l.serializer.Marshal(o)
	if err != nil {
		return types.NewCacheError("Record", o.ID, layerLedger, err)
	}
	if err := l.cache.Set(o.ID, data); err != nil {
		return types.NewCacheError("Record", o.ID, layerLedger, err)
	}
	l.records.Add(1)
	return nil
}

// Lookup returns the retained outcome for id.
func (l *Ledger) Lookup(id string) (*Outcome, bool) {
	if l.closed.Load() {
		return nil, false
	}
	l.lookups.Add(1)

	data, resp, err := l.cache.GetWithInfo(id)
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			l.logger.Debug("Ledger lookup failed", "id", id, "error", err)
		}
		return nil, false
	}
	if resp.EntryStatus == bigcache.Expired {
		return nil, false
	}

	var o Outcome
	if err := l.serializer.Unmarshal(data, &o); err != nil {
		l.logger.Warn("Dropping unreadable ledger record", "id", id, "error", err)
		_ = l.cache.Delete(id)
		return nil, false
	}
	return &o, true
}

// Forget removes the outcome for id.
func (l *Ledger) Forget(id string) {
	if l.closed.Load() {
		return
	}
	if err := l.cache.Delete(id); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		l.logger.Debug("Ledger delete failed", "id", id, "error", err)
	}
}

// Len returns the number of retained outcomes.
func (l *Ledger) Len() int {
	if l.closed.Load() {
		return 0
	}
	return l.cache.Len()
}

// Records returns how many outcomes have been recorded in total.
func (l *Ledger) Records() int64 {
	return l.records.Load()
}

func (l *Ledger) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	return l.cache.Close()
}

type bigcacheLogger struct {
	logger *slog.Logger
}

func (b *bigcacheLogger) Printf(format string, args ...any) {
	b.logger.Debug("bigcache: "+format, args...)
}
