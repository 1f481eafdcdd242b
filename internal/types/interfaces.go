package types

import (
	"context"
	"time"
)

// Fetcher is the live data source collaborator. Implementations should honor
// ctx; a call that outlives its deadline is abandoned by the engine.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (any, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, req *Request) (any, error)

func (f FetchFunc) Fetch(ctx context.Context, req *Request) (any, error) {
	return f(ctx, req)
}

type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, dest interface{}) error
}

// StatsRecorder receives engine events. The cache store reports cache events
// and workers report request events.
type StatsRecorder interface {
	RecordSubmitted()
	RecordDeduplicated()
	RecordCacheHit()
	RecordCacheMiss()
	RecordEvictions(n int)
	RecordCompression()
	RecordDecompression()
	RecordSuccess(latency time.Duration)
	RecordFailure(kind string)
	RecordRateLimited()
	RecordRetry()
	RequestStarted()
	RequestFinished()
}

// Publisher ships metrics to an external backend.
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text string, alertType string, tags ...string)
	PublishHealthMetrics(metrics *PublisherHealthMetrics)
	Close() error
}

// SnapshotEntry is the persisted form of a cache entry.
//
//nolint:govet // Persistence record - field order mirrors the encoded form
type SnapshotEntry struct {
	Key         string          `json:"key"`
	Payload     []byte          `json:"payload"`
	ValueKind   string          `json:"valueKind"`
	Compression CompressionMode `json:"compression"`
	Tags        []string        `json:"tags,omitempty"`
	Priority    CachePriority   `json:"priority"`
	CreatedAt   time.Time       `json:"createdAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	AccessCount int64           `json:"accessCount"`
}

// SnapshotStore persists cache contents across restarts.
type SnapshotStore interface {
	Name() string
	Save(ctx context.Context, entries []SnapshotEntry) error
	Load(ctx context.Context) ([]SnapshotEntry, error)
	Close() error
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
