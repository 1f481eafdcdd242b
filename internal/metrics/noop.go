package metrics

import (
	"time"

	"github.com/LavishGent/stormdrain/internal/types"
)

// NoOpRecorder discards every event. Used when statistics are not wanted,
// and as the cache store default.
type NoOpRecorder struct{}

func (NoOpRecorder) RecordSubmitted()            {}
func (NoOpRecorder) RecordDeduplicated()         {}
func (NoOpRecorder) RecordCacheHit()             {}
func (NoOpRecorder) RecordCacheMiss()            {}
func (NoOpRecorder) RecordEvictions(int)         {}
func (NoOpRecorder) RecordCompression()          {}
func (NoOpRecorder) RecordDecompression()        {}
func (NoOpRecorder) RecordSuccess(time.Duration) {}
func (NoOpRecorder) RecordFailure(string)        {}
func (NoOpRecorder) RecordRateLimited()          {}
func (NoOpRecorder) RecordRetry()                {}
func (NoOpRecorder) RequestStarted()             {}
func (NoOpRecorder) RequestFinished()            {}

// NoOpPublisher is a no-operation metrics publisher for testing or when disabled.
type NoOpPublisher struct{}

// NewNoOpPublisher creates a new no-op publisher.
func NewNoOpPublisher() *NoOpPublisher {
	return &NoOpPublisher{}
}

func (p *NoOpPublisher) Gauge(name string, value float64, tags ...string)           {}
func (p *NoOpPublisher) Incr(name string, tags ...string)                           {}
func (p *NoOpPublisher) Count(name string, value int64, tags ...string)             {}
func (p *NoOpPublisher) Histogram(name string, value float64, tags ...string)       {}
func (p *NoOpPublisher) Timing(name string, duration time.Duration, tags ...string) {}
func (p *NoOpPublisher) Event(title, text, alertType string, tags ...string)        {}
func (p *NoOpPublisher) PublishHealthMetrics(m *types.PublisherHealthMetrics)       {}
func (p *NoOpPublisher) Close() error                                               { return nil }

var (
	_ types.StatsRecorder = NoOpRecorder{}
	_ types.Publisher     = (*NoOpPublisher)(nil)
)
