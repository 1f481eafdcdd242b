package metrics

import (
	"time"

	"github.com/LavishGent/stormdrain/internal/types"
)

// Timer measures a span of work and reports it to a publisher as a timing.
type Timer struct {
	publisher types.Publisher
	name      string
	tags      []string
	start     time.Time
}

// NewTimer starts a timer. A nil publisher makes Stop report nothing.
func NewTimer(publisher types.Publisher, name string, tags ...string) *Timer {
	return &Timer{
		publisher: publisher,
		name:      name,
		tags:      tags,
		start:     time.Now(),
	}
}

// StartAt starts a timer from an earlier instant, such as submission time.
func StartAt(publisher types.Publisher, start time.Time, name string, tags ...string) *Timer {
	t := NewTimer(publisher, name, tags...)
	t.start = start
	return t
}

// Stop records the elapsed time as a timing metric and returns the duration.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)
	if t.publisher != nil {
		t.publisher.Timing(t.name, duration, t.tags...)
	}
	return duration
}

// Elapsed returns the time since the timer was started without recording.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
