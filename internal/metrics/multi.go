package metrics

import (
	"time"

	"github.com/LavishGent/stormdrain/internal/types"
)

// MultiRecorder forwards every event to each of its recorders in order.
type MultiRecorder []types.StatsRecorder

// Tee combines recorders, skipping nil ones. A single recorder is returned as is.
func Tee(recorders ...types.StatsRecorder) types.StatsRecorder {
	var out MultiRecorder
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	switch len(out) {
	case 0:
		return NoOpRecorder{}
	case 1:
		return out[0]
	default:
		return out
	}
}

func (m MultiRecorder) RecordSubmitted() {
	for _, r := range m {
		r.RecordSubmitted()
	}
}

func (m MultiRecorder) RecordDeduplicated() {
	for _, r := range m {
		r.RecordDeduplicated()
	}
}

func (m MultiRecorder) RecordCacheHit() {
	for _, r := range m {
		r.RecordCacheHit()
	}
}

func (m MultiRecorder) RecordCacheMiss() {
	for _, r := range m {
		r.RecordCacheMiss()
	}
}

func (m MultiRecorder) RecordEvictions(n int) {
	for _, r := range m {
		r.RecordEvictions(n)
	}
}

func (m MultiRecorder) RecordCompression() {
	for _, r := range m {
		r.RecordCompression()
	}
}

func (m MultiRecorder) RecordDecompression() {
	for _, r := range m {
		r.RecordDecompression()
	}
}

func (m MultiRecorder) RecordSuccess(latency time.Duration) {
	for _, r := range m {
		r.RecordSuccess(latency)
	}
}

func (m MultiRecorder) RecordFailure(kind string) {
	for _, r := range m {
		r.RecordFailure(kind)
	}
}

func (m MultiRecorder) RecordRateLimited() {
	for _, r := range m {
		r.RecordRateLimited()
	}
}

func (m MultiRecorder) RecordRetry() {
	for _, r := range m {
		r.RecordRetry()
	}
}

func (m MultiRecorder) RequestStarted() {
	for _, r := range m {
		r.RequestStarted()
	}
}

func (m MultiRecorder) RequestFinished() {
	for _, r := range m {
		r.RequestFinished()
	}
}

var _ types.StatsRecorder = MultiRecorder(nil)
