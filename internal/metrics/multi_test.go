package metrics

import (
	"testing"
	"time"
)

func TestTee(t *testing.T) {
	t.Run("no recorders yields noop", func(t *testing.T) {
		if _, ok := Tee(nil, nil).(NoOpRecorder); !ok {
			t.Error("Tee(nil, nil) is not a NoOpRecorder")
		}
	})

	t.Run("single recorder returned unwrapped", func(t *testing.T) {
		c := NewStatisticsCollector()
		if got := Tee(nil, c); got != c {
			t.Errorf("Tee() = %T, want the collector itself", got)
		}
	})

	t.Run("fans out to every recorder", func(t *testing.T) {
		a, b := NewStatisticsCollector(), NewStatisticsCollector()
		r := Tee(a, b)

		r.RecordSubmitted()
		r.RecordDeduplicated()
		r.RecordCacheHit()
		r.RecordCacheMiss()
		r.RecordEvictions(3)
		r.RecordCompression()
		r.RecordDecompression()
		r.RecordSuccess(20 * time.Millisecond)
		r.RecordFailure("timeout")
		r.RecordRateLimited()
		r.RecordRetry()
		r.RequestStarted()
		r.RequestFinished()

		for name, c := range map[string]*StatisticsCollector{"a": a, "b": b} {
			s := c.Snapshot()
			if s.Submitted != 1 || s.Deduplicated != 1 {
				t.Errorf("%s: submitted/deduplicated = %d/%d, want 1/1", name, s.Submitted, s.Deduplicated)
			}
			if s.CacheHits != 1 || s.CacheMisses != 1 || s.Evictions != 3 {
				t.Errorf("%s: hits/misses/evictions = %d/%d/%d, want 1/1/3", name, s.CacheHits, s.CacheMisses, s.Evictions)
			}
			if s.Compressions != 1 || s.Decompressions != 1 {
				t.Errorf("%s: compressions/decompressions = %d/%d, want 1/1", name, s.Compressions, s.Decompressions)
			}
			if s.Successes != 1 || s.Failures != 1 || s.RateLimited != 1 || s.Retries != 1 {
				t.Errorf("%s: successes/failures/rateLimited/retries = %d/%d/%d/%d, want 1/1/1/1",
					name, s.Successes, s.Failures, s.RateLimited, s.Retries)
			}
			if s.PeakConcurrent != 1 || s.Concurrent != 0 {
				t.Errorf("%s: peak/concurrent = %d/%d, want 1/0", name, s.PeakConcurrent, s.Concurrent)
			}
		}
	})
}
