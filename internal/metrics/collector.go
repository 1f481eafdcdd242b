// Package metrics aggregates engine statistics and publishes them.
package metrics

import (
	"slices"
	"sync"
	"time"

	"github.com/LavishGent/stormdrain/internal/types"
)

const defaultLatencyWindow = 10000

// StatisticsCollector accumulates engine counters under a single mutex.
// The mean latency is kept incrementally; a fixed window of recent samples
// backs the percentiles.
//
//nolint:govet // Counter struct - logical grouping prioritized over alignment
type StatisticsCollector struct {
	mu sync.Mutex

	submitted    int64
	deduplicated int64
	successes    int64
	failures     int64
	rateLimited  int64
	retries      int64

	cacheHits      int64
	cacheMisses    int64
	evictions      int64
	compressions   int64
	decompressions int64

	concurrent     int64
	peakConcurrent int64

	avgLatency     float64
	latencySamples int64

	window      []time.Duration
	windowIndex int
	windowCount int

	failuresByKind map[string]int64
}

func NewStatisticsCollector() *StatisticsCollector {
	return &StatisticsCollector{
		window:         make([]time.Duration, defaultLatencyWindow),
		failuresByKind: make(map[string]int64),
	}
}

func (c *StatisticsCollector) RecordSubmitted() {
	c.mu.Lock()
	c.submitted++
	c.mu.Unlock()
}

func (c *StatisticsCollector) RecordDeduplicated() {
	c.mu.Lock()
	c.deduplicated++
	c.mu.Unlock()
}

func (c *StatisticsCollector) RecordCacheHit() {
	c.mu.Lock()
	c.cacheHits++
	c.mu.Unlock()
}

func (c *StatisticsCollector) RecordCacheMiss() {
	c.mu.Lock()
	c.cacheMisses++
	c.mu.Unlock()
}

func (c *StatisticsCollector) RecordEvictions(n int) {
	c.mu.Lock()
	c.evictions += int64(n)
	c.mu.Unlock()
}

func (c *StatisticsCollector) RecordCompression() {
	c.mu.Lock()
	c.compressions++
	c.mu.Unlock()
}

func (c *StatisticsCollector) RecordDecompression() {
	c.mu.Lock()
	c.decompressions++
	c.mu.Unlock()
}

// RecordSuccess counts a success and folds latency into the running mean.
func (c *StatisticsCollector) RecordSuccess(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.successes++
	c.latencySamples++
	c.avgLatency += (float64(latency) - c.avgLatency) / float64(c.latencySamples)

	c.window[c.windowIndex] = latency
	c.windowIndex = (c.windowIndex + 1) % len(c.window)
	if c.windowCount < len(c.window) {
		c.windowCount++
	}
}

// RecordFailure counts a failure under kind, as produced by types.ErrorKind.
func (c *StatisticsCollector) RecordFailure(kind string) {
	if kind == "" {
		kind = "error"
	}
	c.mu.Lock()
	c.failures++
	c.failuresByKind[kind]++
	c.mu.Unlock()
}

func (c *StatisticsCollector) RecordRateLimited() {
	c.mu.Lock()
	c.rateLimited++
	c.mu.Unlock()
}

func (c *StatisticsCollector) RecordRetry() {
	c.mu.Lock()
	c.retries++
	c.mu.Unlock()
}

func (c *StatisticsCollector) RequestStarted() {
	c.mu.Lock()
	c.concurrent++
	if c.concurrent > c.peakConcurrent {
		c.peakConcurrent = c.concurrent
	}
	c.mu.Unlock()
}

func (c *StatisticsCollector) RequestFinished() {
	c.mu.Lock()
	if c.concurrent > 0 {
		c.concurrent--
	}
	c.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (c *StatisticsCollector) Snapshot() types.Statistics {
	c.mu.Lock()
	s := types.Statistics{
		Timestamp:      time.Now(),
		Submitted:      c.submitted,
		Deduplicated:   c.deduplicated,
		Successes:      c.successes,
		Failures:       c.failures,
		RateLimited:    c.rateLimited,
		Retries:        c.retries,
		CacheHits:      c.cacheHits,
		CacheMisses:    c.cacheMisses,
		Evictions:      c.evictions,
		Compressions:   c.compressions,
		Decompressions: c.decompressions,
		Concurrent:     c.concurrent,
		PeakConcurrent: c.peakConcurrent,
		AverageLatency: time.Duration(c.avgLatency),
		LatencySamples: c.latencySamples,
		FailuresByKind: make(map[string]int64, len(c.failuresByKind)),
	}
	for k, v := range c.failuresByKind {
		s.FailuresByKind[k] = v
	}
	recent := make([]time.Duration, c.windowCount)
	copy(recent, c.window[:c.windowCount])
	c.mu.Unlock()

	if len(recent) > 0 {
		slices.Sort(recent)
		s.P50Latency = percentile(recent, 50)
		s.P95Latency = percentile(recent, 95)
		s.P99Latency = percentile(recent, 99)
	}
	return s
}

// Reset zeroes every counter, including the concurrency gauges.
func (c *StatisticsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submitted, c.deduplicated = 0, 0
	c.successes, c.failures = 0, 0
	c.rateLimited, c.retries = 0, 0
	c.cacheHits, c.cacheMisses = 0, 0
	c.evictions = 0
	c.compressions, c.decompressions = 0, 0
	c.concurrent, c.peakConcurrent = 0, 0
	c.avgLatency, c.latencySamples = 0, 0
	c.windowIndex, c.windowCount = 0, 0
	c.failuresByKind = make(map[string]int64)
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

var _ types.StatsRecorder = (*StatisticsCollector)(nil)
