package types

import "time"

// HealthStatus represents the overall health state.
type HealthStatus int

const (
	// HealthStatusHealthy indicates all systems operating normally.
	HealthStatusHealthy HealthStatus = iota + 1
	// HealthStatusDegraded indicates partial functionality (e.g., circuit open).
	HealthStatusDegraded
	// HealthStatusUnhealthy indicates the engine is not accepting work.
	HealthStatusUnhealthy
)

// String returns the string representation of health status.
func (s HealthStatus) String() string {
	switch s {
	case HealthStatusHealthy:
		return "healthy"
	case HealthStatusDegraded:
		return "degraded"
	case HealthStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// HealthMetrics contains overall engine health information.
//
//nolint:govet // Metrics struct - logical grouping prioritized for readability
type HealthMetrics struct {
	Timestamp           time.Time
	Cache               CacheStats
	CircuitBreakerState string
	SnapshotBackend     string
	QueueDepth          int
	InFlight            int
	Workers             int
	Accepting           bool
	Status              HealthStatus
}

// CacheStats is a point-in-time view of the cache store.
//
//nolint:govet // Metrics struct with many counters - grouping by category improves readability
type CacheStats struct {
	Hits           int64
	Misses         int64
	Evictions      int64
	Compressions   int64
	Decompressions int64

	Entries     int
	SizeBytes   int64
	BudgetBytes int64
}

// HitRate returns the hit percentage in [0, 100].
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Utilization returns the share of the byte budget in use as a percentage.
func (s CacheStats) Utilization() float64 {
	if s.BudgetBytes <= 0 {
		return 0
	}
	return float64(s.SizeBytes) / float64(s.BudgetBytes) * 100
}

// Statistics is a point-in-time view of the engine counters.
//
//nolint:govet // Metrics struct with many counters - grouping by category improves readability
type Statistics struct {
	Timestamp time.Time

	// Request counters
	Submitted    int64
	Deduplicated int64
	Successes    int64
	Failures     int64
	RateLimited  int64
	Retries      int64

	// Cache counters
	CacheHits      int64
	CacheMisses    int64
	Evictions      int64
	Compressions   int64
	Decompressions int64

	// Concurrency
	Concurrent     int64
	PeakConcurrent int64

	// Running mean of submit-to-completion latency for successful requests
	AverageLatency time.Duration
	LatencySamples int64

	// Percentiles over the most recent successful requests
	P50Latency time.Duration
	P95Latency time.Duration
	P99Latency time.Duration

	FailuresByKind map[string]int64

	// Filled in by the orchestrator
	QueueSize      int
	InFlight       int
	CacheEntries   int
	CacheSizeBytes int64
}

// CacheHitRatio returns the hit percentage in [0, 100].
func (s *Statistics) CacheHitRatio() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total) * 100
}

// SuccessRatio returns successes over completed requests in [0, 1].
func (s *Statistics) SuccessRatio() float64 {
	total := s.Successes + s.Failures
	if total == 0 {
		return 0
	}
	return float64(s.Successes) / float64(total)
}

// PublisherHealthMetrics is the batch of gauges pushed by background publishers.
//
//nolint:govet // Metrics struct - logical grouping prioritized for readability
type PublisherHealthMetrics struct {
	CacheUsedBytes       int64
	CacheLimitBytes      int64
	CacheUsagePercentage float64
	CacheEntries         int64
	HitRatio             float64
	AverageLatencyMs     float64
	QueueDepth           int64
	InFlight             int64
	Successes            int64
	Failures             int64
	RateLimited          int64
	Accepting            bool
}
