package stormdrain

import (
	"context"

	"github.com/LavishGent/stormdrain/internal/orchestrator"
	"github.com/LavishGent/stormdrain/internal/types"
)

type (
	// Request describes one logical upstream call.
	Request = types.Request
	// Handle is a submitter's view of a request's eventual outcome.
	Handle = orchestrator.Handle
	// Priority orders queued requests. Lower values dispatch first.
	Priority = types.Priority
	// Strategy decides how the cache and the fetcher combine for a request.
	Strategy = types.Strategy
	// Status is the queryable state of a request.
	Status = types.Status
	// RequestState is the lifecycle position of a request.
	RequestState = types.RequestState
	// Statistics is a point-in-time view of engine counters.
	Statistics = types.Statistics
	// CacheStats is a point-in-time view of the cache store.
	CacheStats = types.CacheStats
	// CachePriority influences eviction order of cache entries.
	CachePriority = types.CachePriority
	// Fetcher performs the upstream call for a request.
	Fetcher = types.Fetcher
	// FetchFunc adapts a plain function to Fetcher.
	FetchFunc = types.FetchFunc
	// Serializer provides serialization and deserialization operations.
	Serializer = types.Serializer
	// StatsRecorder receives engine events.
	StatsRecorder = types.StatsRecorder
	// Publisher ships metrics to an external system.
	Publisher = types.Publisher
	// SnapshotStore persists the cache between runs.
	SnapshotStore = types.SnapshotStore
	// Logger provides logging operations.
	Logger = types.Logger
	// HealthStatus represents the overall health state.
	HealthStatus = types.HealthStatus
	// HealthMetrics contains overall orchestrator health information.
	HealthMetrics = types.HealthMetrics
)

const (
	PriorityCritical   = types.PriorityCritical
	PriorityHigh       = types.PriorityHigh
	PriorityMedium     = types.PriorityMedium
	PriorityLow        = types.PriorityLow
	PriorityBackground = types.PriorityBackground
)

const (
	CachePriorityLow    = types.CachePriorityLow
	CachePriorityNormal = types.CachePriorityNormal
	CachePriorityHigh   = types.CachePriorityHigh
)

const (
	StateUnknown   = types.StateUnknown
	StateQueued    = types.StateQueued
	StateInFlight  = types.StateInFlight
	StateCompleted = types.StateCompleted
	StateFailed    = types.StateFailed
	StateCanceled  = types.StateCanceled
)

const (
	HealthStatusHealthy   = types.HealthStatusHealthy
	HealthStatusDegraded  = types.HealthStatusDegraded
	HealthStatusUnhealthy = types.HealthStatusUnhealthy
)

// Strategies.
var (
	CacheOnly  Strategy = types.CacheOnly{}
	CacheFirst Strategy = types.CacheFirst{}
	APIFirst   Strategy = types.APIFirst{}
	APIOnly    Strategy = types.APIOnly{}
	Refresh    Strategy = types.Refresh{}
)

// ParsePriority maps a name such as "high" to a Priority. Unknown names
// yield PriorityMedium.
func ParsePriority(s string) Priority {
	return types.ParsePriority(s)
}

// ParseStrategy maps a name such as "cache-first" to a Strategy. Unknown
// names yield CacheFirst.
func ParseStrategy(s string) Strategy {
	return types.ParseStrategy(s)
}

// As converts a resolved value into T. Values restored from a snapshot
// arrive as raw JSON and are decoded here.
func As[T any](value any) (T, error) {
	return orchestrator.As[T](value)
}

// WaitAs waits for h and converts its value into T.
func WaitAs[T any](ctx context.Context, h *Handle) (T, error) {
	return orchestrator.WaitAs[T](ctx, h)
}
