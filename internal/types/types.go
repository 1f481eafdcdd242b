// Package types provides shared types for the stormdrain request engine.
// This package breaks import cycles between pkg/stormdrain and the internal packages.
package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Priority orders requests in the queue. Lower values are served first.
type Priority int

const (
	PriorityCritical Priority = iota + 1
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityBackground
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	case PriorityBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the declared priorities.
func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityBackground
}

// ParsePriority converts a configuration string to a Priority.
// Unknown values map to PriorityMedium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "medium", "normal":
		return PriorityMedium
	case "low":
		return PriorityLow
	case "background":
		return PriorityBackground
	default:
		return PriorityMedium
	}
}

// CachePriority is an eviction hint stored with each cache entry.
type CachePriority int

const (
	CachePriorityLow CachePriority = iota + 1
	CachePriorityNormal
	CachePriorityHigh
)

func (p CachePriority) String() string {
	switch p {
	case CachePriorityLow:
		return "low"
	case CachePriorityNormal:
		return "normal"
	case CachePriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// CompressionMode records how a cached value is held in memory.
type CompressionMode int

const (
	CompressionNone CompressionMode = iota
	// CompressionS2 is used for string-like values.
	CompressionS2
	// CompressionZstd is used for serialized composite values.
	CompressionZstd
)

func (m CompressionMode) String() string {
	switch m {
	case CompressionNone:
		return "none"
	case CompressionS2:
		return "s2"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// RequestState is the lifecycle position of a request identity.
type RequestState int

const (
	StateUnknown RequestState = iota
	StateQueued
	StateInFlight
	StateCompleted
	StateFailed
	StateCanceled
)

func (s RequestState) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateInFlight:
		return "in-flight"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s RequestState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCanceled
}

// Status describes a request identity at a point in time.
//
//nolint:govet // Small struct - logical grouping prioritized for readability
type Status struct {
	CompletedAt time.Time
	Err         error
	ID          string
	// Value holds the JSON encoding of a completed result.
	Value json.RawMessage
	State RequestState
}

// EntryInfo describes a cache entry without exposing its value.
//
//nolint:govet // Introspection struct - logical grouping prioritized for readability
type EntryInfo struct {
	CreatedAt   time.Time
	ExpiresAt   time.Time
	AccessedAt  time.Time
	Key         string
	Tags        []string
	AccessCount int64
	SizeBytes   int64
	Compression CompressionMode
	Priority    CachePriority
}

// IsExpired reports whether the entry had expired at now.
func (e *EntryInfo) IsExpired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return now.After(e.ExpiresAt)
}
