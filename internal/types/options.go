package types

import "time"

// CacheOptions controls a single cache store write.
type CacheOptions struct {
	Tags     []string
	TTL      time.Duration
	Priority CachePriority
	// NoExpiry stores the entry without a TTL, ignoring the store default.
	NoExpiry bool
}

// Option is a functional option for configuring cache operations.
type Option func(*CacheOptions)

// DefaultOptions returns options that defer TTL and priority to the store.
func DefaultOptions() *CacheOptions {
	return &CacheOptions{}
}

// ApplyOptions applies functional options to create CacheOptions.
func ApplyOptions(opts ...Option) *CacheOptions {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func WithTTL(ttl time.Duration) Option {
	return func(o *CacheOptions) { o.TTL = ttl }
}

func WithTags(tags ...string) Option {
	return func(o *CacheOptions) { o.Tags = append(o.Tags, tags...) }
}

func WithCachePriority(p CachePriority) Option {
	return func(o *CacheOptions) { o.Priority = p }
}

func WithNoExpiry() Option {
	return func(o *CacheOptions) { o.NoExpiry = true }
}

// OrchestratorOptions holds collaborators injected at construction.
type OrchestratorOptions struct {
	// Logger is the structured logger to use.
	Logger Logger

	// Stats additionally receives every engine event. The built-in collector
	// still backs Statistics().
	Stats StatsRecorder

	// Publisher overrides the publisher chosen from config.
	Publisher Publisher

	// Serializer is used for composite value compression, status values and snapshots.
	Serializer Serializer

	// Snapshot overrides the snapshot store chosen from config.
	Snapshot SnapshotStore

	// RedisPassword overrides the snapshot Redis password from config.
	// Uses SecretString to prevent accidental logging of sensitive values.
	RedisPassword SecretString

	// DisableResilience disables the circuit breaker around fetches.
	DisableResilience bool

	// DisableRateLimit admits every fetch.
	DisableRateLimit bool
}
