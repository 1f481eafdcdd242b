package stormdrain

import (
	"time"

	"github.com/LavishGent/stormdrain/internal/types"
)

type (
	// RequestOption configures a request built with NewRequest.
	RequestOption = types.RequestOption
	// CacheOption configures a direct cache write.
	CacheOption = types.Option
	// OrchestratorOptions holds the injectable collaborators of an orchestrator.
	OrchestratorOptions = types.OrchestratorOptions
)

// NewRequest builds a request with package defaults. Prefer
// Orchestrator.NewRequest to pick up configured defaults.
func NewRequest(endpoint string, params map[string]any, opts ...RequestOption) *Request {
	return types.NewRequest(endpoint, params, opts...)
}

func WithPriority(p Priority) RequestOption        { return types.WithPriority(p) }
func WithStrategy(s Strategy) RequestOption        { return types.WithStrategy(s) }
func WithCacheTTL(ttl time.Duration) RequestOption { return types.WithCacheTTL(ttl) }
func WithTimeout(d time.Duration) RequestOption    { return types.WithTimeout(d) }
func WithRetries(n int) RequestOption              { return types.WithRetries(n) }
func WithRequestTags(tags ...string) RequestOption { return types.WithRequestTags(tags...) }

// WithCallbacks registers per-submission callbacks. Either may be nil.
func WithCallbacks(onSuccess func(any), onFailure func(error)) RequestOption {
	return types.WithCallbacks(onSuccess, onFailure)
}

// WithMetadata attaches a value that travels with the request but does not
// affect its identity.
func WithMetadata(key string, value any) RequestOption {
	return types.WithMetadata(key, value)
}

// Cache write options for Orchestrator.Cache().Set.
func WithTTL(ttl time.Duration) CacheOption         { return types.WithTTL(ttl) }
func WithTags(tags ...string) CacheOption           { return types.WithTags(tags...) }
func WithCachePriority(p CachePriority) CacheOption { return types.WithCachePriority(p) }
func WithNoExpiry() CacheOption                     { return types.WithNoExpiry() }

// OrchestratorOption customizes construction.
type OrchestratorOption func(*OrchestratorOptions)

func WithLogger(logger Logger) OrchestratorOption {
	return func(o *OrchestratorOptions) {
		o.Logger = logger
	}
}

// WithStats adds a recorder that receives every engine event alongside the
// built-in statistics collector.
func WithStats(stats StatsRecorder) OrchestratorOption {
	return func(o *OrchestratorOptions) {
		o.Stats = stats
	}
}

func WithPublisher(publisher Publisher) OrchestratorOption {
	return func(o *OrchestratorOptions) {
		o.Publisher = publisher
	}
}

func WithSerializer(serializer Serializer) OrchestratorOption {
	return func(o *OrchestratorOptions) {
		o.Serializer = serializer
	}
}

func WithSnapshotStore(store SnapshotStore) OrchestratorOption {
	return func(o *OrchestratorOptions) {
		o.Snapshot = store
	}
}

func WithRedisPassword(password string) OrchestratorOption {
	return func(o *OrchestratorOptions) {
		o.RedisPassword = types.NewSecretString(password)
	}
}

func WithoutResilience() OrchestratorOption {
	return func(o *OrchestratorOptions) {
		o.DisableResilience = true
	}
}

func WithoutRateLimit() OrchestratorOption {
	return func(o *OrchestratorOptions) {
		o.DisableRateLimit = true
	}
}
