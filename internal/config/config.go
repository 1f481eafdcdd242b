// Package config provides configuration management for stormdrain.
package config

import (
	"time"

	"github.com/LavishGent/stormdrain/internal/types"
)

// SecretString is a string type that redacts its value when marshaled.
type SecretString = types.SecretString

// NewSecretString creates a new SecretString with the provided value.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Config contains all configuration for the stormdrain engine.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type Config struct {
	Orchestrator   OrchestratorConfig   `json:"orchestrator" yaml:"orchestrator"`
	RateLimit      RateLimitConfig      `json:"rateLimit" yaml:"rateLimit"`
	Cache          CacheConfig          `json:"cache" yaml:"cache"`
	Requests       RequestDefaults      `json:"requests" yaml:"requests"`
	Retry          RetryConfig          `json:"retry" yaml:"retry"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker" yaml:"circuitBreaker"`
	Status         StatusConfig         `json:"status" yaml:"status"`
	Snapshot       SnapshotConfig       `json:"snapshot" yaml:"snapshot"`
	Metrics        MetricsConfig        `json:"metrics" yaml:"metrics"`
	KeyValidation  KeyValidationConfig  `json:"keyValidation" yaml:"keyValidation"`
}

// OrchestratorConfig controls the worker pool and shutdown.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type OrchestratorConfig struct {
	// Workers is the number of concurrent workers.
	Workers int `json:"workers" yaml:"workers"`
	// ShutdownGrace bounds how long Shutdown waits for workers.
	ShutdownGrace time.Duration `json:"shutdownGrace" yaml:"shutdownGrace"`
	// DrainOnShutdown is the drain mode used by Close.
	DrainOnShutdown bool `json:"drainOnShutdown" yaml:"drainOnShutdown"`
	// IdlePollInterval is how long an idle worker sleeps between queue checks.
	IdlePollInterval time.Duration `json:"idlePollInterval" yaml:"idlePollInterval"`
	// RateLimitBackoff caps the sleep after a rate limit deferral.
	RateLimitBackoff time.Duration `json:"rateLimitBackoff" yaml:"rateLimitBackoff"`
}

// RateLimitConfig configures the outbound token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond"`
	Burst             int     `json:"burst" yaml:"burst"`
	Enabled           bool    `json:"enabled" yaml:"enabled"`
}

// CacheConfig configures the in-memory cache store.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type CacheConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// ByteBudget is the maximum total size of cached entries after compression.
	ByteBudget         int64 `json:"byteBudget" yaml:"byteBudget"`
	CompressionEnabled bool  `json:"compressionEnabled" yaml:"compressionEnabled"`
	// CompressionThreshold is the encoded size at which values are compressed.
	CompressionThreshold int `json:"compressionThreshold" yaml:"compressionThreshold"`
	// LRUKeepFactor is the share of entries kept by one eviction batch.
	LRUKeepFactor float64       `json:"lruKeepFactor" yaml:"lruKeepFactor"`
	DefaultTTL    time.Duration `json:"defaultTTL" yaml:"defaultTTL"`
	// SweepInterval runs the expiry janitor. Zero disables it.
	SweepInterval time.Duration `json:"sweepInterval" yaml:"sweepInterval"`
}

// RequestDefaults fills request fields left at their zero value.
//
//nolint:govet // Small config struct - minimal alignment benefit
type RequestDefaults struct {
	Priority string        `json:"priority" yaml:"priority"`
	Strategy string        `json:"strategy" yaml:"strategy"`
	TTL      time.Duration `json:"ttl" yaml:"ttl"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
	Retries  int           `json:"retries" yaml:"retries"`
}

// CircuitBreakerConfig contains configuration for the circuit breaker around fetches.
type CircuitBreakerConfig struct {
	Enabled             bool          `json:"enabled" yaml:"enabled"`
	FailureThreshold    int           `json:"failureThreshold" yaml:"failureThreshold"`
	SuccessThreshold    int           `json:"successThreshold" yaml:"successThreshold"`
	OpenDuration        time.Duration `json:"openDuration" yaml:"openDuration"`
	HalfOpenMaxRequests int           `json:"halfOpenMaxRequests" yaml:"halfOpenMaxRequests"`
}

// RetryConfig shapes the backoff between fetch attempts. The number of
// attempts comes from each request's retry budget.
type RetryConfig struct {
	InitialBackoff time.Duration `json:"initialBackoff" yaml:"initialBackoff"`
	MaxBackoff     time.Duration `json:"maxBackoff" yaml:"maxBackoff"`
	Multiplier     float64       `json:"multiplier" yaml:"multiplier"`
	Jitter         bool          `json:"jitter" yaml:"jitter"`
}

// StatusConfig configures retention of terminal request outcomes.
type StatusConfig struct {
	Retention time.Duration `json:"retention" yaml:"retention"`
	MaxSizeMB int           `json:"maxSizeMB" yaml:"maxSizeMB"`
	Shards    int           `json:"shards" yaml:"shards"`
}

// SnapshotConfig configures warm-start persistence of the cache.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type SnapshotConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Backend is "file" or "redis".
	Backend     string        `json:"backend" yaml:"backend"`
	Path        string        `json:"path" yaml:"path"`
	SaveTimeout time.Duration `json:"saveTimeout" yaml:"saveTimeout"`
	Redis       RedisConfig   `json:"redis" yaml:"redis"`
}

// RedisConfig contains connection settings for the Redis snapshot backend.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type RedisConfig struct {
	DialTimeout   time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout   time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout  time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	PoolTimeout   time.Duration `json:"poolTimeout" yaml:"poolTimeout"`
	Password      SecretString  `json:"password" yaml:"password"`
	Address       string        `json:"address" yaml:"address"`
	KeyPrefix     string        `json:"keyPrefix" yaml:"keyPrefix"`
	DB            int           `json:"db" yaml:"db"`
	PoolSize      int           `json:"poolSize" yaml:"poolSize"`
	MinIdleConns  int           `json:"minIdleConns" yaml:"minIdleConns"`
	EnableTLS     bool          `json:"enableTLS" yaml:"enableTLS"`
	TLSSkipVerify bool          `json:"tlsSkipVerify" yaml:"tlsSkipVerify"`
}

// MetricsConfig contains configuration for metrics publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type MetricsConfig struct {
	PublishInterval time.Duration    `json:"publishInterval" yaml:"publishInterval"`
	DataDog         DataDogConfig    `json:"datadog" yaml:"datadog"`
	Prometheus      PrometheusConfig `json:"prometheus" yaml:"prometheus"`
	Enabled         bool             `json:"enabled" yaml:"enabled"`
}

// DataDogConfig contains configuration for DataDog metrics publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type DataDogConfig struct {
	Tags      []string `json:"tags" yaml:"tags"`
	AgentHost string   `json:"agentHost" yaml:"agentHost"`
	Prefix    string   `json:"prefix" yaml:"prefix"`
	Port      int      `json:"port" yaml:"port"`
	Enabled   bool     `json:"enabled" yaml:"enabled"`
}

// PrometheusConfig controls the Prometheus collector.
type PrometheusConfig struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Enabled   bool   `json:"enabled" yaml:"enabled"`
}

// KeyValidationConfig contains configuration for endpoint, key and tag validation.
type KeyValidationConfig struct {
	ReservedPatterns  []string `json:"reservedPatterns" yaml:"reservedPatterns"`
	MaxKeyLength      int      `json:"maxKeyLength" yaml:"maxKeyLength"`
	MaxTags           int      `json:"maxTags" yaml:"maxTags"`
	Enabled           bool     `json:"enabled" yaml:"enabled"`
	AllowEmpty        bool     `json:"allowEmpty" yaml:"allowEmpty"`
	AllowControlChars bool     `json:"allowControlChars" yaml:"allowControlChars"`
	AllowWhitespace   bool     `json:"allowWhitespace" yaml:"allowWhitespace"`
}

// ToTypesConfig converts this config to a types.KeyValidationConfig.
func (c KeyValidationConfig) ToTypesConfig() types.KeyValidationConfig {
	return types.KeyValidationConfig{
		MaxKeyLength:      c.MaxKeyLength,
		MaxTags:           c.MaxTags,
		AllowEmpty:        c.AllowEmpty,
		AllowControlChars: c.AllowControlChars,
		AllowWhitespace:   c.AllowWhitespace,
		ReservedPatterns:  c.ReservedPatterns,
	}
}

// Validator returns the configured validator, or nil when validation is off.
func (c KeyValidationConfig) Validator() *types.KeyValidator {
	if !c.Enabled {
		return nil
	}
	return types.NewKeyValidator(c.ToTypesConfig())
}
