package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/LavishGent/stormdrain/internal/types"
)

// Load loads configuration from a JSON or YAML file, chosen by extension.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a file and applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//nolint:gocyclo // Environment variable parsing requires many conditional checks
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STORMDRAIN_WORKERS"); v != "" {
		cfg.Orchestrator.Workers = parseInt(v, cfg.Orchestrator.Workers)
	}
	if v := os.Getenv("STORMDRAIN_SHUTDOWN_GRACE"); v != "" {
		cfg.Orchestrator.ShutdownGrace = parseDuration(v, cfg.Orchestrator.ShutdownGrace)
	}
	if v := os.Getenv("STORMDRAIN_DRAIN_ON_SHUTDOWN"); v != "" {
		cfg.Orchestrator.DrainOnShutdown = parseBool(v)
	}

	if v := os.Getenv("STORMDRAIN_RATE_LIMIT_ENABLED"); v != "" {
		cfg.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("STORMDRAIN_REQUESTS_PER_SECOND"); v != "" {
		cfg.RateLimit.RequestsPerSecond = parseFloat(v, cfg.RateLimit.RequestsPerSecond)
	}
	if v := os.Getenv("STORMDRAIN_BURST"); v != "" {
		cfg.RateLimit.Burst = parseInt(v, cfg.RateLimit.Burst)
	}

	if v := os.Getenv("STORMDRAIN_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("STORMDRAIN_CACHE_MAX_SIZE_MB"); v != "" {
		mb := parseInt(v, int(cfg.Cache.ByteBudget/(1024*1024)))
		cfg.Cache.ByteBudget = int64(mb) * 1024 * 1024
	}
	if v := os.Getenv("STORMDRAIN_CACHE_COMPRESSION_ENABLED"); v != "" {
		cfg.Cache.CompressionEnabled = parseBool(v)
	}
	if v := os.Getenv("STORMDRAIN_CACHE_COMPRESSION_THRESHOLD"); v != "" {
		cfg.Cache.CompressionThreshold = parseInt(v, cfg.Cache.CompressionThreshold)
	}
	if v := os.Getenv("STORMDRAIN_CACHE_LRU_KEEP_FACTOR"); v != "" {
		cfg.Cache.LRUKeepFactor = parseFloat(v, cfg.Cache.LRUKeepFactor)
	}
	if v := os.Getenv("STORMDRAIN_CACHE_DEFAULT_TTL"); v != "" {
		cfg.Cache.DefaultTTL = parseDuration(v, cfg.Cache.DefaultTTL)
	}

	if v := os.Getenv("STORMDRAIN_REQUEST_PRIORITY"); v != "" {
		cfg.Requests.Priority = v
	}
	if v := os.Getenv("STORMDRAIN_REQUEST_STRATEGY"); v != "" {
		cfg.Requests.Strategy = v
	}
	if v := os.Getenv("STORMDRAIN_REQUEST_TIMEOUT"); v != "" {
		cfg.Requests.Timeout = parseDuration(v, cfg.Requests.Timeout)
	}
	if v := os.Getenv("STORMDRAIN_REQUEST_RETRIES"); v != "" {
		cfg.Requests.Retries = parseInt(v, cfg.Requests.Retries)
	}

	if v := os.Getenv("STORMDRAIN_CIRCUIT_BREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("STORMDRAIN_CIRCUIT_BREAKER_FAILURE_THRESHOLD"); v != "" {
		cfg.CircuitBreaker.FailureThreshold = parseInt(v, cfg.CircuitBreaker.FailureThreshold)
	}
	if v := os.Getenv("STORMDRAIN_CIRCUIT_BREAKER_OPEN_DURATION"); v != "" {
		cfg.CircuitBreaker.OpenDuration = parseDuration(v, cfg.CircuitBreaker.OpenDuration)
	}

	if v := os.Getenv("STORMDRAIN_SNAPSHOT_ENABLED"); v != "" {
		cfg.Snapshot.Enabled = parseBool(v)
	}
	if v := os.Getenv("STORMDRAIN_SNAPSHOT_BACKEND"); v != "" {
		cfg.Snapshot.Backend = v
	}
	if v := os.Getenv("STORMDRAIN_SNAPSHOT_PATH"); v != "" {
		cfg.Snapshot.Path = v
	}
	if v := os.Getenv("STORMDRAIN_REDIS_ADDRESS"); v != "" {
		cfg.Snapshot.Redis.Address = v
	}
	if v := os.Getenv("STORMDRAIN_REDIS_PASSWORD"); v != "" {
		cfg.Snapshot.Redis.Password = NewSecretString(v)
	}
	if v := os.Getenv("STORMDRAIN_REDIS_DB"); v != "" {
		cfg.Snapshot.Redis.DB = parseInt(v, cfg.Snapshot.Redis.DB)
	}
	if v := os.Getenv("STORMDRAIN_REDIS_KEY_PREFIX"); v != "" {
		cfg.Snapshot.Redis.KeyPrefix = v
	}
	if v := os.Getenv("STORMDRAIN_REDIS_ENABLE_TLS"); v != "" {
		cfg.Snapshot.Redis.EnableTLS = parseBool(v)
	}

	if v := os.Getenv("STORMDRAIN_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("STORMDRAIN_PROMETHEUS_ENABLED"); v != "" {
		cfg.Metrics.Prometheus.Enabled = parseBool(v)
	}

	if v := os.Getenv("DD_AGENT_HOST"); v != "" {
		cfg.Metrics.DataDog.AgentHost = v
		cfg.Metrics.DataDog.Enabled = true
	}
	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		cfg.Metrics.DataDog.Port = parseInt(v, cfg.Metrics.DataDog.Port)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		cfg.Metrics.DataDog.Prefix = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "env:"+v)
	}
	if v := os.Getenv("DD_VERSION"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "version:"+v)
	}

	if v := os.Getenv("STORMDRAIN_DATADOG_ENABLED"); v != "" {
		if os.Getenv("DD_AGENT_HOST") == "" {
			cfg.Metrics.DataDog.Enabled = parseBool(v)
		}
	}
	if v := os.Getenv("STORMDRAIN_DATADOG_PREFIX"); v != "" {
		if os.Getenv("DD_SERVICE") == "" {
			cfg.Metrics.DataDog.Prefix = v
		}
	}
}

// Validate checks if the configuration is valid.
//
//nolint:gocyclo // One check per field
func (c *Config) Validate() error {
	if c.Orchestrator.Workers <= 0 {
		return fmt.Errorf("orchestrator.workers must be positive")
	}
	if c.Orchestrator.ShutdownGrace < 0 {
		return fmt.Errorf("orchestrator.shutdownGrace must not be negative")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rateLimit.requestsPerSecond must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("rateLimit.burst must be positive")
		}
	}

	if c.Cache.Enabled {
		if c.Cache.ByteBudget <= 0 {
			return fmt.Errorf("cache.byteBudget must be positive")
		}
		if c.Cache.LRUKeepFactor < 0 || c.Cache.LRUKeepFactor >= 1 {
			return fmt.Errorf("cache.lruKeepFactor must be in [0, 1)")
		}
		if c.Cache.CompressionThreshold < 0 {
			return fmt.Errorf("cache.compressionThreshold must not be negative")
		}
	}

	if c.Requests.Priority != "" && !types.ParsePriority(c.Requests.Priority).Valid() {
		return fmt.Errorf("requests.priority %q is not a priority", c.Requests.Priority)
	}
	if c.Requests.Retries < 0 {
		return fmt.Errorf("requests.retries must not be negative")
	}

	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("retry.multiplier must be at least 1")
	}

	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.FailureThreshold <= 0 {
			return fmt.Errorf("circuitBreaker.failureThreshold must be positive")
		}
		if c.CircuitBreaker.OpenDuration <= 0 {
			return fmt.Errorf("circuitBreaker.openDuration must be positive")
		}
	}

	if c.Status.Shards <= 0 || (c.Status.Shards&(c.Status.Shards-1)) != 0 {
		return fmt.Errorf("status.shards must be a positive power of 2")
	}
	if c.Status.MaxSizeMB <= 0 {
		return fmt.Errorf("status.maxSizeMB must be positive")
	}

	if c.Snapshot.Enabled {
		switch c.Snapshot.Backend {
		case "file":
			if c.Snapshot.Path == "" {
				return fmt.Errorf("snapshot.path is required for the file backend")
			}
		case "redis":
			if c.Snapshot.Redis.Address == "" {
				return fmt.Errorf("snapshot.redis.address is required for the redis backend")
			}
			if c.Snapshot.Redis.PoolSize <= 0 {
				return fmt.Errorf("snapshot.redis.poolSize must be positive")
			}
		default:
			return fmt.Errorf("snapshot.backend %q must be file or redis", c.Snapshot.Backend)
		}
	}

	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

func parseFloat(s string, defaultVal float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}
