package config

import "time"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			Workers:          5,
			ShutdownGrace:    5 * time.Second,
			DrainOnShutdown:  true,
			IdlePollInterval: 100 * time.Millisecond,
			RateLimitBackoff: 100 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Cache: CacheConfig{
			Enabled:              true,
			ByteBudget:           100 * 1024 * 1024, // 100MB
			CompressionEnabled:   true,
			CompressionThreshold: 1024,
			LRUKeepFactor:        0.8,
			DefaultTTL:           time.Hour,
			SweepInterval:        5 * time.Minute,
		},
		Requests: RequestDefaults{
			Priority: "medium",
			Strategy: "cache-first",
			TTL:      300 * time.Second,
			Timeout:  10 * time.Second,
			Retries:  2,
		},
		Retry: RetryConfig{
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.0,
			Jitter:         true,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			SuccessThreshold:    2,
			OpenDuration:        30 * time.Second,
			HalfOpenMaxRequests: 3,
		},
		Status: StatusConfig{
			Retention: 10 * time.Minute,
			MaxSizeMB: 16,
			Shards:    64,
		},
		Snapshot: SnapshotConfig{
			Enabled:     false,
			Backend:     "file",
			Path:        "stormdrain-cache.json",
			SaveTimeout: 5 * time.Second,
			Redis: RedisConfig{
				Address:      "localhost:6379",
				Password:     SecretString{},
				KeyPrefix:    "stormdrain:",
				PoolSize:     10,
				MinIdleConns: 1,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
				PoolTimeout:  4 * time.Second,
			},
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			PublishInterval: 10 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "stormdrain",
				Tags:      []string{},
			},
			Prometheus: PrometheusConfig{
				Enabled:   false,
				Namespace: "stormdrain",
			},
		},
		KeyValidation: KeyValidationConfig{
			Enabled:           true,
			MaxKeyLength:      1024,
			MaxTags:           64,
			AllowEmpty:        false,
			AllowControlChars: false,
			AllowWhitespace:   true,
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests.
// Rate limiting, the circuit breaker and metrics are off and backoffs are short.
func ForTesting() *Config {
	cfg := DefaultConfig()

	cfg.Orchestrator.Workers = 2
	cfg.Orchestrator.ShutdownGrace = 2 * time.Second
	cfg.Orchestrator.IdlePollInterval = 5 * time.Millisecond
	cfg.Orchestrator.RateLimitBackoff = 5 * time.Millisecond

	cfg.RateLimit.Enabled = false

	cfg.Cache.ByteBudget = 1024 * 1024 // 1MB
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Cache.SweepInterval = 0

	cfg.Requests.TTL = time.Minute
	cfg.Requests.Timeout = time.Second
	cfg.Requests.Retries = 0

	cfg.Retry = RetryConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     2.0,
		Jitter:         false,
	}

	cfg.CircuitBreaker = CircuitBreakerConfig{
		Enabled:             false,
		FailureThreshold:    3,
		SuccessThreshold:    1,
		OpenDuration:        time.Second,
		HalfOpenMaxRequests: 1,
	}

	cfg.Status = StatusConfig{
		Retention: time.Minute,
		MaxSizeMB: 1,
		Shards:    16,
	}

	cfg.Snapshot.Enabled = false
	cfg.Snapshot.SaveTimeout = time.Second
	cfg.Snapshot.Redis.KeyPrefix = "test:"
	cfg.Snapshot.Redis.DialTimeout = time.Second
	cfg.Snapshot.Redis.ReadTimeout = time.Second
	cfg.Snapshot.Redis.WriteTimeout = time.Second
	cfg.Snapshot.Redis.PoolTimeout = time.Second

	cfg.Metrics = MetricsConfig{
		Enabled:         false,
		PublishInterval: time.Second,
	}

	return cfg
}

// ForTestingWithRedis returns a test config with the Redis snapshot backend enabled.
func ForTestingWithRedis(addr string) *Config {
	cfg := ForTesting()
	cfg.Snapshot.Enabled = true
	cfg.Snapshot.Backend = "redis"
	cfg.Snapshot.Redis.Address = addr
	return cfg
}
