// Package stormdrain orchestrates calls to a rate-limited upstream API behind
// an adaptive in-memory cache.
//
// Callers submit requests. The orchestrator queues them by priority, merges
// duplicates, spends rate limit tokens only when a fetch is needed and
// answers from the cache whenever the request's strategy allows it.
//
// # Features
//
//   - Priority Queue: Five priority levels with FIFO order inside a level
//   - Deduplication: Identical in-flight requests share one upstream call
//   - Rate Limiting: Token bucket with deferral instead of failure
//   - Adaptive Cache: Byte-budget LRU with TTL, tags and compression
//   - Resilience: Retry with exponential backoff and a circuit breaker
//   - Warm Start: Cache snapshots to a file or Redis across restarts
//   - Observability: Statistics, DataDog and Prometheus metrics
//
// # Quick Start
//
// Wrap the upstream call in a Fetcher and create an orchestrator:
//
//	fetch := stormdrain.FetchFunc(func(ctx context.Context, req *stormdrain.Request) (any, error) {
//	    return client.Get(ctx, req.Endpoint, req.Params)
//	})
//
//	orch, err := stormdrain.New(fetch)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer orch.Close()
//
// # Submitting Requests
//
// Submit returns a Handle that resolves exactly once:
//
//	req := orch.NewRequest("weather", map[string]any{"city": "Oslo"},
//	    stormdrain.WithPriority(stormdrain.PriorityHigh),
//	    stormdrain.WithCacheTTL(10*time.Minute),
//	)
//	h, err := orch.Submit(req)
//	if err != nil {
//	    return err
//	}
//	report, err := stormdrain.WaitAs[Weather](ctx, h)
//
// Values restored from a snapshot arrive as raw JSON. As and WaitAs decode
// them into the caller's type.
//
// # Strategies
//
//   - CacheOnly: Answer from the cache or fail with ErrCacheMiss
//   - CacheFirst: Use the cache, fetch on a miss
//   - APIFirst: Fetch, fall back to the cache when the fetch fails
//   - APIOnly: Always fetch and never touch the cache
//   - Refresh: Always fetch and overwrite the cache
//
// # Options
//
// Use functional options to customize construction:
//
//	orch, err := stormdrain.New(fetch,
//	    stormdrain.WithLogger(slog.Default()),
//	    stormdrain.WithoutRateLimit(),
//	)
//
// # Observability
//
// Statistics returns counters, ratios and queue depth. Enable Prometheus in
// the configuration and mount MetricsHandler, or enable DataDog to ship
// metrics over DogStatsD.
//
// # Health Checks
//
//	health := orch.Health()
//	if health.Status == stormdrain.HealthStatusDegraded {
//	    log.Println("circuit open or snapshot backend unreachable")
//	}
//
// # Configuration
//
// Load configuration from a JSON or YAML file:
//
//	orch, err := stormdrain.NewFromFile("stormdrain.yaml", fetch)
//
// Or start from the defaults:
//
//	cfg := stormdrain.Config()
//	cfg.RateLimit.RequestsPerSecond = 2
//	orch, err := stormdrain.NewFromConfig(cfg, fetch)
//
// # Thread Safety
//
// All orchestrator methods are safe for concurrent use.
package stormdrain
