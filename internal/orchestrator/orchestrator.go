// Package orchestrator admits requests, runs them through a pool of workers
// and answers them from the cache or the live source according to each
// request's strategy.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LavishGent/stormdrain/internal/cache"
	"github.com/LavishGent/stormdrain/internal/config"
	"github.com/LavishGent/stormdrain/internal/metrics"
	"github.com/LavishGent/stormdrain/internal/metrics/datadog"
	"github.com/LavishGent/stormdrain/internal/metrics/prom"
	"github.com/LavishGent/stormdrain/internal/queue"
	"github.com/LavishGent/stormdrain/internal/ratelimit"
	"github.com/LavishGent/stormdrain/internal/resilience"
	"github.com/LavishGent/stormdrain/internal/types"
)

const (
	// DefaultShutdownGrace is used when the configuration leaves it unset.
	DefaultShutdownGrace = 5 * time.Second
	defaultIdlePoll      = 100 * time.Millisecond
)

// Orchestrator owns the queue, the cache store and the worker pool.
type Orchestrator struct {
	config       *config.Config
	fetcher      types.Fetcher
	queue        *queue.Queue
	cache        *cache.Store
	ledger       *cache.Ledger
	snapshot     types.SnapshotStore
	limiter      ratelimit.Limiter
	policy       *resilience.Policy
	collector    *metrics.StatisticsCollector
	recorder     types.StatsRecorder
	publisher    types.Publisher
	background   *metrics.BackgroundPublisher
	metricsH     http.Handler
	serializer   types.Serializer
	validator    *types.KeyValidator
	logger       *slog.Logger
	workerLogger *slog.Logger
	cacheEnabled bool

	workers    *errgroup.Group
	workCtx    context.Context
	workCancel context.CancelFunc
	quit       chan struct{}

	// admitMu orders Submit against the start of shutdown, so nothing is
	// enqueued after the queue has been drained.
	admitMu   sync.RWMutex
	accepting atomic.Bool
	closed    atomic.Bool
}

// New creates an orchestrator and starts its workers. A nil cfg uses
// config.DefaultConfig.
//
//nolint:gocyclo // Construction wires every optional collaborator
func New(cfg *config.Config, fetcher types.Fetcher, opts *types.OrchestratorOptions) (*Orchestrator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher is required", types.ErrInvalidRequest)
	}
	if opts == nil {
		opts = &types.OrchestratorOptions{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(opts.Logger)

	o := &Orchestrator{
		config:       cfg,
		fetcher:      fetcher,
		queue:        queue.New(),
		collector:    metrics.NewStatisticsCollector(),
		serializer:   opts.Serializer,
		validator:    cfg.KeyValidation.Validator(),
		logger:       logger.With("component", "orchestrator"),
		workerLogger: logger.With("component", "worker"),
		cacheEnabled: cfg.Cache.Enabled,
		quit:         make(chan struct{}),
	}
	if o.serializer == nil {
		o.serializer = cache.NewJSONSerializer()
	}
	o.recorder = metrics.Tee(o.collector, opts.Stats)

	cacheCfg := cfg.Cache
	if !cacheCfg.Enabled {
		// Cache() still serves direct reads and writes; only strategies skip it.
		cacheCfg.ByteBudget = max(cacheCfg.ByteBudget, 1)
		cacheCfg.LRUKeepFactor = 0
		cacheCfg.SweepInterval = 0
	}
	store, err := cache.NewStore(cacheCfg,
		cache.WithRecorder(o.recorder),
		cache.WithLogger(logger),
		cache.WithSerializer(o.serializer),
	)
	if err != nil {
		return nil, err
	}
	o.cache = store

	ledger, err := cache.NewLedger(cfg.Status, o.serializer, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	o.ledger = ledger

	if cfg.RateLimit.Enabled && !opts.DisableRateLimit {
		o.limiter = ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	} else {
		o.limiter = ratelimit.NewDisabled()
	}

	breaker := cfg.CircuitBreaker
	if opts.DisableResilience {
		breaker.Enabled = false
	}
	o.policy = resilience.NewPolicy(cfg.Retry, breaker, logger)

	o.snapshot = o.newSnapshotStore(opts, logger)
	o.publisher = o.newPublisher(opts, logger)
	o.policy.OnCircuitChange(o.circuitChanged)

	if cfg.Metrics.Prometheus.Enabled {
		h, err := prom.Handler(cfg.Metrics.Prometheus.Namespace, o.Statistics)
		if err != nil {
			_ = o.publisher.Close()
			_ = o.snapshot.Close()
			_ = ledger.Close()
			_ = store.Close()
			return nil, err
		}
		o.metricsH = h
	}

	o.restoreSnapshot()

	o.workCtx, o.workCancel = context.WithCancel(context.Background())
	if cfg.Metrics.Enabled && cfg.Metrics.PublishInterval > 0 {
		o.background = metrics.NewBackgroundPublisher(o.publisher, cfg.Metrics.PublishInterval, o.healthMetrics, logger)
		o.background.Start(o.workCtx)
	}

	workers := cfg.Orchestrator.Workers
	if workers < 1 {
		workers = 1
	}
	o.workers = &errgroup.Group{}
	for i := range workers {
		o.workers.Go(func() error {
			o.work(o.workCtx, i)
			return nil
		})
	}

	o.accepting.Store(true)
	o.logger.Info("Orchestrator started",
		"workers", workers,
		"rate_limit", cfg.RateLimit.Enabled && !opts.DisableRateLimit,
		"cache_budget_bytes", cfg.Cache.ByteBudget,
		"snapshot", o.snapshot.Name(),
	)
	return o, nil
}

func (o *Orchestrator) newSnapshotStore(opts *types.OrchestratorOptions, logger *slog.Logger) types.SnapshotStore {
	if opts.Snapshot != nil {
		return opts.Snapshot
	}
	if !o.config.Snapshot.Enabled {
		return cache.NoOpSnapshotStore{}
	}

	switch o.config.Snapshot.Backend {
	case "redis":
		redisCfg := o.config.Snapshot.Redis
		if !opts.RedisPassword.IsEmpty() {
			redisCfg.Password = opts.RedisPassword
		}
		store, err := cache.NewRedisSnapshotStore(redisCfg, logger)
		if err != nil {
			o.logger.Warn("Redis snapshot store unavailable, snapshots disabled", "error", err)
			return cache.NoOpSnapshotStore{}
		}
		return store
	default:
		return cache.NewFileSnapshotStore(o.config.Snapshot.Path)
	}
}

func (o *Orchestrator) newPublisher(opts *types.OrchestratorOptions, logger *slog.Logger) types.Publisher {
	switch {
	case opts.Publisher != nil:
		return opts.Publisher
	case !o.config.Metrics.Enabled:
		return metrics.NewNoOpPublisher()
	case o.config.Metrics.DataDog.Enabled:
		p, err := datadog.NewPublisher(&o.config.Metrics.DataDog, logger)
		if err == nil {
			return p
		}
		o.logger.Warn("DataDog publisher unavailable, logging metrics instead", "error", err)
	}
	return metrics.NewLoggingPublisher(logger)
}

func (o *Orchestrator) circuitChanged(from, to resilience.State) {
	alert := "info"
	if to == resilience.StateOpen {
		alert = "warning"
	}
	o.publisher.Event("Circuit breaker "+to.String(),
		fmt.Sprintf("fetch circuit moved from %s to %s", from, to),
		alert, metrics.CircuitStateTag(to.String()))
}

// NewRequest builds a request with the configured request defaults.
func (o *Orchestrator) NewRequest(endpoint string, params map[string]any, opts ...types.RequestOption) *types.Request {
	d := o.config.Requests
	base := []types.RequestOption{
		types.WithPriority(types.ParsePriority(d.Priority)),
		types.WithStrategy(types.ParseStrategy(d.Strategy)),
		types.WithCacheTTL(d.TTL),
		types.WithTimeout(d.Timeout),
		types.WithRetries(d.Retries),
	}
	return types.NewRequest(endpoint, params, append(base, opts...)...)
}

// Submit queues req and returns immediately. A request whose identity is
// already queued or in flight is attached to that work instead of being
// queued again. req must not be modified afterwards.
func (o *Orchestrator) Submit(req *types.Request) (*Handle, error) {
	if err := req.Validate(o.validator); err != nil {
		return nil, err
	}
	if o.validator != nil {
		if err := o.validator.ValidateTags(req.Tags); err != nil {
			return nil, fmt.Errorf("%w: tags: %w", types.ErrInvalidRequest, err)
		}
	}
	o.applyDefaults(req)

	o.admitMu.RLock()
	defer o.admitMu.RUnlock()

	if !o.accepting.Load() {
		return nil, types.NewRequestError("submit", req, types.ErrShutdownInProgress)
	}

	h := newHandle(req, o.detach, o.workerLogger)
	_, attached := o.queue.Enqueue(req, h)

	o.recorder.RecordSubmitted()
	if attached {
		o.recorder.RecordDeduplicated()
		o.logger.Debug("Request attached to pending work", "id", h.ID(), "endpoint", req.Endpoint)
	} else {
		o.logger.Debug("Request queued", "id", h.ID(), "endpoint", req.Endpoint, "priority", req.Priority.String())
	}
	return h, nil
}

// applyDefaults fills zero-valued fields from the configured request defaults.
func (o *Orchestrator) applyDefaults(req *types.Request) {
	d := o.config.Requests
	if req.Priority == 0 {
		req.Priority = types.ParsePriority(d.Priority)
	}
	if req.Strategy == nil {
		req.Strategy = types.ParseStrategy(d.Strategy)
	}
	if req.TTL == 0 {
		req.TTL = d.TTL
	}
	if req.Timeout == 0 {
		req.Timeout = d.Timeout
	}
}

// detach removes a canceled handle from its pending work.
func (o *Orchestrator) detach(h *Handle) {
	if o.queue.Detach(h.ID(), h) {
		o.logger.Debug("Queued request dropped, all submitters canceled", "id", h.ID())
		o.recordCanceled(h.ID())
	}
}

// Cancel removes a queued request and fails every submission attached to it
// with ErrCanceled. Work already in flight cannot be canceled.
func (o *Orchestrator) Cancel(id string) bool {
	waiters, ok := o.queue.Cancel(id)
	if !ok {
		return false
	}

	o.recordCanceled(id)
	err := &types.RequestError{Op: "cancel", ID: id, Err: types.ErrCanceled}
	for _, w := range waiters {
		w.Resolve(nil, err)
	}
	o.logger.Debug("Request canceled", "id", id, "submitters", len(waiters))
	return true
}

func (o *Orchestrator) recordCanceled(id string) {
	o.recorder.RecordFailure(types.ErrorKind(types.ErrCanceled))
	o.record(cache.Outcome{
		ID:          id,
		State:       types.StateCanceled,
		ErrKind:     types.ErrorKind(types.ErrCanceled),
		ErrMessage:  types.ErrCanceled.Error(),
		CompletedAt: time.Now(),
	})
}

// Status reports where a request identity is in its lifecycle. Terminal
// outcomes are retained for the configured status retention.
func (o *Orchestrator) Status(id string) types.Status {
	if st := o.queue.State(id); st != types.StateUnknown {
		return types.Status{ID: id, State: st}
	}
	if outcome, ok := o.ledger.Lookup(id); ok {
		return outcome.Status()
	}
	return types.Status{ID: id, State: types.StateUnknown}
}

// Statistics returns engine counters together with queue and cache figures.
func (o *Orchestrator) Statistics() types.Statistics {
	stats := o.collector.Snapshot()
	stats.QueueSize = o.queue.Len()
	stats.InFlight = o.queue.InFlight()

	cs := o.cache.Stats()
	stats.CacheEntries = cs.Entries
	stats.CacheSizeBytes = cs.SizeBytes
	return stats
}

// ClearCache removes cached entries whose key or any tag matches the glob
// pattern, or every entry when pattern is empty. It returns the number removed.
func (o *Orchestrator) ClearCache(pattern string) int {
	var n int
	if pattern == "" {
		n = o.cache.Clear()
	} else {
		n = o.cache.InvalidateByPattern(pattern)
	}
	o.logger.Info("Cache cleared", "pattern", pattern, "removed", n)
	return n
}

// Cache exposes the cache store for direct reads and writes.
func (o *Orchestrator) Cache() *cache.Store {
	return o.cache
}

// MetricsHandler serves Prometheus metrics. It is nil unless Prometheus is
// enabled in the configuration.
func (o *Orchestrator) MetricsHandler() http.Handler {
	return o.metricsH
}

// IsAccepting reports whether Submit admits new requests.
func (o *Orchestrator) IsAccepting() bool {
	return o.accepting.Load()
}

// Health reports the state of the queue, the cache, the circuit breaker and
// the snapshot backend.
func (o *Orchestrator) Health() *types.HealthMetrics {
	h := &types.HealthMetrics{
		Timestamp:           time.Now(),
		Cache:               o.cache.Stats(),
		CircuitBreakerState: o.policy.CircuitState().String(),
		SnapshotBackend:     o.snapshot.Name(),
		QueueDepth:          o.queue.Len(),
		InFlight:            o.queue.InFlight(),
		Workers:             o.config.Orchestrator.Workers,
		Accepting:           o.accepting.Load(),
	}

	switch {
	case !h.Accepting:
		h.Status = types.HealthStatusUnhealthy
	case o.policy.IsCircuitOpen() || !o.snapshotAvailable():
		h.Status = types.HealthStatusDegraded
	default:
		h.Status = types.HealthStatusHealthy
	}
	return h
}

// IsHealthy returns true if requests are admitted and the circuit is closed.
func (o *Orchestrator) IsHealthy() bool {
	return o.Health().Status == types.HealthStatusHealthy
}

func (o *Orchestrator) snapshotAvailable() bool {
	if a, ok := o.snapshot.(interface{ IsAvailable() bool }); ok {
		return a.IsAvailable()
	}
	return true
}

func (o *Orchestrator) healthMetrics() *types.PublisherHealthMetrics {
	stats := o.Statistics()
	return metrics.HealthMetricsFrom(&stats, o.cache.Stats(), o.accepting.Load())
}

func (o *Orchestrator) restoreSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), o.saveTimeout())
	defer cancel()

	entries, err := o.snapshot.Load(ctx)
	if err != nil {
		o.logger.Warn("Failed to load cache snapshot, starting cold", "backend", o.snapshot.Name(), "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	n, err := o.cache.Restore(entries)
	if err != nil {
		o.logger.Warn("Cache snapshot partially restored", "restored", n, "error", err)
		return
	}
	o.logger.Info("Cache snapshot restored", "backend", o.snapshot.Name(), "entries", n)
}

func (o *Orchestrator) saveSnapshot() {
	if _, ok := o.snapshot.(cache.NoOpSnapshotStore); ok {
		return
	}

	entries, err := o.cache.Snapshot()
	if err != nil {
		o.logger.Warn("Failed to snapshot cache", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.saveTimeout())
	defer cancel()

	if err := o.snapshot.Save(ctx, entries); err != nil {
		o.logger.Warn("Failed to save cache snapshot", "backend", o.snapshot.Name(), "error", err)
		return
	}
	o.logger.Info("Cache snapshot saved", "backend", o.snapshot.Name(), "entries", len(entries))
}

func (o *Orchestrator) saveTimeout() time.Duration {
	if t := o.config.Snapshot.SaveTimeout; t > 0 {
		return t
	}
	return DefaultShutdownGrace
}

// Close shuts down using the configured drain mode and grace period.
func (o *Orchestrator) Close() error {
	return o.ShutdownWithTimeout(o.config.Orchestrator.DrainOnShutdown, o.grace())
}

// Shutdown stops admissions and stops the workers within the configured
// grace period. With drain, queued requests are still served; otherwise
// they fail with ErrShutdownInProgress.
func (o *Orchestrator) Shutdown(drain bool) error {
	return o.ShutdownWithTimeout(drain, o.grace())
}

func (o *Orchestrator) grace() time.Duration {
	if g := o.config.Orchestrator.ShutdownGrace; g > 0 {
		return g
	}
	return DefaultShutdownGrace
}

// ShutdownWithTimeout is Shutdown with an explicit grace period. Work still
// running when it elapses is abandoned and ErrShutdownTimeout is returned,
// but the cache snapshot is still saved and every resource released.
func (o *Orchestrator) ShutdownWithTimeout(drain bool, grace time.Duration) error {
	o.admitMu.Lock()
	if o.closed.Swap(true) {
		o.admitMu.Unlock()
		return nil
	}
	o.accepting.Store(false)
	close(o.quit)
	o.admitMu.Unlock()

	o.logger.Info("Shutting down orchestrator", "drain", drain, "grace", grace, "queued", o.queue.Len())

	if !drain {
		o.abandon(o.queue.Drain())
	}

	done := make(chan struct{})
	go func() {
		_ = o.workers.Wait()
		close(done)
	}()

	var errs []error
	select {
	case <-done:
		o.logger.Info("Workers finished")
	case <-time.After(grace):
		o.logger.Warn("Shutdown grace exceeded, abandoning in-flight requests", "grace", grace, "in_flight", o.queue.InFlight())
		errs = append(errs, types.ErrShutdownTimeout)
		o.workCancel()
		select {
		case <-done:
		case <-time.After(grace):
			o.logger.Warn("Workers still running after cancellation")
		}
	}
	o.workCancel()

	// Items put back by a rate limit deferral after the workers stopped.
	o.abandon(o.queue.Drain())

	if o.background != nil {
		o.background.Stop()
	}
	if err := o.publisher.Close(); err != nil {
		errs = append(errs, err)
	}

	o.saveSnapshot()
	if err := o.snapshot.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := o.ledger.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := o.cache.Close(); err != nil {
		errs = append(errs, err)
	}

	o.logger.Info("Orchestrator stopped")
	return errors.Join(errs...)
}

// abandon fails queued items that will never be dispatched.
func (o *Orchestrator) abandon(items []*queue.Item) {
	for _, item := range items {
		err := o.conclude(item, nil, types.ErrShutdownInProgress)
		for _, w := range item.Waiters() {
			w.Resolve(nil, err)
		}
	}
}
