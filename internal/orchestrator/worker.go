package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavishGent/stormdrain/internal/cache"
	"github.com/LavishGent/stormdrain/internal/metrics"
	"github.com/LavishGent/stormdrain/internal/queue"
	"github.com/LavishGent/stormdrain/internal/ratelimit"
	"github.com/LavishGent/stormdrain/internal/types"
)

// work runs one worker until the queue is empty after admissions stop, or
// until ctx is canceled.
func (o *Orchestrator) work(ctx context.Context, worker int) {
	logger := o.workerLogger.With("worker", worker)
	logger.Debug("Worker started")
	defer logger.Debug("Worker stopped")

	interval := o.config.Orchestrator.IdlePollInterval
	if interval <= 0 {
		interval = defaultIdlePoll
	}
	idle := time.NewTimer(interval)
	defer idle.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		item, ok := o.queue.DequeueNext()
		if ok {
			o.dispatch(ctx, item)
			continue
		}

		select {
		case <-o.quit:
			return
		default:
		}

		idle.Reset(interval)
		select {
		case <-ctx.Done():
			return
		case <-o.quit:
		case <-o.queue.Ready():
		case <-idle.C:
		}
	}
}

// dispatch resolves one dequeued item. A rate limit deferral puts the item
// back in line and pauses this worker; anything else completes it.
func (o *Orchestrator) dispatch(ctx context.Context, item *queue.Item) {
	req := item.Request
	o.workerLogger.Debug("Dispatching request",
		"id", item.ID,
		"endpoint", req.Endpoint,
		"strategy", req.Strategy.String(),
		"priority", req.Priority.String(),
	)

	o.recorder.RequestStarted()
	value, err := o.resolve(ctx, item)
	o.recorder.RequestFinished()

	if errors.Is(err, types.ErrRateLimited) {
		o.deferItem(ctx, item)
		return
	}
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		err = types.ErrShutdownInProgress
	}
	o.complete(item, value, err)
}

func (o *Orchestrator) resolve(ctx context.Context, item *queue.Item) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.workerLogger.Error("Recovered from panic while dispatching", "id", item.ID, "panic", r)
			value, err = nil, fmt.Errorf("dispatch panic: %v", r)
		}
	}()

	x := &execution{o: o, ctx: ctx, req: item.Request, redispatch: item.Deferrals > 0}
	return item.Request.Strategy.Resolve(x)
}

// deferItem returns a rate-limited item to the queue and sleeps until a token
// is due, capped by the configured backoff.
func (o *Orchestrator) deferItem(ctx context.Context, item *queue.Item) {
	o.recorder.RecordRateLimited()
	o.publisher.Incr("requests.deferred", metrics.EndpointTag(item.Request.Endpoint))

	if !o.queue.Requeue(item) {
		// every submitter detached while the item was out of the queue
		o.record(cache.Outcome{ID: item.ID, State: types.StateCanceled, ErrKind: "canceled",
			ErrMessage: types.ErrCanceled.Error(), CompletedAt: time.Now()})
		return
	}

	wait := o.limiter.TimeUntilAvailable(1)
	if backoff := o.config.Orchestrator.RateLimitBackoff; wait > backoff {
		wait = backoff
	}
	o.workerLogger.Debug("Request deferred by rate limit", "id", item.ID, "deferrals", item.Deferrals, "wait", wait)

	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// complete records the outcome and resolves every attached submission.
func (o *Orchestrator) complete(item *queue.Item, value any, err error) {
	err = o.conclude(item, value, err)
	for _, w := range o.queue.Complete(item.ID) {
		w.Resolve(value, err)
	}
}

// conclude updates statistics and the outcome ledger for a finished item and
// returns the error to deliver to its submitters. The ledger is written
// before waiters are released, so Status never reports unknown in between.
func (o *Orchestrator) conclude(item *queue.Item, value any, err error) error {
	req := item.Request
	outcome := cache.Outcome{ID: item.ID, CompletedAt: time.Now()}
	tags := []string{
		metrics.EndpointTag(req.Endpoint),
		metrics.StrategyTag(req.Strategy.String()),
		metrics.PriorityTag(req.Priority.String()),
	}

	if err == nil {
		latency := metrics.StartAt(o.publisher, item.Submitted, "requests.latency", tags...).Stop()
		o.recorder.RecordSuccess(latency)
		o.publisher.Incr("requests.completed", append(tags, metrics.OutcomeTag("success"))...)

		outcome.State = types.StateCompleted
		if data, mErr := o.serializer.Marshal(value); mErr == nil {
			outcome.Value = data
		} else {
			o.workerLogger.Debug("Result not retained in status", "id", item.ID, "error", mErr)
		}
	} else {
		err = types.NewRequestError("dispatch", req, err)
		kind := types.ErrorKind(err)
		o.recorder.RecordFailure(kind)
		o.publisher.Incr("requests.completed", append(tags, metrics.OutcomeTag(kind))...)

		outcome.State = types.StateFailed
		outcome.ErrKind = kind
		outcome.ErrMessage = err.Error()
		o.workerLogger.Debug("Request failed", "id", item.ID, "endpoint", req.Endpoint, "error", err)
	}

	o.record(outcome)
	return err
}

func (o *Orchestrator) record(outcome cache.Outcome) {
	if err := o.ledger.Record(outcome); err != nil && !errors.Is(err, types.ErrClosed) {
		o.workerLogger.Warn("Failed to record request outcome", "id", outcome.ID, "error", err)
	}
}

// execution is the StrategyExecutor for a single dispatch.
type execution struct {
	o   *Orchestrator
	ctx context.Context
	req *types.Request
	// redispatch is set for items re-queued by the rate limiter; their first
	// dispatch already counted the cache miss.
	redispatch bool
}

var _ types.StrategyExecutor = (*execution)(nil)

func (x *execution) ReadCache() (any, error) {
	if !x.o.cacheEnabled {
		return nil, types.ErrCacheMiss
	}

	read := x.o.cache.Get
	if x.redispatch {
		read = x.o.cache.Recheck
	}
	value, err := read(x.req.CacheKey())
	if err == nil || types.IsCacheMiss(err) {
		return value, err
	}

	x.o.workerLogger.Warn("Unreadable cache entry treated as miss", "id", x.req.Identity(), "error", err)
	return nil, fmt.Errorf("%w: %w", types.ErrCacheMiss, err)
}

// Fetch takes a token for the first attempt without waiting; a denial is
// reported as ErrRateLimited so the item can be deferred. Retries wait for
// their token in this worker.
func (x *execution) Fetch() (any, error) {
	if !x.o.limiter.TryAcquire(1) {
		return nil, types.ErrRateLimited
	}

	return x.o.policy.Execute(x.ctx, x.req.Retries, func(ctx context.Context, attempt int) (any, error) {
		if attempt > 1 {
			x.o.recorder.RecordRetry()
			if err := ratelimit.Wait(ctx, x.o.limiter, 1); err != nil {
				return nil, err
			}
		}
		return x.o.attempt(ctx, x.req)
	})
}

func (x *execution) WriteCache(value any) {
	if !x.o.cacheEnabled || !x.req.Strategy.WritesCache() {
		return
	}

	tags := make([]string, 0, 3+len(x.req.Tags))
	tags = append(tags, "api", x.req.Endpoint, x.req.Strategy.String())
	tags = append(tags, x.req.Tags...)

	err := x.o.cache.Set(x.req.CacheKey(), value,
		types.WithTTL(x.req.TTL),
		types.WithTags(tags...),
		types.WithCachePriority(cachePriority(x.req.Priority)),
	)
	if err != nil {
		x.o.workerLogger.Warn("Failed to cache result", "id", x.req.Identity(), "error", err)
	}
}

type attemptResult struct {
	value any
	err   error
}

// attempt makes one fetch call bounded by the request timeout. A call still
// running at the deadline is abandoned and reported as ErrTimeout.
func (o *Orchestrator) attempt(ctx context.Context, req *types.Request) (any, error) {
	actx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	ch := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- attemptResult{err: fmt.Errorf("fetcher panic: %v", r)}
			}
		}()
		v, err := o.fetcher.Fetch(actx, req)
		ch <- attemptResult{value: v, err: err}
	}()

	select {
	case r := <-ch:
		if r.err == nil {
			return r.value, nil
		}
		if errors.Is(r.err, context.DeadlineExceeded) && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", types.ErrTimeout, req.Timeout)
		}
		return nil, types.FetchFailed(r.err)
	case <-actx.Done():
		if ctx.Err() != nil {
			return nil, types.ErrShutdownInProgress
		}
		return nil, fmt.Errorf("%w after %s", types.ErrTimeout, req.Timeout)
	}
}

func cachePriority(p types.Priority) types.CachePriority {
	switch {
	case p <= types.PriorityHigh:
		return types.CachePriorityHigh
	case p >= types.PriorityLow:
		return types.CachePriorityLow
	default:
		return types.CachePriorityNormal
	}
}
