// Package prom exposes engine statistics to Prometheus.
package prom

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LavishGent/stormdrain/internal/types"
)

// StatsFunc returns the current engine statistics.
type StatsFunc func() types.Statistics

// Collector is a prometheus.Collector that reads a statistics snapshot on
// every scrape. Nothing is double-counted: counters mirror the collector's
// monotonic totals.
type Collector struct {
	stats StatsFunc

	submitted      *prometheus.Desc
	deduplicated   *prometheus.Desc
	successes      *prometheus.Desc
	failures       *prometheus.Desc
	rateLimited    *prometheus.Desc
	retries        *prometheus.Desc
	cacheHits      *prometheus.Desc
	cacheMisses    *prometheus.Desc
	evictions      *prometheus.Desc
	compressions   *prometheus.Desc
	decompressions *prometheus.Desc
	concurrent     *prometheus.Desc
	peak           *prometheus.Desc
	queueSize      *prometheus.Desc
	inFlight       *prometheus.Desc
	cacheEntries   *prometheus.Desc
	cacheBytes     *prometheus.Desc
	latency        *prometheus.Desc
}

func NewCollector(namespace string, stats StatsFunc) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}

	return &Collector{
		stats:          stats,
		submitted:      desc("requests_submitted_total", "Requests accepted by Submit."),
		deduplicated:   desc("requests_deduplicated_total", "Submissions attached to an existing request."),
		successes:      desc("requests_succeeded_total", "Requests completed successfully."),
		failures:       desc("requests_failed_total", "Requests that failed, by error kind.", "kind"),
		rateLimited:    desc("rate_limited_total", "Fetch attempts deferred by the rate limiter."),
		retries:        desc("retries_total", "Fetch retries."),
		cacheHits:      desc("cache_hits_total", "Cache hits."),
		cacheMisses:    desc("cache_misses_total", "Cache misses."),
		evictions:      desc("cache_evictions_total", "Entries evicted from the cache."),
		compressions:   desc("cache_compressions_total", "Values compressed on write."),
		decompressions: desc("cache_decompressions_total", "Values decompressed on read."),
		concurrent:     desc("requests_active", "Requests currently being processed."),
		peak:           desc("requests_active_peak", "Highest observed number of active requests."),
		queueSize:      desc("queue_size", "Requests waiting in the queue."),
		inFlight:       desc("requests_in_flight", "Request identities currently held by workers."),
		cacheEntries:   desc("cache_entries", "Entries in the cache."),
		cacheBytes:     desc("cache_size_bytes", "Bytes used by cache entries after compression."),
		latency:        desc("request_latency_seconds", "Submit-to-completion latency of successful requests.", "stat"),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.submitted, c.deduplicated, c.successes, c.failures, c.rateLimited, c.retries,
		c.cacheHits, c.cacheMisses, c.evictions, c.compressions, c.decompressions,
		c.concurrent, c.peak, c.queueSize, c.inFlight, c.cacheEntries, c.cacheBytes, c.latency,
	} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()

	counter := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	counter(c.submitted, s.Submitted)
	counter(c.deduplicated, s.Deduplicated)
	counter(c.successes, s.Successes)
	for kind, n := range s.FailuresByKind {
		counter(c.failures, n, kind)
	}
	counter(c.rateLimited, s.RateLimited)
	counter(c.retries, s.Retries)
	counter(c.cacheHits, s.CacheHits)
	counter(c.cacheMisses, s.CacheMisses)
	counter(c.evictions, s.Evictions)
	counter(c.compressions, s.Compressions)
	counter(c.decompressions, s.Decompressions)

	gauge(c.concurrent, float64(s.Concurrent))
	gauge(c.peak, float64(s.PeakConcurrent))
	gauge(c.queueSize, float64(s.QueueSize))
	gauge(c.inFlight, float64(s.InFlight))
	gauge(c.cacheEntries, float64(s.CacheEntries))
	gauge(c.cacheBytes, float64(s.CacheSizeBytes))

	gauge(c.latency, s.AverageLatency.Seconds(), "mean")
	gauge(c.latency, s.P50Latency.Seconds(), "p50")
	gauge(c.latency, s.P95Latency.Seconds(), "p95")
	gauge(c.latency, s.P99Latency.Seconds(), "p99")
}

// Handler registers a collector in a private registry and returns its scrape
// handler.
func Handler(namespace string, stats StatsFunc) (http.Handler, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewCollector(namespace, stats)); err != nil {
		return nil, err
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}), nil
}

var _ prometheus.Collector = (*Collector)(nil)
