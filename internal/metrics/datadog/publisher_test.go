package datadog

import (
	"testing"
	"time"

	"github.com/LavishGent/stormdrain/internal/config"
	"github.com/LavishGent/stormdrain/internal/metrics"
	"github.com/LavishGent/stormdrain/internal/types"
)

func TestNewPublisher_Disabled(t *testing.T) {
	for _, cfg := range []*config.DataDogConfig{nil, {Enabled: false}} {
		p, err := NewPublisher(cfg, nil)
		if err != nil {
			t.Fatalf("NewPublisher() error = %v", err)
		}
		if _, ok := p.(*metrics.NoOpPublisher); !ok {
			t.Errorf("NewPublisher() = %T, want *metrics.NoOpPublisher", p)
		}
	}
}

func TestPublisher_SendsWithoutAgent(t *testing.T) {
	// UDP sends succeed whether or not an agent is listening.
	p, err := NewPublisher(&config.DataDogConfig{
		Enabled:   true,
		AgentHost: "127.0.0.1",
		Port:      8125,
		Prefix:    "stormdrain_test",
		Tags:      []string{"env:test"},
	}, nil)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer p.Close()

	if _, ok := p.(*Publisher); !ok {
		t.Fatalf("NewPublisher() = %T, want *Publisher", p)
	}

	p.Gauge("queue.depth", 3, "priority:high")
	p.Incr("requests.submitted")
	p.Count("cache.evictions", 5)
	p.Histogram("payload.bytes", 1024)
	p.Timing("requests.latency", 25*time.Millisecond, "endpoint:/weather")
	p.Event("shutdown", "drained", "info")
	p.PublishHealthMetrics(&types.PublisherHealthMetrics{HitRatio: 1.5, CacheUsagePercentage: -1, Accepting: true})
	p.PublishHealthMetrics(nil)
}

func TestPublisher_MergeTagsDoesNotAlias(t *testing.T) {
	base := make([]string, 1, 4)
	base[0] = "env:test"
	p := &Publisher{baseTags: base}

	a := p.mergeTags([]string{"a:1"})
	b := p.mergeTags([]string{"b:2"})

	if a[1] != "a:1" || b[1] != "b:2" {
		t.Errorf("mergeTags() = %v, %v; calls must not share backing storage", a, b)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, want float64
	}{
		{-1, 0},
		{0.5, 0.5},
		{2, 1},
	}
	for _, tt := range tests {
		if got := clamp(tt.val, 0, 1); got != tt.want {
			t.Errorf("clamp(%v) = %v, want %v", tt.val, got, tt.want)
		}
	}
}
