package cache

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LavishGent/stormdrain/internal/config"
	"github.com/LavishGent/stormdrain/internal/metrics"
	"github.com/LavishGent/stormdrain/internal/types"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testStoreConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:              true,
		ByteBudget:           1 << 20,
		CompressionEnabled:   true,
		CompressionThreshold: 1024,
		LRUKeepFactor:        0.8,
		DefaultTTL:           time.Hour,
	}
}

func newTestStore(t *testing.T, cfg config.CacheConfig, opts ...StoreOption) (*Store, *testClock) {
	t.Helper()
	clock := newTestClock()
	opts = append(opts, withClock(clock.now))
	s, err := NewStore(cfg, opts...)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

//nolint:govet // Test struct - alignment not critical
type forecast struct {
	City  string    `json:"city"`
	Days  []float64 `json:"days"`
	Notes string    `json:"notes"`
}

func TestNewStore_Validation(t *testing.T) {
	cfg := testStoreConfig()
	cfg.ByteBudget = 0
	if _, err := NewStore(cfg); err == nil {
		t.Error("NewStore(zero budget) error = nil, want error")
	}

	cfg = testStoreConfig()
	cfg.LRUKeepFactor = 1
	if _, err := NewStore(cfg); err == nil {
		t.Error("NewStore(keep factor 1) error = nil, want error")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t, testStoreConfig())

	long := strings.Repeat("partly cloudy with a chance of rain ", 100)
	bigForecast := forecast{City: "Oslo", Days: make([]float64, 300), Notes: long}
	for i := range bigForecast.Days {
		bigForecast.Days[i] = float64(i) / 2
	}

	tests := []struct {
		name     string
		value    any
		wantMode types.CompressionMode
	}{
		{"small string", "sunny", types.CompressionNone},
		{"large string", long, types.CompressionS2},
		{"small bytes", []byte{1, 2, 3}, types.CompressionNone},
		{"large bytes", []byte(long), types.CompressionS2},
		{"int", 42, types.CompressionNone},
		{"small struct", forecast{City: "Bergen", Days: []float64{1, 2}}, types.CompressionNone},
		{"large struct", bigForecast, types.CompressionZstd},
		{"large struct pointer", &bigForecast, types.CompressionZstd},
		{"large map", map[string]string{"summary": long}, types.CompressionZstd},
		{"large slice", []string{long, long}, types.CompressionZstd},
		{"large any map of strings", map[string]any{"city": "Oslo", "summary": long}, types.CompressionZstd},
		// ints behind interfaces would come back as float64 through JSON
		{"large any map with numbers", map[string]any{"temp": 21, "summary": long}, types.CompressionNone},
		{"large any slice with numbers", []any{int64(7), long}, types.CompressionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "k:" + tt.name
			if err := s.Set(key, tt.value, types.WithTTL(60*time.Second)); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, err := s.Get(key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.value) {
				t.Errorf("Get() = %#v, want %#v", got, tt.value)
			}

			infos := s.Entries()
			if infos[0].Key != key {
				t.Fatalf("Entries()[0] = %s, want most recent %s", infos[0].Key, key)
			}
			if infos[0].Compression != tt.wantMode {
				t.Errorf("Compression = %v, want %v", infos[0].Compression, tt.wantMode)
			}
		})
	}
}

func TestStore_CompressionDisabled(t *testing.T) {
	cfg := testStoreConfig()
	cfg.CompressionEnabled = false
	s, _ := newTestStore(t, cfg)

	long := strings.Repeat("x", 4096)
	if err := s.Set("k", long); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	info := s.Entries()[0]
	if info.Compression != types.CompressionNone {
		t.Errorf("Compression = %v, want none", info.Compression)
	}
	if info.SizeBytes != 4096 {
		t.Errorf("SizeBytes = %d, want 4096", info.SizeBytes)
	}
}

func TestStore_SizeMeasuredAfterCompression(t *testing.T) {
	s, _ := newTestStore(t, testStoreConfig())

	long := strings.Repeat("a", 64*1024)
	if err := s.Set("big", long); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	info := s.Entries()[0]
	if info.SizeBytes >= int64(len(long)) {
		t.Errorf("SizeBytes = %d, want less than raw %d", info.SizeBytes, len(long))
	}
	if s.SizeBytes() != info.SizeBytes {
		t.Errorf("SizeBytes() = %d, want %d", s.SizeBytes(), info.SizeBytes)
	}
	if s.Stats().Compressions != 1 {
		t.Errorf("Compressions = %d, want 1", s.Stats().Compressions)
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	s, clock := newTestStore(t, testStoreConfig())

	if err := s.Set("k", "v", types.WithTTL(time.Second)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !s.Contains("k") {
		t.Fatal("Contains() = false before expiry")
	}

	clock.advance(1100 * time.Millisecond)

	if _, err := s.Get("k"); !errors.Is(err, types.ErrCacheMiss) {
		t.Errorf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after lazy removal", s.Len())
	}
	if s.SizeBytes() != 0 {
		t.Errorf("SizeBytes() = %d, want 0", s.SizeBytes())
	}
}

func TestStore_DefaultTTLAndNoExpiry(t *testing.T) {
	cfg := testStoreConfig()
	cfg.DefaultTTL = time.Minute
	s, clock := newTestStore(t, cfg)

	s.Set("default", "v")
	s.Set("forever", "v", types.WithNoExpiry())

	clock.advance(2 * time.Minute)

	if s.Contains("default") {
		t.Error("entry with default TTL survived past it")
	}
	if !s.Contains("forever") {
		t.Error("entry without expiry was removed")
	}
}

func TestStore_EntryTooLarge(t *testing.T) {
	cfg := testStoreConfig()
	cfg.ByteBudget = 100
	cfg.CompressionEnabled = false
	s, _ := newTestStore(t, cfg)

	err := s.Set("huge", strings.Repeat("x", 101))
	if !errors.Is(err, types.ErrEntryTooLarge) {
		t.Fatalf("Set() error = %v, want ErrEntryTooLarge", err)
	}
	var ce *types.CacheError
	if !errors.As(err, &ce) || ce.Key != "huge" {
		t.Errorf("Set() error = %v, want CacheError for key huge", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestStore_SerializationFailure(t *testing.T) {
	s, _ := newTestStore(t, testStoreConfig())

	err := s.Set("ch", make(chan int))
	if !errors.Is(err, types.ErrSerializationFailed) {
		t.Errorf("Set(chan) error = %v, want ErrSerializationFailed", err)
	}
}

func TestStore_LRUEviction(t *testing.T) {
	cfg := testStoreConfig()
	cfg.ByteBudget = 1000
	cfg.CompressionEnabled = false
	cfg.LRUKeepFactor = 0.8
	s, clock := newTestStore(t, cfg)

	value := strings.Repeat("v", 100)
	for i := 0; i < 10; i++ {
		if err := s.Set(fmt.Sprintf("k%d", i), value); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		clock.advance(time.Millisecond)
	}
	if s.SizeBytes() != 1000 {
		t.Fatalf("SizeBytes() = %d, want 1000", s.SizeBytes())
	}

	// k0 is the oldest insert but the most recent access
	if _, err := s.Get("k0"); err != nil {
		t.Fatalf("Get(k0) error = %v", err)
	}

	if err := s.Set("new", value); err != nil {
		t.Fatalf("Set(new) error = %v", err)
	}

	// Batch is max(1, int(10*0.2)) = 2, evicted from the LRU tail
	if !s.Contains("k0") {
		t.Error("recently accessed k0 was evicted")
	}
	if s.Contains("k1") || s.Contains("k2") {
		t.Error("least recently used k1 and k2 should be evicted")
	}
	if !s.Contains("k3") {
		t.Error("k3 should survive a single batch")
	}
	if !s.Contains("new") {
		t.Error("new entry missing")
	}
	if s.SizeBytes() > cfg.ByteBudget {
		t.Errorf("SizeBytes() = %d exceeds budget %d", s.SizeBytes(), cfg.ByteBudget)
	}
	if s.Stats().Evictions != 2 {
		t.Errorf("Evictions = %d, want 2", s.Stats().Evictions)
	}
}

func TestStore_EvictionPrefersLowPriority(t *testing.T) {
	cfg := testStoreConfig()
	cfg.ByteBudget = 1000
	cfg.CompressionEnabled = false
	s, clock := newTestStore(t, cfg)

	value := strings.Repeat("v", 100)
	priorities := []types.CachePriority{
		types.CachePriorityHigh,
		types.CachePriorityNormal,
		types.CachePriorityLow,
		types.CachePriorityNormal,
	}
	for i := 0; i < 10; i++ {
		p := types.CachePriorityNormal
		if i < len(priorities) {
			p = priorities[i]
		}
		if err := s.Set(fmt.Sprintf("k%d", i), value, types.WithCachePriority(p)); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		clock.advance(time.Millisecond)
	}

	if err := s.Set("new", value); err != nil {
		t.Fatalf("Set(new) error = %v", err)
	}

	// Batch of 2 chosen from the 4 oldest: low k2 first, then the older normal k1
	tests := []struct {
		key  string
		want bool
	}{
		{"k0", true},
		{"k1", false},
		{"k2", false},
		{"k3", true},
		{"new", true},
	}
	for _, tt := range tests {
		if got := s.Contains(tt.key); got != tt.want {
			t.Errorf("Contains(%s) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestStore_BudgetNeverExceeded(t *testing.T) {
	cfg := testStoreConfig()
	cfg.ByteBudget = 4096
	s, _ := newTestStore(t, cfg)

	for i := 0; i < 500; i++ {
		value := strings.Repeat(fmt.Sprintf("%d", i%10), 10+i%200)
		if err := s.Set(fmt.Sprintf("k%d", i), value); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if used := s.SizeBytes(); used > cfg.ByteBudget {
			t.Fatalf("SizeBytes() = %d exceeds budget %d after insert %d", used, cfg.ByteBudget, i)
		}
	}
}

func TestStore_ReplaceFreesOldSize(t *testing.T) {
	cfg := testStoreConfig()
	cfg.CompressionEnabled = false
	s, _ := newTestStore(t, cfg)

	s.Set("k", strings.Repeat("a", 300))
	s.Set("k", strings.Repeat("b", 100))

	if s.SizeBytes() != 100 {
		t.Errorf("SizeBytes() = %d, want 100", s.SizeBytes())
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStore_Tags(t *testing.T) {
	s, _ := newTestStore(t, testStoreConfig())

	s.Set("oslo-now", "rain", types.WithTags("weather", "oslo"))
	s.Set("oslo-week", "snow", types.WithTags("forecast", "oslo"))
	s.Set("bergen-now", "wind", types.WithTags("weather", "bergen"))

	t.Run("get by tags is an intersection", func(t *testing.T) {
		got := s.GetByTags("weather", "oslo")
		if len(got) != 1 || got["oslo-now"] != "rain" {
			t.Errorf("GetByTags(weather, oslo) = %v, want only oslo-now", got)
		}
		if got := s.GetByTags("oslo"); len(got) != 2 {
			t.Errorf("GetByTags(oslo) = %v, want 2 entries", got)
		}
		if got := s.GetByTags(); len(got) != 0 {
			t.Errorf("GetByTags() = %v, want empty", got)
		}
		if got := s.GetByTags("missing"); len(got) != 0 {
			t.Errorf("GetByTags(missing) = %v, want empty", got)
		}
	})

	t.Run("invalidate by tags is a union", func(t *testing.T) {
		removed := s.InvalidateByTags("forecast", "bergen")
		if removed != 2 {
			t.Errorf("InvalidateByTags() = %d, want 2", removed)
		}
		if !s.Contains("oslo-now") {
			t.Error("untagged entry removed")
		}
		if s.Contains("oslo-week") || s.Contains("bergen-now") {
			t.Error("tagged entries survived invalidation")
		}
		if got := s.GetByTags("weather"); len(got) != 1 {
			t.Errorf("tag index stale: GetByTags(weather) = %v", got)
		}
	})
}

func TestStore_TagIndexFollowsEviction(t *testing.T) {
	cfg := testStoreConfig()
	cfg.ByteBudget = 10
	cfg.CompressionEnabled = false
	s, _ := newTestStore(t, cfg)

	s.Set("a", "12345", types.WithTags("t"))
	s.Set("b", "12345", types.WithTags("t"))
	s.Set("c", "12345", types.WithTags("t"))

	got := s.GetByTags("t")
	if _, ok := got["a"]; ok {
		t.Error("evicted entry still reachable through the tag index")
	}
	if len(got) != 2 {
		t.Errorf("GetByTags(t) = %v, want 2 entries", got)
	}
}

func TestStore_InvalidateByPattern(t *testing.T) {
	s, _ := newTestStore(t, testStoreConfig())

	s.Set("weather:oslo", 1, types.WithTags("api", "/weather"))
	s.Set("weather:bergen", 2, types.WithTags("api", "/weather"))
	s.Set("forecast:oslo", 3, types.WithTags("api", "/forecast"))
	s.Set("manual", 4)

	if n := s.InvalidateByPattern("/weather*"); n != 2 {
		t.Errorf("InvalidateByPattern(tag glob) = %d, want 2", n)
	}
	if n := s.InvalidateByPattern("*:oslo"); n != 1 {
		t.Errorf("InvalidateByPattern(key glob) = %d, want 1", n)
	}
	if !s.Contains("manual") {
		t.Error("non-matching entry removed")
	}
}

func TestStore_DeleteClearLenKeys(t *testing.T) {
	s, clock := newTestStore(t, testStoreConfig())

	s.Set("user:1", "a")
	s.Set("user:2", "b")
	s.Set("team:1", "c")
	s.Set("temp", "d", types.WithTTL(time.Second))

	clock.advance(2 * time.Second)

	if got := s.Keys("user:*"); fmt.Sprint(got) != "[user:1 user:2]" {
		t.Errorf("Keys(user:*) = %v", got)
	}
	if got := s.Keys(""); len(got) != 3 {
		t.Errorf("Keys() = %v, want 3 live keys", got)
	}

	if !s.Delete("team:1") {
		t.Error("Delete() = false, want true")
	}
	if s.Delete("team:1") {
		t.Error("second Delete() = true, want false")
	}

	if n := s.Clear(); n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if s.Len() != 0 || s.SizeBytes() != 0 {
		t.Error("store not empty after Clear()")
	}
}

func TestStore_SetManyGetMany(t *testing.T) {
	s, _ := newTestStore(t, testStoreConfig())

	err := s.SetMany(map[string]any{"a": 1, "b": "two", "bad": make(chan int)}, types.WithTags("bulk"))
	if !errors.Is(err, types.ErrSerializationFailed) {
		t.Errorf("SetMany() error = %v, want joined ErrSerializationFailed", err)
	}

	got := s.GetMany("a", "b", "missing")
	if len(got) != 2 || got["a"] != 1 || got["b"] != "two" {
		t.Errorf("GetMany() = %v", got)
	}
	if len(s.GetByTags("bulk")) != 2 {
		t.Error("SetMany() options not applied")
	}
}

func TestStore_CorruptEntry(t *testing.T) {
	s, _ := newTestStore(t, testStoreConfig())

	s.Set("good", "fine")
	_, err := s.Restore([]types.SnapshotEntry{{
		Key:         "bad",
		Payload:     []byte("definitely not zstd"),
		ValueKind:   "json",
		Compression: types.CompressionZstd,
	}})
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	_, err = s.Get("bad")
	if !errors.Is(err, types.ErrCorruptEntry) {
		t.Fatalf("Get(bad) error = %v, want ErrCorruptEntry", err)
	}
	var ce *types.CacheError
	if !errors.As(err, &ce) {
		t.Errorf("Get(bad) error = %T, want *CacheError", err)
	}
	if s.Contains("bad") {
		t.Error("corrupt entry not removed")
	}
	if v, err := s.Get("good"); err != nil || v != "fine" {
		t.Errorf("Get(good) = %v, %v; other entries must be unaffected", v, err)
	}
}

func TestStore_AccessTracking(t *testing.T) {
	s, clock := newTestStore(t, testStoreConfig())

	s.Set("a", 1)
	clock.advance(time.Second)
	s.Set("b", 2)
	clock.advance(time.Second)
	s.Get("a")
	s.Get("a")

	infos := s.Entries()
	if infos[0].Key != "a" {
		t.Errorf("Entries()[0] = %s, want a (most recent)", infos[0].Key)
	}
	if infos[0].AccessCount != 2 {
		t.Errorf("AccessCount = %d, want 2", infos[0].AccessCount)
	}
	if !infos[0].AccessedAt.Equal(clock.now()) {
		t.Errorf("AccessedAt = %v, want %v", infos[0].AccessedAt, clock.now())
	}
}

func TestStore_StatsAndRecorder(t *testing.T) {
	rec := metrics.NewStatisticsCollector()
	s, _ := newTestStore(t, testStoreConfig(), WithRecorder(rec))

	s.Set("a", strings.Repeat("z", 2048))
	s.Get("a")
	s.Get("missing")

	stats := s.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
	if stats.Decompressions != 1 {
		t.Errorf("Decompressions = %d, want 1", stats.Decompressions)
	}
	if stats.HitRate() != 50 {
		t.Errorf("HitRate() = %v, want 50", stats.HitRate())
	}

	snap := rec.Snapshot()
	if snap.CacheHits != 1 || snap.CacheMisses != 1 || snap.Compressions != 1 || snap.Decompressions != 1 {
		t.Errorf("recorder = %+v", snap)
	}
}

func TestStore_Optimize(t *testing.T) {
	s, clock := newTestStore(t, testStoreConfig())

	long := strings.Repeat("restored ", 500)
	s.Restore([]types.SnapshotEntry{{
		Key:         "raw",
		Payload:     []byte(long),
		ValueKind:   "string",
		Compression: types.CompressionNone,
	}})
	s.Set("short-lived", "x", types.WithTTL(time.Second))
	clock.advance(2 * time.Second)

	before := s.SizeBytes()
	res := s.Optimize()

	if res.Expired != 1 {
		t.Errorf("Expired = %d, want 1", res.Expired)
	}
	if res.Recompressed != 1 {
		t.Errorf("Recompressed = %d, want 1", res.Recompressed)
	}
	if res.FreedBytes <= 0 || s.SizeBytes() >= before {
		t.Errorf("FreedBytes = %d, size %d -> %d", res.FreedBytes, before, s.SizeBytes())
	}
	if v, err := s.Get("raw"); err != nil || v != long {
		t.Errorf("Get(raw) after Optimize = %v, %v", v, err)
	}
	if got := s.Stats().Compressions; got != int64(res.Recompressed) {
		t.Errorf("Compressions = %d, want %d", got, res.Recompressed)
	}
}

func TestStore_OptimizeSkipsLossyValues(t *testing.T) {
	cfg := testStoreConfig()
	cfg.CompressionEnabled = false
	s, _ := newTestStore(t, cfg)

	value := map[string]any{"temp": 21, "summary": strings.Repeat("windy ", 400)}
	if err := s.Set("lossy", value); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	s.codec.enabled = true
	res := s.Optimize()

	if res.Recompressed != 0 {
		t.Errorf("Recompressed = %d, want 0", res.Recompressed)
	}
	if got := s.Stats().Compressions; got != 0 {
		t.Errorf("Compressions = %d, want 0", got)
	}
	got, err := s.Get("lossy")
	if err != nil || !reflect.DeepEqual(got, value) {
		t.Errorf("Get(lossy) = %#v, %v, want %#v", got, err, value)
	}
}

func TestStore_Closed(t *testing.T) {
	s, err := NewStore(testStoreConfig())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	s.Close()
	s.Close()

	if err := s.Set("k", "v"); !errors.Is(err, types.ErrClosed) {
		t.Errorf("Set() after Close error = %v, want ErrClosed", err)
	}
	if _, err := s.Get("k"); !errors.Is(err, types.ErrClosed) {
		t.Errorf("Get() after Close error = %v, want ErrClosed", err)
	}
}

func TestStore_Janitor(t *testing.T) {
	cfg := testStoreConfig()
	cfg.SweepInterval = 10 * time.Millisecond
	s, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	s.Set("k", "v", types.WithTTL(time.Millisecond))

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Len() != 0 {
		t.Error("janitor did not sweep the expired entry")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	cfg := testStoreConfig()
	cfg.ByteBudget = 64 * 1024
	s, _ := newTestStore(t, cfg)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%50)
				s.Set(key, strings.Repeat("v", i%2000), types.WithTags(fmt.Sprintf("g%d", g)))
				s.Get(key)
				if i%50 == 0 {
					s.InvalidateByTags(fmt.Sprintf("g%d", (g+1)%8))
				}
			}
		}(g)
	}
	wg.Wait()

	if s.SizeBytes() > cfg.ByteBudget {
		t.Errorf("SizeBytes() = %d exceeds budget", s.SizeBytes())
	}

	var sum int64
	for _, info := range s.Entries() {
		sum += info.SizeBytes
	}
	if sum != s.SizeBytes() {
		t.Errorf("sum of entry sizes = %d, SizeBytes() = %d", sum, s.SizeBytes())
	}
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		s, pattern string
		expected   bool
	}{
		{"anything", "*", true},
		{"user:1", "user:*", true},
		{"team:1", "user:*", false},
		{"weather:oslo", "*:oslo", true},
		{"weather:bergen", "*:oslo", false},
		{"api:/weather:v2", "api:*:v2", true},
		{"a-b-c-d", "a*b*d", true},
		{"a-c-b", "a*b*d", false},
		{"exact", "exact", true},
		{"exactly", "exact", false},
		{"a", "a*a", false},
		{"aa", "a*a", true},
	}

	for _, tt := range tests {
		t.Run(tt.s+"_"+tt.pattern, func(t *testing.T) {
			if got := matchPattern(tt.s, tt.pattern); got != tt.expected {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.s, tt.pattern, got, tt.expected)
			}
		})
	}
}

func BenchmarkStore_SetGet(b *testing.B) {
	s, err := NewStore(testStoreConfig())
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()

	value := forecast{City: "Oslo", Days: []float64{1, 2, 3, 4, 5, 6, 7}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("k%d", i%1000)
		_ = s.Set(key, value)
		_, _ = s.Get(key)
	}
}
