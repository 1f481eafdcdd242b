// Package cache provides the byte-budgeted cache store, the request outcome
// ledger and cache snapshot persistence.
package cache

import (
	"container/list"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/stormdrain/internal/config"
	"github.com/LavishGent/stormdrain/internal/metrics"
	"github.com/LavishGent/stormdrain/internal/types"
)

const layerStore = "store"

// entry is one cached value. All fields are guarded by Store.mu.
//
//nolint:govet // Cache record - logical grouping prioritized over alignment
type entry struct {
	key string

	// Exactly one of value and payload is meaningful, depending on mode.
	value   any
	payload []byte
	typ     reflect.Type
	kind    valueKind
	mode    types.CompressionMode
	size    int64

	tags     []string
	priority types.CachePriority

	createdAt   time.Time
	expiresAt   time.Time
	accessedAt  time.Time
	accessCount int64

	elem *list.Element
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (e *entry) info() types.EntryInfo {
	return types.EntryInfo{
		CreatedAt:   e.createdAt,
		ExpiresAt:   e.expiresAt,
		AccessedAt:  e.accessedAt,
		Key:         e.key,
		Tags:        append([]string(nil), e.tags...),
		AccessCount: e.accessCount,
		SizeBytes:   e.size,
		Compression: e.mode,
		Priority:    e.priority,
	}
}

// Store is an in-memory key/value store bounded by a byte budget. Entries
// are evicted least recently used first, in batches sized by the keep factor.
// Sizes are measured after compression.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	lru     *list.List // front is most recently used
	tags    map[string]map[string]struct{}
	used    int64

	config   config.CacheConfig
	codec    *codec
	recorder types.StatsRecorder
	logger   *slog.Logger
	now      func() time.Time

	hits           atomic.Int64
	misses         atomic.Int64
	evictions      atomic.Int64
	compressions   atomic.Int64
	decompressions atomic.Int64

	closed    atomic.Bool
	stopCh    chan struct{}
	janitorWg sync.WaitGroup
}

// StoreOption configures optional Store collaborators.
type StoreOption func(*Store)

func WithRecorder(r types.StatsRecorder) StoreOption {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithSerializer(ser types.Serializer) StoreOption {
	return func(s *Store) {
		if ser != nil {
			s.codec.serializer = ser
		}
	}
}

func withClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store and starts the expiry janitor when
// cfg.SweepInterval is positive.
func NewStore(cfg config.CacheConfig, opts ...StoreOption) (*Store, error) {
	if cfg.ByteBudget <= 0 {
		return nil, fmt.Errorf("cache byte budget must be positive, got %d", cfg.ByteBudget)
	}
	if cfg.LRUKeepFactor < 0 || cfg.LRUKeepFactor >= 1 {
		return nil, fmt.Errorf("cache lru keep factor must be in [0, 1), got %v", cfg.LRUKeepFactor)
	}

	c, err := newCodec(NewJSONSerializer(), cfg.CompressionEnabled, cfg.CompressionThreshold)
	if err != nil {
		return nil, err
	}

	s := &Store{
		entries:  make(map[string]*entry),
		lru:      list.New(),
		tags:     make(map[string]map[string]struct{}),
		config:   cfg,
		codec:    c,
		recorder: metrics.NoOpRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "cache-store")

	if cfg.SweepInterval > 0 {
		s.janitorWg.Add(1)
		go s.janitor(cfg.SweepInterval)
	}

	return s, nil
}

// Get returns the value stored under key. Expired entries are removed and
// reported as ErrCacheMiss. An entry that fails to decode is removed and
// reported as ErrCorruptEntry.
//
// Uncompressed values are returned by reference. Callers must not mutate a
// returned map, slice or pointer.
func (s *Store) Get(key string) (any, error) {
	if s.closed.Load() {
		return nil, types.ErrClosed
	}

	v, err := s.get(key)
	switch {
	case err == nil:
		s.hits.Add(1)
		s.recorder.RecordCacheHit()
	case errors.Is(err, types.ErrCacheMiss), errors.Is(err, types.ErrCorruptEntry):
		s.misses.Add(1)
		s.recorder.RecordCacheMiss()
	}
	return v, err
}

// Recheck reads key like Get but counts only a hit. It serves callers that
// already counted a miss for the same key and are looking again.
func (s *Store) Recheck(key string) (any, error) {
	if s.closed.Load() {
		return nil, types.ErrClosed
	}

	v, err := s.get(key)
	if err == nil {
		s.hits.Add(1)
		s.recorder.RecordCacheHit()
	}
	return v, err
}

func (s *Store) get(key string) (any, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return nil, types.ErrCacheMiss
	}

	now := s.now()
	if e.expired(now) {
		s.removeLocked(e)
		s.mu.Unlock()
		return nil, types.ErrCacheMiss
	}

	e.accessedAt = now
	e.accessCount++
	s.lru.MoveToFront(e.elem)

	if e.mode == types.CompressionNone {
		v := e.value
		s.mu.Unlock()
		return v, nil
	}

	payload, mode, kind, typ := e.payload, e.mode, e.kind, e.typ
	s.mu.Unlock()

	v, err := s.codec.decode(payload, mode, kind, typ)
	if err != nil {
		s.mu.Lock()
		if s.entries[key] == e {
			s.removeLocked(e)
		}
		s.mu.Unlock()

		s.logger.Warn("Removed corrupt cache entry", "key", key, "compression", mode.String(), "error", err)
		return nil, types.NewCacheError("Get", key, layerStore, err)
	}

	s.decompressions.Add(1)
	s.recorder.RecordDecompression()
	return v, nil
}

// Contains reports whether a live entry exists. It does not count as an access.
func (s *Store) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if e.expired(s.now()) {
		s.removeLocked(e)
		return false
	}
	return true
}

// Set stores value under key, replacing any existing entry. TTL defaults to
// the configured default; WithNoExpiry stores without expiry.
//
// Values stored uncompressed are kept by reference, so the caller must not
// mutate value after Set. Compressed values are copies.
func (s *Store) Set(key string, value any, opts ...types.Option) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	o := types.ApplyOptions(opts...)

	enc, err := s.codec.encode(value)
	if err != nil {
		return types.NewCacheError("Set", key, layerStore, err)
	}
	if enc.size > s.config.ByteBudget {
		return types.NewCacheError("Set", key, layerStore,
			fmt.Errorf("%w: %d bytes, budget %d", types.ErrEntryTooLarge, enc.size, s.config.ByteBudget))
	}

	now := s.now()
	e := &entry{
		key:        key,
		value:      enc.value,
		payload:    enc.payload,
		typ:        enc.typ,
		kind:       enc.kind,
		mode:       enc.mode,
		size:       enc.size,
		tags:       dedupTags(o.Tags),
		priority:   o.Priority,
		createdAt:  now,
		accessedAt: now,
	}
	if e.priority == 0 {
		e.priority = types.CachePriorityNormal
	}
	if !o.NoExpiry {
		ttl := o.TTL
		if ttl <= 0 {
			ttl = s.config.DefaultTTL
		}
		if ttl > 0 {
			e.expiresAt = now.Add(ttl)
		}
	}

	s.mu.Lock()
	if old, ok := s.entries[key]; ok {
		s.removeLocked(old)
	}
	evicted := s.ensureCapacityLocked(e.size)
	s.insertLocked(e)
	s.mu.Unlock()

	if enc.mode != types.CompressionNone {
		s.compressions.Add(1)
		s.recorder.RecordCompression()
	}
	s.noteEvictions(evicted)
	return nil
}

// SetMany stores every item with the same options. Failures do not stop the
// remaining writes; they are joined into the returned error.
func (s *Store) SetMany(items map[string]any, opts ...types.Option) error {
	var errs []error
	for key, value := range items {
		if err := s.Set(key, value, opts...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetMany returns the live values among keys. Misses are omitted.
func (s *Store) GetMany(keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if v, err := s.Get(key); err == nil {
			out[key] = v
		}
	}
	return out
}

// GetByTags returns the live entries carrying every one of tags.
func (s *Store) GetByTags(tags ...string) map[string]any {
	out := make(map[string]any)
	if len(tags) == 0 {
		return out
	}

	s.mu.Lock()
	var keys []string
	first := s.tags[tags[0]]
	for key := range first {
		all := true
		for _, tag := range tags[1:] {
			if _, ok := s.tags[tag][key]; !ok {
				all = false
				break
			}
		}
		if all {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	for _, key := range keys {
		if v, err := s.Get(key); err == nil {
			out[key] = v
		}
	}
	return out
}

// InvalidateByTags removes every entry carrying any of tags and returns how
// many were removed.
func (s *Store) InvalidateByTags(tags ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, tag := range tags {
		for key := range s.tags[tag] {
			if e, ok := s.entries[key]; ok {
				s.removeLocked(e)
				removed++
			}
		}
	}

	if removed > 0 {
		s.logger.Debug("Invalidated entries by tags", "tags", tags, "removed", removed)
	}
	return removed
}

// InvalidateByPattern removes entries whose key or any tag matches the glob
// pattern. '*' matches any run of characters.
func (s *Store) InvalidateByPattern(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doomed []*entry
	for _, e := range s.entries {
		if matchPattern(e.key, pattern) {
			doomed = append(doomed, e)
			continue
		}
		for _, tag := range e.tags {
			if matchPattern(tag, pattern) {
				doomed = append(doomed, e)
				break
			}
		}
	}

	for _, e := range doomed {
		s.removeLocked(e)
	}

	if len(doomed) > 0 {
		s.logger.Debug("Invalidated entries by pattern", "pattern", pattern, "removed", len(doomed))
	}
	return len(doomed)
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.removeLocked(e)
	return true
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	s.entries = make(map[string]*entry)
	s.tags = make(map[string]map[string]struct{})
	s.lru.Init()
	s.used = 0
	return n
}

// Len returns the number of entries, including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns the sorted keys of live entries matching pattern. An empty
// pattern matches everything.
func (s *Store) Keys(pattern string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	keys := make([]string, 0, len(s.entries))
	for key, e := range s.entries {
		if e.expired(now) {
			continue
		}
		if pattern == "" || matchPattern(key, pattern) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Entries describes the live entries, most recently used first.
func (s *Store) Entries() []types.EntryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	infos := make([]types.EntryInfo, 0, s.lru.Len())
	for el := s.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if !e.expired(now) {
			infos = append(infos, e.info())
		}
	}
	return infos
}

// OptimizeResult reports the work done by Optimize.
type OptimizeResult struct {
	Expired      int
	Recompressed int
	FreedBytes   int64
}

// Optimize removes expired entries and compresses uncompressed entries that
// qualify for compression, such as entries restored from a snapshot taken
// with compression disabled.
func (s *Store) Optimize() OptimizeResult {
	var res OptimizeResult
	before := s.SizeBytes()

	res.Expired = s.sweepExpired()

	s.mu.Lock()
	var candidates []*entry
	for _, e := range s.entries {
		if e.mode == types.CompressionNone {
			candidates = append(candidates, e)
		}
	}
	s.mu.Unlock()

	for _, e := range candidates {
		value := s.peekValue(e)
		raw, kind, err := s.codec.raw(value)
		if err != nil || !s.codec.shouldCompress(len(raw)) || !s.codec.lossless(value, raw, kind) {
			continue
		}
		payload, mode := s.codec.compress(raw, kind)

		s.mu.Lock()
		replaced := s.entries[e.key] != e || e.mode != types.CompressionNone
		if !replaced {
			s.used += int64(len(payload)) - e.size
			e.payload = payload
			e.mode = mode
			e.kind = kind
			e.size = int64(len(payload))
			e.value = nil
			res.Recompressed++
		}
		s.mu.Unlock()

		if !replaced {
			s.compressions.Add(1)
			s.recorder.RecordCompression()
		}
	}

	res.FreedBytes = before - s.SizeBytes()
	if res.Expired > 0 || res.Recompressed > 0 {
		s.logger.Debug("Optimized cache",
			"expired", res.Expired,
			"recompressed", res.Recompressed,
			"freed_bytes", res.FreedBytes,
		)
	}
	return res
}

func (s *Store) peekValue(e *entry) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.value
}

// SizeBytes returns the total size of all entries.
func (s *Store) SizeBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// Stats returns a point-in-time view of the store.
func (s *Store) Stats() types.CacheStats {
	s.mu.Lock()
	entries, used := len(s.entries), s.used
	s.mu.Unlock()

	return types.CacheStats{
		Hits:           s.hits.Load(),
		Misses:         s.misses.Load(),
		Evictions:      s.evictions.Load(),
		Compressions:   s.compressions.Load(),
		Decompressions: s.decompressions.Load(),
		Entries:        entries,
		SizeBytes:      used,
		BudgetBytes:    s.config.ByteBudget,
	}
}

// Close stops the janitor and releases the compressors. Reads and writes
// fail with ErrClosed afterwards; Snapshot remains usable.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.stopCh)
	s.janitorWg.Wait()
	s.codec.close()
	return nil
}

// ensureCapacityLocked evicts LRU batches until size more bytes fit the budget.
func (s *Store) ensureCapacityLocked(size int64) int {
	target := s.config.ByteBudget - size
	evicted := 0

	for s.used > target && s.lru.Len() > 0 {
		batch := int(math.Round(float64(s.lru.Len()) * (1 - s.config.LRUKeepFactor)))
		if batch < 1 {
			batch = 1
		}
		for _, e := range s.evictionBatchLocked(batch) {
			s.removeLocked(e)
			evicted++
		}
	}
	return evicted
}

// evictionBatchLocked picks n entries to evict. Candidates are the 2n least
// recently used entries; lower priority goes first, then older access.
func (s *Store) evictionBatchLocked(n int) []*entry {
	candidates := make([]*entry, 0, 2*n)
	for el := s.lru.Back(); el != nil && len(candidates) < 2*n; el = el.Prev() {
		candidates = append(candidates, el.Value.(*entry))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority < candidates[j].priority
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

func (s *Store) noteEvictions(n int) {
	if n == 0 {
		return
	}
	s.evictions.Add(int64(n))
	s.recorder.RecordEvictions(n)
	s.logger.Debug("Evicted least recently used entries", "count", n)
}

func (s *Store) insertLocked(e *entry) {
	e.elem = s.lru.PushFront(e)
	s.entries[e.key] = e
	s.used += e.size
	for _, tag := range e.tags {
		keys, ok := s.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tags[tag] = keys
		}
		keys[e.key] = struct{}{}
	}
}

func (s *Store) removeLocked(e *entry) {
	s.lru.Remove(e.elem)
	delete(s.entries, e.key)
	s.used -= e.size
	for _, tag := range e.tags {
		if keys, ok := s.tags[tag]; ok {
			delete(keys, e.key)
			if len(keys) == 0 {
				delete(s.tags, tag)
			}
		}
	}
}

func (s *Store) sweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, e := range s.entries {
		if e.expired(now) {
			s.removeLocked(e)
			removed++
		}
	}
	return removed
}

func (s *Store) janitor(interval time.Duration) {
	defer s.janitorWg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if n := s.sweepExpired(); n > 0 {
				s.logger.Debug("Swept expired entries", "count", n)
			}
		}
	}
}

func dedupTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
