package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavishGent/stormdrain/internal/types"
)

func TestStore_SnapshotRestore(t *testing.T) {
	src, clock := newTestStore(t, testStoreConfig())

	long := strings.Repeat("cloud cover ", 200)
	require.NoError(t, src.Set("oldest", "a", types.WithTags("weather")))
	clock.advance(time.Millisecond)
	require.NoError(t, src.Set("struct", forecast{City: "Oslo", Days: []float64{1.5}}, types.WithCachePriority(types.CachePriorityHigh)))
	clock.advance(time.Millisecond)
	require.NoError(t, src.Set("compressed", long, types.WithNoExpiry()))
	clock.advance(time.Millisecond)
	require.NoError(t, src.Set("doomed", "x", types.WithTTL(time.Millisecond)))
	clock.advance(time.Second)

	entries, err := src.Snapshot()
	require.NoError(t, err)
	require.Len(t, entries, 3, "expired entries are not exported")

	assert.Equal(t, "oldest", entries[0].Key, "snapshot is least recently used first")
	assert.Equal(t, "compressed", entries[2].Key)
	assert.Equal(t, types.CompressionS2, entries[2].Compression)
	assert.True(t, entries[2].ExpiresAt.IsZero())

	dst, _ := newTestStore(t, testStoreConfig())
	n, err := dst.Restore(entries)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	v, err := dst.Get("oldest")
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.Len(t, dst.GetByTags("weather"), 1)

	v, err = dst.Get("compressed")
	require.NoError(t, err)
	assert.Equal(t, long, v)

	// Composite values lose their Go type across a snapshot.
	v, err = dst.Get("struct")
	require.NoError(t, err)
	raw, ok := v.(json.RawMessage)
	require.True(t, ok, "restored composite is %T", v)
	var f forecast
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, "Oslo", f.City)

	infos := dst.Entries()
	for _, info := range infos {
		if info.Key == "struct" {
			assert.Equal(t, types.CachePriorityHigh, info.Priority)
		}
	}
}

func TestStore_SnapshotDuringReads(t *testing.T) {
	s, _ := newTestStore(t, testStoreConfig())
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("k%d", i), strings.Repeat("x", 10+i), types.WithTags("weather")))
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				_, _ = s.Get(fmt.Sprintf("k%d", i%50))
			}
		}()
	}

	for i := 0; i < 20; i++ {
		entries, err := s.Snapshot()
		require.NoError(t, err)
		assert.Len(t, entries, 50)
	}
	close(stop)
	wg.Wait()
}

func TestStore_RestoreSkipsExpiredAndUnknown(t *testing.T) {
	s, clock := newTestStore(t, testStoreConfig())
	now := clock.now()

	n, err := s.Restore([]types.SnapshotEntry{
		{Key: "live", Payload: []byte("v"), ValueKind: "string", ExpiresAt: now.Add(time.Minute)},
		{Key: "stale", Payload: []byte("v"), ValueKind: "string", ExpiresAt: now.Add(-time.Minute)},
		{Key: "weird", Payload: []byte("v"), ValueKind: "pickle"},
	})

	assert.Equal(t, 1, n)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrCorruptEntry))
	assert.True(t, s.Contains("live"))
	assert.False(t, s.Contains("stale"))
	assert.False(t, s.Contains("weird"))
}

func TestStore_RestoreRespectsBudget(t *testing.T) {
	cfg := testStoreConfig()
	cfg.ByteBudget = 10
	s, _ := newTestStore(t, cfg)

	n, err := s.Restore([]types.SnapshotEntry{
		{Key: "a", Payload: []byte("12345"), ValueKind: "string"},
		{Key: "b", Payload: []byte("12345"), ValueKind: "string"},
		{Key: "c", Payload: []byte("12345"), ValueKind: "string"},
		{Key: "huge", Payload: []byte("12345678901"), ValueKind: "string"},
	})

	assert.Equal(t, 3, n)
	assert.True(t, errors.Is(err, types.ErrEntryTooLarge))
	assert.LessOrEqual(t, s.SizeBytes(), cfg.ByteBudget)
	assert.False(t, s.Contains("a"), "oldest restored entry evicted")
}

func TestFileSnapshotStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")
	fs := NewFileSnapshotStore(path)
	defer fs.Close()

	assert.Equal(t, "file", fs.Name())

	t.Run("missing file loads nothing", func(t *testing.T) {
		entries, err := fs.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("save then load", func(t *testing.T) {
		expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		want := []types.SnapshotEntry{
			{Key: "a", Payload: []byte("one"), ValueKind: "string", Tags: []string{"t"}, ExpiresAt: expires},
			{Key: "b", Payload: []byte(`{"x":1}`), ValueKind: "json", Compression: types.CompressionNone},
		}
		require.NoError(t, fs.Save(ctx, want))

		got, err := fs.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Key)
		assert.Equal(t, []byte("one"), got[0].Payload)
		assert.True(t, expires.Equal(got[0].ExpiresAt))
		assert.Equal(t, []string{"t"}, got[0].Tags)

		matches, _ := filepath.Glob(path + ".tmp-*")
		assert.Empty(t, matches, "temporary files cleaned up")
	})

	t.Run("save overwrites", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, nil))
		got, err := fs.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("corrupt file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		_, err := fs.Load(ctx)
		assert.True(t, errors.Is(err, types.ErrCorruptEntry))
	})
}

func TestNoOpSnapshotStore(t *testing.T) {
	ctx := context.Background()
	var s types.SnapshotStore = NoOpSnapshotStore{}

	assert.Equal(t, "disabled", s.Name())
	assert.NoError(t, s.Save(ctx, []types.SnapshotEntry{{Key: "a"}}))

	entries, err := s.Load(ctx)
	assert.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, s.Close())
}
