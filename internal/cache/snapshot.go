package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/LavishGent/stormdrain/internal/types"
)

// Snapshot exports live entries, least recently used first, so that Restore
// rebuilds the same recency order.
func (s *Store) Snapshot() ([]types.SnapshotEntry, error) {
	s.mu.Lock()
	now := s.now()
	type pending struct {
		se    types.SnapshotEntry
		value any
	}
	live := make([]pending, 0, s.lru.Len())
	var out []types.SnapshotEntry
	for el := s.lru.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry)
		if e.expired(now) {
			continue
		}
		live = append(live, pending{
			se: types.SnapshotEntry{
				Key:         e.key,
				ValueKind:   e.kind.String(),
				Compression: e.mode,
				Tags:        slices.Clone(e.tags),
				Priority:    e.priority,
				CreatedAt:   e.createdAt,
				ExpiresAt:   e.expiresAt,
				AccessCount: e.accessCount,
				Payload:     e.payload,
			},
			value: e.value,
		})
	}
	s.mu.Unlock()

	var errs []error
	for _, p := range live {
		se := p.se
		if se.Compression == types.CompressionNone {
			raw, _, err := s.codec.raw(p.value)
			if err != nil {
				errs = append(errs, types.NewCacheError("Snapshot", se.Key, layerStore, err))
				continue
			}
			se.Payload = raw
		}
		out = append(out, se)
	}
	return out, errors.Join(errs...)
}

// Restore loads snapshot entries. Expired entries and entries with an unknown
// value kind are skipped. Compressed payloads are verified lazily on Get.
func (s *Store) Restore(entries []types.SnapshotEntry) (int, error) {
	if s.closed.Load() {
		return 0, types.ErrClosed
	}

	now := s.now()
	restored := 0
	var errs []error

	for _, se := range entries {
		if !se.ExpiresAt.IsZero() && now.After(se.ExpiresAt) {
			continue
		}
		kind, ok := parseValueKind(se.ValueKind)
		if !ok {
			errs = append(errs, types.NewCacheError("Restore", se.Key, layerStore,
				fmt.Errorf("%w: unknown value kind %q", types.ErrCorruptEntry, se.ValueKind)))
			continue
		}
		size := int64(len(se.Payload))
		if size > s.config.ByteBudget {
			errs = append(errs, types.NewCacheError("Restore", se.Key, layerStore, types.ErrEntryTooLarge))
			continue
		}

		e := &entry{
			key:         se.Key,
			kind:        kind,
			mode:        se.Compression,
			size:        size,
			tags:        dedupTags(se.Tags),
			priority:    se.Priority,
			createdAt:   se.CreatedAt,
			expiresAt:   se.ExpiresAt,
			accessedAt:  now,
			accessCount: se.AccessCount,
		}
		if e.mode == types.CompressionNone {
			v, err := s.codec.materialize(se.Payload, kind, nil)
			if err != nil {
				errs = append(errs, types.NewCacheError("Restore", se.Key, layerStore, err))
				continue
			}
			e.value = v
		} else {
			e.payload = se.Payload
		}

		s.mu.Lock()
		if old, ok := s.entries[e.key]; ok {
			s.removeLocked(old)
		}
		evicted := s.ensureCapacityLocked(e.size)
		s.insertLocked(e)
		s.mu.Unlock()

		s.noteEvictions(evicted)
		restored++
	}

	return restored, errors.Join(errs...)
}

// FileSnapshotStore keeps snapshots in a JSON file. Saves are atomic.
type FileSnapshotStore struct {
	path string
}

func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

func (f *FileSnapshotStore) Name() string {
	return "file"
}

func (f *FileSnapshotStore) Save(_ context.Context, entries []types.SnapshotEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return types.NewCacheError("Save", "", "file", fmt.Errorf("%w: %w", types.ErrSerializationFailed, err))
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return types.NewCacheError("Save", "", "file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.NewCacheError("Save", "", "file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return types.NewCacheError("Save", "", "file", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return types.NewCacheError("Save", "", "file", err)
	}
	return nil
}

// Load returns no entries when the file does not exist.
func (f *FileSnapshotStore) Load(_ context.Context) ([]types.SnapshotEntry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, types.NewCacheError("Load", "", "file", err)
	}

	var entries []types.SnapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, types.NewCacheError("Load", "", "file", fmt.Errorf("%w: %w", types.ErrCorruptEntry, err))
	}
	return entries, nil
}

func (f *FileSnapshotStore) Close() error {
	return nil
}

// NoOpSnapshotStore discards saves and loads nothing. Used when persistence
// is disabled.
type NoOpSnapshotStore struct{}

func (NoOpSnapshotStore) Name() string { return "disabled" }

func (NoOpSnapshotStore) Save(context.Context, []types.SnapshotEntry) error { return nil }

func (NoOpSnapshotStore) Load(context.Context) ([]types.SnapshotEntry, error) { return nil, nil }

func (NoOpSnapshotStore) Close() error { return nil }

var (
	_ types.SnapshotStore = (*FileSnapshotStore)(nil)
	_ types.SnapshotStore = NoOpSnapshotStore{}
)
