package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LavishGent/stormdrain/internal/config"
	"github.com/LavishGent/stormdrain/internal/types"
)

const (
	disconnectErrorThreshold = 5
	snapshotScanBatch        = 100
	layerRedis               = "redis"
)

// RedisSnapshotStore persists cache snapshots in Redis, one key per entry
// with the entry's remaining TTL, so that several processes can warm-start
// from the same data.
type RedisSnapshotStore struct {
	client *redis.Client
	config config.RedisConfig
	logger *slog.Logger
	now    func() time.Time

	mu            sync.RWMutex
	connected     atomic.Bool
	lastError     error
	lastErrorTime time.Time
	errorCount    atomic.Int64

	saved  atomic.Int64
	loaded atomic.Int64
}

// NewRedisSnapshotStore connects to Redis. An unreachable server is not an
// error; the store reports ErrRedisUnavailable until a ping succeeds.
func NewRedisSnapshotStore(cfg config.RedisConfig, logger *slog.Logger) (*RedisSnapshotStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec // Opt-in for self-signed test servers
		}
		if cfg.TLSSkipVerify {
			logger.Warn("TLS certificate verification is disabled - this is insecure for production use")
		}
	}

	rs := &RedisSnapshotStore{
		client: redis.NewClient(opts),
		config: cfg,
		logger: logger.With("component", "redis-snapshot"),
		now:    time.Now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := rs.client.Ping(ctx).Err(); err != nil {
		rs.logger.Warn("Redis initial connection failed", "error", err)
		rs.setError(err)
	} else {
		rs.connected.Store(true)
		rs.logger.Info("Redis connected", "address", cfg.Address)
	}

	return rs, nil
}

func (r *RedisSnapshotStore) Name() string {
	return layerRedis
}

func (r *RedisSnapshotStore) IsAvailable() bool {
	return r.connected.Load()
}

func (r *RedisSnapshotStore) prefixKey(key string) string {
	return r.config.KeyPrefix + key
}

// Save replaces the stored snapshot with entries. Entries already expired
// are skipped.
func (r *RedisSnapshotStore) Save(ctx context.Context, entries []types.SnapshotEntry) error {
	if err := r.ensureConnected(ctx); err != nil {
		return err
	}

	if err := r.clear(ctx); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	now := r.now()
	pipe := r.client.Pipeline()
	queued := 0

	for i := range entries {
		se := &entries[i]

		var ttl time.Duration
		if !se.ExpiresAt.IsZero() {
			ttl = se.ExpiresAt.Sub(now)
			if ttl <= 0 {
				continue
			}
		}

		data, err := json.Marshal(se)
		if err != nil {
			r.logger.Debug("Skipping unencodable snapshot entry", "key", se.Key, "error", err)
			continue
		}
		pipe.Set(ctx, r.prefixKey(se.Key), data, ttl)
		queued++
	}

	if queued == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.handleError(err)
		return types.NewCacheError("Save", "", layerRedis, err)
	}

	r.saved.Add(int64(queued))
	r.clearError()
	r.logger.Debug("Saved cache snapshot", "entries", queued)
	return nil
}

// Load reads every stored entry. Values that fail to decode are skipped.
func (r *RedisSnapshotStore) Load(ctx context.Context) ([]types.SnapshotEntry, error) {
	if err := r.ensureConnected(ctx); err != nil {
		return nil, err
	}

	var (
		cursor  uint64
		entries []types.SnapshotEntry
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefixKey("*"), snapshotScanBatch).Result()
		if err != nil {
			r.handleError(err)
			return nil, types.NewCacheError("Load", "", layerRedis, err)
		}

		if len(keys) > 0 {
			values, err := r.client.MGet(ctx, keys...).Result()
			if err != nil {
				r.handleError(err)
				return nil, types.NewCacheError("Load", "", layerRedis, err)
			}
			for i, v := range values {
				str, ok := v.(string)
				if !ok {
					continue
				}
				var se types.SnapshotEntry
				if err := json.Unmarshal([]byte(str), &se); err != nil {
					r.logger.Debug("Skipping corrupt snapshot entry", "key", keys[i], "error", err)
					continue
				}
				entries = append(entries, se)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	r.loaded.Add(int64(len(entries)))
	r.clearError()
	return entries, nil
}

func (r *RedisSnapshotStore) clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefixKey("*"), snapshotScanBatch).Result()
		if err != nil {
			r.handleError(err)
			return types.NewCacheError("Clear", "", layerRedis, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				r.handleError(err)
				return types.NewCacheError("Clear", "", layerRedis, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (r *RedisSnapshotStore) ensureConnected(ctx context.Context) error {
	if r.connected.Load() {
		return nil
	}
	if err := r.Reconnect(ctx); err != nil {
		return types.NewCacheError("Connect", "", layerRedis, types.ErrRedisUnavailable)
	}
	return nil
}

func (r *RedisSnapshotStore) Close() error {
	r.connected.Store(false)
	return r.client.Close()
}

func (r *RedisSnapshotStore) handleError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastError = err
	r.lastErrorTime = time.Now()
	count := r.errorCount.Add(1)

	if count >= disconnectErrorThreshold {
		if r.connected.CompareAndSwap(true, false) {
			r.logger.Warn("Redis marked as disconnected after errors",
				"error_count", count,
				"last_error", err,
			)
		}
	}
}

func (r *RedisSnapshotStore) clearError() {
	r.errorCount.Store(0)
}

func (r *RedisSnapshotStore) setError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastError = err
	r.lastErrorTime = time.Now()
	r.connected.Store(false)
}

func (r *RedisSnapshotStore) LastError() (error, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastError, r.lastErrorTime
}

func (r *RedisSnapshotStore) Reconnect(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.setError(err)
		return err
	}
	r.connected.Store(true)
	r.errorCount.Store(0)
	r.logger.Info("Redis reconnected successfully")
	return nil
}

var _ types.SnapshotStore = (*RedisSnapshotStore)(nil)
