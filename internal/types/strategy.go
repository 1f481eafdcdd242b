package types

import (
	"errors"
	"strings"
)

// StrategyExecutor provides the primitives a Strategy combines. Workers
// implement it per dispatch.
type StrategyExecutor interface {
	// ReadCache returns ErrCacheMiss when no usable entry exists.
	ReadCache() (any, error)
	// Fetch calls the live source, applying rate limiting, timeouts and retries.
	Fetch() (any, error)
	// WriteCache stores a fetched value. Failures are logged, not returned.
	WriteCache(value any)
}

// Strategy decides how a request consults the cache and the live source.
// The set of strategies is closed: only the types in this file implement it.
type Strategy interface {
	String() string
	// Resolve runs the decision once for a single dispatch.
	Resolve(x StrategyExecutor) (any, error)
	// WritesCache reports whether successful fetches are stored.
	WritesCache() bool
	sealed()
}

// CacheOnly never calls the live source. A miss fails with ErrCacheMiss.
type CacheOnly struct{}

// CacheFirst returns cached data when present and fetches on a miss.
type CacheFirst struct{}

// APIFirst fetches first and falls back to the cache when the fetch fails.
// If the cache also misses, the fetch error is returned unchanged.
type APIFirst struct{}

// APIOnly always fetches and never touches the cache.
type APIOnly struct{}

// Refresh always fetches and overwrites the cache on success.
type Refresh struct{}

func (CacheOnly) String() string  { return "cache-only" }
func (CacheFirst) String() string { return "cache-first" }
func (APIFirst) String() string   { return "api-first" }
func (APIOnly) String() string    { return "api-only" }
func (Refresh) String() string    { return "refresh" }

func (CacheOnly) WritesCache() bool  { return false }
func (CacheFirst) WritesCache() bool { return true }
func (APIFirst) WritesCache() bool   { return true }
func (APIOnly) WritesCache() bool    { return false }
func (Refresh) WritesCache() bool    { return true }

func (CacheOnly) sealed()  {}
func (CacheFirst) sealed() {}
func (APIFirst) sealed()   {}
func (APIOnly) sealed()    {}
func (Refresh) sealed()    {}

func (CacheOnly) Resolve(x StrategyExecutor) (any, error) {
	return x.ReadCache()
}

func (CacheFirst) Resolve(x StrategyExecutor) (any, error) {
	if v, err := x.ReadCache(); err == nil {
		return v, nil
	}
	v, err := x.Fetch()
	if err != nil {
		return nil, err
	}
	x.WriteCache(v)
	return v, nil
}

func (APIFirst) Resolve(x StrategyExecutor) (any, error) {
	v, fetchErr := x.Fetch()
	if fetchErr == nil {
		x.WriteCache(v)
		return v, nil
	}

	// A deferral is not a failure; the item goes back to the queue
	if errors.Is(fetchErr, ErrRateLimited) {
		return nil, fetchErr
	}

	if cached, err := x.ReadCache(); err == nil {
		return cached, nil
	}
	return nil, fetchErr
}

func (APIOnly) Resolve(x StrategyExecutor) (any, error) {
	return x.Fetch()
}

func (Refresh) Resolve(x StrategyExecutor) (any, error) {
	v, err := x.Fetch()
	if err != nil {
		return nil, err
	}
	x.WriteCache(v)
	return v, nil
}

// Strategies lists every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{CacheOnly{}, CacheFirst{}, APIFirst{}, APIOnly{}, Refresh{}}
}

// ParseStrategy converts a configuration string to a Strategy.
// Unknown values map to CacheFirst.
func ParseStrategy(s string) Strategy {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "_", "-")
	for _, st := range Strategies() {
		if st.String() == name {
			return st
		}
	}
	return CacheFirst{}
}
