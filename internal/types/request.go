package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	DefaultRequestTTL     = 300 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultRequestRetries = 2
)

// Request is a unit of outbound work. It must not be modified after Submit.
//
//nolint:govet // Request struct - logical grouping prioritized over alignment
type Request struct {
	Endpoint string
	Params   map[string]any

	Priority Priority
	Strategy Strategy
	TTL      time.Duration
	Timeout  time.Duration
	// Retries is the number of additional fetch attempts after the first.
	Retries int
	// Tags are attached to the cache entry written for this request.
	Tags []string

	OnSuccess func(value any)
	OnFailure func(err error)

	Metadata map[string]any

	id string
}

// RequestOption configures a Request built with NewRequest.
type RequestOption func(*Request)

// NewRequest builds a request with the standard defaults: medium priority,
// CacheFirst, a 300s cache TTL, a 10s timeout and two retries.
func NewRequest(endpoint string, params map[string]any, opts ...RequestOption) *Request {
	r := &Request{
		Endpoint: endpoint,
		Params:   params,
		Priority: PriorityMedium,
		Strategy: CacheFirst{},
		TTL:      DefaultRequestTTL,
		Timeout:  DefaultRequestTimeout,
		Retries:  DefaultRequestRetries,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithPriority(p Priority) RequestOption {
	return func(r *Request) { r.Priority = p }
}

func WithStrategy(s Strategy) RequestOption {
	return func(r *Request) { r.Strategy = s }
}

func WithCacheTTL(ttl time.Duration) RequestOption {
	return func(r *Request) { r.TTL = ttl }
}

func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) { r.Timeout = d }
}

func WithRetries(n int) RequestOption {
	return func(r *Request) { r.Retries = n }
}

func WithRequestTags(tags ...string) RequestOption {
	return func(r *Request) { r.Tags = append(r.Tags, tags...) }
}

func WithCallbacks(onSuccess func(any), onFailure func(error)) RequestOption {
	return func(r *Request) {
		r.OnSuccess = onSuccess
		r.OnFailure = onFailure
	}
}

func WithMetadata(key string, value any) RequestOption {
	return func(r *Request) {
		if r.Metadata == nil {
			r.Metadata = make(map[string]any)
		}
		r.Metadata[key] = value
	}
}

// Identity returns the deterministic identity of the request, derived from the
// endpoint and the parameter set. Parameter order does not matter.
func (r *Request) Identity() string {
	if r.id != "" {
		return r.id
	}
	return ComputeIdentity(r.Endpoint, r.Params)
}

// Seal caches the identity. Called once on submission.
func (r *Request) Seal() string {
	if r.id == "" {
		r.id = ComputeIdentity(r.Endpoint, r.Params)
	}
	return r.id
}

// ComputeIdentity hashes endpoint and params into a 16 hex digit identity.
func ComputeIdentity(endpoint string, params map[string]any) string {
	// encoding/json writes map keys in sorted order
	encoded, err := json.Marshal(params)
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", params))
	}

	h := xxhash.New()
	_, _ = h.WriteString(endpoint)
	_, _ = h.WriteString(":")
	_, _ = h.Write(encoded)

	return fmt.Sprintf("%016x", h.Sum64())
}

// CacheKey is the key under which a request's result is cached.
func (r *Request) CacheKey() string {
	return r.Identity()
}

// Validate checks the request for submission.
func (r *Request) Validate(v *KeyValidator) error {
	if r == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if v != nil {
		if err := v.Validate(r.Endpoint); err != nil {
			return fmt.Errorf("%w: endpoint: %w", ErrInvalidRequest, err)
		}
	} else if r.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidRequest)
	}
	if r.Priority != 0 && !r.Priority.Valid() {
		return fmt.Errorf("%w: priority %d out of range", ErrInvalidRequest, r.Priority)
	}
	if r.Retries < 0 {
		return fmt.Errorf("%w: retries must not be negative", ErrInvalidRequest)
	}
	if r.Timeout < 0 || r.TTL < 0 {
		return fmt.Errorf("%w: timeout and ttl must not be negative", ErrInvalidRequest)
	}
	return nil
}
