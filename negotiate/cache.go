package negotiate

import (
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/negotools-go/formats"
	"github.com/illuscio-dev/negotools-go/mimetype"
)

// DefaultCacheSize is the memo capacity used when callers do not pick one.
// Header values repeat heavily across a live client population, so even a small
// cache absorbs nearly all parsing cost.
const DefaultCacheSize = 512

/*
Memo wraps a pure string-keyed function with a bounded LRU cache. The underlying
cache is safe for concurrent use, so a single Memo can serve many simultaneous
exchanges.

Because the wrapped function is pure, a cache miss after eviction simply
recomputes the same value -- observable behavior never depends on cache state.
*/
type Memo struct {
	compute func(string) interface{}
	cache   *lru.Cache
}

// NewMemo wraps compute with a cache holding at most capacity entries.
func NewMemo(capacity int, compute func(string) interface{}) (*Memo, error) {
	cache, err := lru.New(capacity)
	if err != nil {
		return nil, xerrors.Errorf("error building negotiation cache: %w", err)
	}
	return &Memo{compute: compute, cache: cache}, nil
}

// Get returns compute(key), memoized.
func (memo *Memo) Get(key string) interface{} {
	if value, ok := memo.cache.Get(key); ok {
		return value
	}

	value := memo.compute(key)
	memo.cache.Add(key, value)
	return value
}

// Len returns the current number of cached entries.
func (memo *Memo) Len() int {
	return memo.cache.Len()
}

// Memoized result of ContentType.
type contentTypeResult struct {
	format  string
	charset string
}

// Memoized result of Accept.
type acceptResult struct {
	format      string
	contentType mimetype.MimeType
}

/*
Cached binds the three negotiation algorithms to a fixed registry and memoizes
each behind its own bounded cache. The registry is immutable, so the memoized
results never go stale.
*/
type Cached struct {
	registry *formats.Registry

	contentType   *Memo
	accept        *Memo
	acceptCharset *Memo
}

// NewCached builds a Cached negotiator over registry with the given per-function
// cache capacity.
func NewCached(registry *formats.Registry, capacity int) (*Cached, error) {
	contentType, err := NewMemo(capacity, func(header string) interface{} {
		format, charset := ContentType(registry, header)
		return contentTypeResult{format: format, charset: charset}
	})
	if err != nil {
		return nil, err
	}

	accept, err := NewMemo(capacity, func(header string) interface{} {
		format, contentType := Accept(registry, header)
		return acceptResult{format: format, contentType: contentType}
	})
	if err != nil {
		return nil, err
	}

	acceptCharset, err := NewMemo(capacity, func(header string) interface{} {
		return AcceptCharset(registry, header)
	})
	if err != nil {
		return nil, err
	}

	return &Cached{
		registry:      registry,
		contentType:   contentType,
		accept:        accept,
		acceptCharset: acceptCharset,
	}, nil
}

// Registry returns the compiled registry this negotiator is bound to.
func (cached *Cached) Registry() *formats.Registry {
	return cached.registry
}

// ContentType is the memoized form of the ContentType algorithm.
func (cached *Cached) ContentType(header string) (format string, charset string) {
	result := cached.contentType.Get(header).(contentTypeResult)
	return result.format, result.charset
}

// Accept is the memoized form of the Accept algorithm.
func (cached *Cached) Accept(
	header string,
) (format string, contentType mimetype.MimeType) {
	result := cached.accept.Get(header).(acceptResult)
	return result.format, result.contentType
}

// AcceptCharset is the memoized form of the AcceptCharset algorithm.
func (cached *Cached) AcceptCharset(header string) string {
	return cached.acceptCharset.Get(header).(string)
}
