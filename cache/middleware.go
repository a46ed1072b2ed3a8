package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/contentops/observe"
)

// Fetcher retrieves a value from the origin. The conditional headers are
// nil on a plain fetch; when present the origin may answer not-modified
// instead of returning a payload.
type Fetcher func(ctx context.Context, cond Headers) (*FetchResult, error)

// FetchResult carries an origin response into the cache.
type FetchResult struct {
	// Value is the payload to cache and return.
	Value any

	// ETag and LastModified become the entry's conditional metadata.
	ETag         string
	LastModified string

	// TTL overrides the store's default when TTLSet is true.
	TTL    time.Duration
	TTLSet bool

	// NotModified reports that the origin confirmed the cached value is
	// still current. Value is ignored in that case.
	NotModified bool
}

// Middleware is the cache-fronting wrapper: it reads through the Store and
// coalesces concurrent fetches of the same key, so N simultaneous misses
// produce one origin call.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: origin errors are returned unchanged and never cached; store
//   write failures are logged and swallowed.
type Middleware struct {
	store  Store
	keyer  Keyer
	logger observe.Logger
	tracer observe.Tracer
	meta   observe.StoreMeta
	group  singleflight.Group
}

// MiddlewareOption configures a Middleware at construction.
type MiddlewareOption func(*Middleware)

// WithKeyer replaces the default keyer.
func WithKeyer(keyer Keyer) MiddlewareOption {
	return func(m *Middleware) {
		if keyer != nil {
			m.keyer = keyer
		}
	}
}

// WithFetchLogger attaches a structured logger. Defaults to a no-op.
func WithFetchLogger(logger observe.Logger) MiddlewareOption {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTracing attaches a tracer; every GetOrFetch becomes a span named
// from the store metadata.
func WithTracing(tracer observe.Tracer, meta observe.StoreMeta) MiddlewareOption {
	return func(m *Middleware) {
		if tracer != nil {
			m.tracer = tracer
			m.meta = meta
		}
	}
}

// NewMiddleware creates a fetch-through wrapper over the store.
func NewMiddleware(store Store, opts ...MiddlewareOption) (*Middleware, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	m := &Middleware{
		store:  store,
		keyer:  NewDefaultKeyer(),
		logger: observe.NopLogger(),
		tracer: observe.NopTracer(),
		meta:   observe.StoreMeta{Name: "memory"},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// FetchOption configures a single GetOrFetch call.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	revalidate bool
}

// WithRevalidate makes a hit revalidate against the origin when the entry
// carries conditional metadata, instead of trusting the cached value
// outright.
func WithRevalidate() FetchOption {
	return func(o *fetchOptions) {
		o.revalidate = true
	}
}

// GetOrFetch returns the cached value for the site/endpoint/params triple,
// fetching from the origin on a miss. A key-construction failure degrades
// to an uncached fetch.
func (m *Middleware) GetOrFetch(ctx context.Context, site, endpoint string, params map[string]any, fetch Fetcher, opts ...FetchOption) (any, error) {
	ctx, span := m.tracer.StartSpan(ctx, m.meta)
	v, err := m.getOrFetch(ctx, site, endpoint, params, fetch, opts...)
	m.tracer.EndSpan(span, err)
	return v, err
}

func (m *Middleware) getOrFetch(ctx context.Context, site, endpoint string, params map[string]any, fetch Fetcher, opts ...FetchOption) (any, error) {
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}

	key, err := m.keyer.Key(site, endpoint, params)
	if err != nil {
		m.logger.Warn(ctx, "key construction failed; fetching uncached",
			observe.Field{Key: "endpoint", Value: endpoint},
			observe.Field{Key: "error", Value: err.Error()})
		res, err := fetch(ctx, nil)
		if err != nil {
			return nil, err
		}
		return res.Value, nil
	}

	cached, hit := m.store.Get(ctx, key)
	if hit {
		if !o.revalidate {
			return cached, nil
		}
		cond := m.store.ConditionalHeaders(ctx, key)
		if len(cond) == 0 {
			return cached, nil
		}
		return m.revalidate(ctx, key, cached, cond, fetch)
	}

	// Miss: coalesce concurrent fetches of the same key.
	v, err, _ := m.group.Do(key, func() (any, error) {
		// A racing flight may have filled the slot while we queued.
		if v, ok := m.store.Get(ctx, key); ok {
			return v, nil
		}
		res, err := fetch(ctx, nil)
		if err != nil {
			return nil, err // errors are never cached
		}
		m.storeResult(ctx, key, res.Value, res)
		return res.Value, nil
	})
	return v, err
}

// revalidate asks the origin whether the cached value is still current.
// Any failure degrades to serving the cached value.
func (m *Middleware) revalidate(ctx context.Context, key string, cached any, cond Headers, fetch Fetcher) (any, error) {
	v, _, _ := m.group.Do("revalidate:"+key, func() (any, error) {
		res, err := fetch(ctx, cond)
		if err != nil {
			m.logger.Warn(ctx, "revalidation failed; serving cached value",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: err.Error()})
			return cached, nil
		}
		if res.NotModified {
			// Refresh the entry clock, carrying metadata forward unless
			// the origin supplied new validators.
			refreshed := *res
			if refreshed.ETag == "" {
				refreshed.ETag = cond[HeaderIfNoneMatch]
			}
			if refreshed.LastModified == "" {
				refreshed.LastModified = cond[HeaderIfModifiedSince]
			}
			m.storeResult(ctx, key, cached, &refreshed)
			return cached, nil
		}
		m.storeResult(ctx, key, res.Value, res)
		return res.Value, nil
	})
	return v, nil
}

// storeResult writes an origin response back to the store. Write failures
// are logged, never propagated.
func (m *Middleware) storeResult(ctx context.Context, key string, value any, res *FetchResult) {
	opts := make([]SetOption, 0, 3)
	if res.TTLSet {
		opts = append(opts, WithTTL(res.TTL))
	}
	if res.ETag != "" {
		opts = append(opts, WithETag(res.ETag))
	}
	if res.LastModified != "" {
		opts = append(opts, WithLastModified(res.LastModified))
	}
	if err := m.store.Set(ctx, key, value, opts...); err != nil {
		m.logger.Warn(ctx, "cache write failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()})
	}
}

// Store exposes the underlying store, e.g. for wiring an invalidation
// boundary.
func (m *Middleware) Store() Store {
	return m.store
}
