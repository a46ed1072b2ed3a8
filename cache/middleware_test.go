package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/contentops/observe"
)

func TestMiddleware_FetchThrough(t *testing.T) {
	s := newTestStore(t, DefaultPolicy())
	m, err := NewMiddleware(s)
	if err != nil {
		t.Fatalf("NewMiddleware failed: %v", err)
	}
	ctx := context.Background()

	var calls int32
	fetch := func(ctx context.Context, cond Headers) (*FetchResult, error) {
		atomic.AddInt32(&calls, 1)
		return &FetchResult{Value: "payload"}, nil
	}

	// First call fetches.
	v, err := m.GetOrFetch(ctx, "site1", "posts", nil, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if v != "payload" {
		t.Errorf("value = %v, want payload", v)
	}

	// Second call is served from the store.
	if _, err := m.GetOrFetch(ctx, "site1", "posts", nil, fetch); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("origin called %d times, want 1", calls)
	}
}

func TestMiddleware_ErrorsNotCached(t *testing.T) {
	s := newTestStore(t, DefaultPolicy())
	m, _ := NewMiddleware(s)
	ctx := context.Background()

	boom := errors.New("origin down")
	var calls int32
	fetch := func(ctx context.Context, cond Headers) (*FetchResult, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, boom
		}
		return &FetchResult{Value: "recovered"}, nil
	}

	if _, err := m.GetOrFetch(ctx, "s", "posts", nil, fetch); !errors.Is(err, boom) {
		t.Fatalf("expected origin error, got %v", err)
	}

	// The failure was not cached; the next call fetches again.
	v, err := m.GetOrFetch(ctx, "s", "posts", nil, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if v != "recovered" {
		t.Errorf("value = %v, want recovered", v)
	}
}

func TestMiddleware_CoalescesConcurrentMisses(t *testing.T) {
	s := newTestStore(t, DefaultPolicy())
	m, _ := NewMiddleware(s)
	ctx := context.Background()

	var calls int32
	gate := make(chan struct{})
	fetch := func(ctx context.Context, cond Headers) (*FetchResult, error) {
		atomic.AddInt32(&calls, 1)
		<-gate
		return &FetchResult{Value: "shared"}, nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v, err := m.GetOrFetch(ctx, "s", "posts", nil, fetch)
			if err != nil {
				t.Errorf("GetOrFetch failed: %v", err)
			}
			results[n] = v
		}(i)
	}

	// Let the goroutines pile up on the in-flight fetch, then release it.
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("origin called %d times for 8 concurrent misses, want 1", got)
	}
	for i, v := range results {
		if v != "shared" {
			t.Errorf("result %d = %v, want shared", i, v)
		}
	}
}

func TestMiddleware_RevalidateNotModified(t *testing.T) {
	s := newTestStore(t, DefaultPolicy())
	m, _ := NewMiddleware(s)
	ctx := context.Background()

	first := func(ctx context.Context, cond Headers) (*FetchResult, error) {
		return &FetchResult{Value: "v1", ETag: `"e1"`}, nil
	}
	v, err := m.GetOrFetch(ctx, "s", "posts", nil, first)
	if err != nil || v != "v1" {
		t.Fatalf("initial fetch = (%v, %v)", v, err)
	}

	var sawCond Headers
	notModified := func(ctx context.Context, cond Headers) (*FetchResult, error) {
		sawCond = cond
		return &FetchResult{NotModified: true}, nil
	}
	v, err = m.GetOrFetch(ctx, "s", "posts", nil, notModified, WithRevalidate())
	if err != nil {
		t.Fatalf("revalidate failed: %v", err)
	}
	if v != "v1" {
		t.Errorf("not-modified revalidation returned %v, want cached v1", v)
	}
	if sawCond[HeaderIfNoneMatch] != `"e1"` {
		t.Errorf("origin saw If-None-Match %q, want %q", sawCond[HeaderIfNoneMatch], `"e1"`)
	}

	// Metadata is carried forward so a later revalidation still works.
	if !s.SupportsConditionalRequest(ctx, "s:posts") {
		t.Error("conditional metadata lost after not-modified refresh")
	}
}

func TestMiddleware_RevalidateModified(t *testing.T) {
	s := newTestStore(t, DefaultPolicy())
	m, _ := NewMiddleware(s)
	ctx := context.Background()

	_ = s.Set(ctx, "s:posts", "v1", WithETag(`"e1"`))

	modified := func(ctx context.Context, cond Headers) (*FetchResult, error) {
		return &FetchResult{Value: "v2", ETag: `"e2"`}, nil
	}
	v, err := m.GetOrFetch(ctx, "s", "posts", nil, modified, WithRevalidate())
	if err != nil {
		t.Fatalf("revalidate failed: %v", err)
	}
	if v != "v2" {
		t.Errorf("modified revalidation returned %v, want v2", v)
	}
	if h := s.ConditionalHeaders(ctx, "s:posts"); h[HeaderIfNoneMatch] != `"e2"` {
		t.Errorf("entry etag = %q, want %q", h[HeaderIfNoneMatch], `"e2"`)
	}
}

func TestMiddleware_RevalidateFailureServesCached(t *testing.T) {
	s := newTestStore(t, DefaultPolicy())
	m, _ := NewMiddleware(s)
	ctx := context.Background()

	_ = s.Set(ctx, "s:posts", "v1", WithETag(`"e1"`))

	failing := func(ctx context.Context, cond Headers) (*FetchResult, error) {
		return nil, errors.New("origin down")
	}
	v, err := m.GetOrFetch(ctx, "s", "posts", nil, failing, WithRevalidate())
	if err != nil {
		t.Fatalf("revalidation failure must not surface: %v", err)
	}
	if v != "v1" {
		t.Errorf("degraded revalidation returned %v, want cached v1", v)
	}
}

func TestMiddleware_KeyFailureFetchesUncached(t *testing.T) {
	s := newTestStore(t, DefaultPolicy())
	m, _ := NewMiddleware(s)
	ctx := context.Background()

	var calls int32
	fetch := func(ctx context.Context, cond Headers) (*FetchResult, error) {
		atomic.AddInt32(&calls, 1)
		return &FetchResult{Value: "direct"}, nil
	}
	params := map[string]any{"ch": make(chan int)} // unserializable

	for i := 0; i < 2; i++ {
		v, err := m.GetOrFetch(ctx, "s", "posts", params, fetch)
		if err != nil {
			t.Fatalf("GetOrFetch failed: %v", err)
		}
		if v != "direct" {
			t.Errorf("value = %v, want direct", v)
		}
	}
	// Nothing was cached; both calls hit the origin.
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("origin called %d times, want 2", got)
	}
	if s.Len() != 0 {
		t.Errorf("store should be empty, has %d entries", s.Len())
	}
}

func TestMiddleware_TTLOverride(t *testing.T) {
	s := newTestStore(t, DefaultPolicy())
	m, _ := NewMiddleware(s)
	ctx := context.Background()

	fetch := func(ctx context.Context, cond Headers) (*FetchResult, error) {
		return &FetchResult{Value: "v", TTL: 30 * time.Millisecond, TTLSet: true}, nil
	}
	if _, err := m.GetOrFetch(ctx, "s", "posts", nil, fetch); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if !s.Has(ctx, "s:posts") {
		t.Fatal("entry should be cached")
	}
	time.Sleep(50 * time.Millisecond)
	if s.Has(ctx, "s:posts") {
		t.Error("entry should have expired under the override TTL")
	}
}

func TestNewMiddleware_NilStore(t *testing.T) {
	if _, err := NewMiddleware(nil); !errors.Is(err, ErrNilStore) {
		t.Fatalf("expected ErrNilStore, got %v", err)
	}
}

func TestMiddleware_TracingSpansPerFetch(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := observe.NewTracer(tp.Tracer("test"))

	s := newTestStore(t, DefaultPolicy())
	m, _ := NewMiddleware(s, WithTracing(tracer, observe.StoreMeta{Name: "memory", Site: "site1"}))
	ctx := context.Background()

	fetch := func(ctx context.Context, cond Headers) (*FetchResult, error) {
		return &FetchResult{Value: "v"}, nil
	}
	if _, err := m.GetOrFetch(ctx, "site1", "posts", nil, fetch); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if _, err := m.GetOrFetch(ctx, "site1", "posts", nil, fetch); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want one per GetOrFetch", len(spans))
	}
	if spans[0].Name() != "cache.lookup.site1.memory" {
		t.Errorf("span name = %q, want cache.lookup.site1.memory", spans[0].Name())
	}
}

func TestMiddleware_CustomKeyer(t *testing.T) {
	s := newTestStore(t, DefaultPolicy())
	m, _ := NewMiddleware(s, WithKeyer(staticKeyer{key: "fixed"}))
	ctx := context.Background()

	fetch := func(ctx context.Context, cond Headers) (*FetchResult, error) {
		return &FetchResult{Value: "v"}, nil
	}
	if _, err := m.GetOrFetch(ctx, "site1", "posts", nil, fetch); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if !s.Has(ctx, "fixed") {
		t.Error("entry not stored under the custom keyer's key")
	}
}

type staticKeyer struct{ key string }

func (k staticKeyer) Key(site, endpoint string, params map[string]any) (string, error) {
	return k.key, nil
}
