package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheMetrics records lookup and eviction metrics for a cache store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type CacheMetrics interface {
	// RecordLookup records a cache lookup and whether it hit.
	RecordLookup(ctx context.Context, meta StoreMeta, hit bool)

	// RecordEviction records entries forced out to stay within bounds.
	RecordEviction(ctx context.Context, meta StoreMeta, count int64)
}

// EngineMetrics records invalidation-engine activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type EngineMetrics interface {
	// RecordInvalidation records one pattern invalidation and its outcome.
	RecordInvalidation(ctx context.Context, resource string, err error)

	// RecordDrain records a completed queue drain with its event count
	// and duration.
	RecordDrain(ctx context.Context, events int64, duration time.Duration)
}

// cacheMetrics is the concrete implementation of CacheMetrics.
type cacheMetrics struct {
	lookupCount   metric.Int64Counter
	evictionCount metric.Int64Counter
}

// NewCacheMetrics creates a CacheMetrics instance with the given meter.
func NewCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	lookupCount, err := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Total number of cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	evictionCount, err := meter.Int64Counter(
		"cache.evictions",
		metric.WithDescription("Total number of LRU evictions"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &cacheMetrics{
		lookupCount:   lookupCount,
		evictionCount: evictionCount,
	}, nil
}

// RecordLookup records a lookup with a cache.hit attribute.
func (m *cacheMetrics) RecordLookup(ctx context.Context, meta StoreMeta, hit bool) {
	attrs := []attribute.KeyValue{
		attribute.String("cache.store", meta.Name),
		attribute.Bool("cache.hit", hit),
	}
	if meta.Site != "" {
		attrs = append(attrs, attribute.String("cache.site", meta.Site))
	}
	m.lookupCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEviction records evicted entries.
func (m *cacheMetrics) RecordEviction(ctx context.Context, meta StoreMeta, count int64) {
	if count <= 0 {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("cache.store", meta.Name),
	}
	if meta.Site != "" {
		attrs = append(attrs, attribute.String("cache.site", meta.Site))
	}
	m.evictionCount.Add(ctx, count, metric.WithAttributes(attrs...))
}

// engineMetrics is the concrete implementation of EngineMetrics.
type engineMetrics struct {
	invalidationCount metric.Int64Counter
	drainEvents       metric.Int64Counter
	drainDuration     metric.Float64Histogram
}

// NewEngineMetrics creates an EngineMetrics instance with the given meter.
func NewEngineMetrics(meter metric.Meter) (EngineMetrics, error) {
	invalidationCount, err := meter.Int64Counter(
		"cache.invalidation.patterns",
		metric.WithDescription("Total number of pattern invalidations issued"),
		metric.WithUnit("{pattern}"),
	)
	if err != nil {
		return nil, err
	}

	drainEvents, err := meter.Int64Counter(
		"cache.invalidation.events",
		metric.WithDescription("Total number of invalidation events drained"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	drainDuration, err := meter.Float64Histogram(
		"cache.invalidation.drain_ms",
		metric.WithDescription("Invalidation queue drain duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &engineMetrics{
		invalidationCount: invalidationCount,
		drainEvents:       drainEvents,
		drainDuration:     drainDuration,
	}, nil
}

// RecordInvalidation records one pattern invalidation.
func (m *engineMetrics) RecordInvalidation(ctx context.Context, resource string, err error) {
	m.invalidationCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.resource", resource),
		attribute.Bool("cache.error", err != nil),
	))
}

// RecordDrain records a completed drain.
func (m *engineMetrics) RecordDrain(ctx context.Context, events int64, duration time.Duration) {
	m.drainEvents.Add(ctx, events)
	m.drainDuration.Record(ctx, float64(duration.Milliseconds()))
}

// nopCacheMetrics is a CacheMetrics implementation that does nothing.
type nopCacheMetrics struct{}

func (nopCacheMetrics) RecordLookup(ctx context.Context, meta StoreMeta, hit bool)     {}
func (nopCacheMetrics) RecordEviction(ctx context.Context, meta StoreMeta, count int64) {}

// NopCacheMetrics returns a CacheMetrics that discards everything.
func NopCacheMetrics() CacheMetrics {
	return nopCacheMetrics{}
}

// nopEngineMetrics is an EngineMetrics implementation that does nothing.
type nopEngineMetrics struct{}

func (nopEngineMetrics) RecordInvalidation(ctx context.Context, resource string, err error) {}
func (nopEngineMetrics) RecordDrain(ctx context.Context, events int64, duration time.Duration) {
}

// NopEngineMetrics returns an EngineMetrics that discards everything.
func NopEngineMetrics() EngineMetrics {
	return nopEngineMetrics{}
}

// Ensure implementations satisfy their interfaces
var (
	_ CacheMetrics  = (*cacheMetrics)(nil)
	_ EngineMetrics = (*engineMetrics)(nil)
	_ CacheMetrics  = nopCacheMetrics{}
	_ EngineMetrics = nopEngineMetrics{}
)
