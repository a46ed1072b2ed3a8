package invalidate

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/contentops/observe"
	"github.com/jonwraymond/contentops/pattern"
)

// Invalidator is the cache-invalidation boundary the engine drives. The
// engine only ever calls this interface; it has no knowledge of the store
// behind it.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: InvalidatePattern should honor cancellation/deadlines.
// - Errors: failures are reported, not panicked; the engine logs and
//   continues.
type Invalidator interface {
	// InvalidatePattern removes every cached entry matching the pattern.
	InvalidatePattern(ctx context.Context, pat string) error
}

// KeyEnumerator is an optional boundary extension: a way to enumerate
// currently-cached keys. When available, cascade patterns that match no
// live key are skipped instead of invalidated blind. A nil slice means
// enumeration is unavailable; an empty cache returns an empty non-nil
// slice.
type KeyEnumerator interface {
	Keys(ctx context.Context) []string
}

// Engine drains content-mutation events against registered rules and
// issues pattern invalidations at the boundary.
//
// Contract:
// - Concurrency: Trigger may be called from any number of goroutines; at
//   most one drain loop runs at a time.
// - Ordering: events drain FIFO, one at a time, so invalidations for a
//   resource apply in enqueue order. Trigger returning says nothing about
//   the invalidation having completed; use Flush to wait.
// - Errors: a failing event is logged and skipped, never propagated.
type Engine struct {
	mu         sync.Mutex
	rules      map[string][]Rule
	queue      []Event
	processing bool
	waiters    []chan struct{}

	boundary Invalidator
	enum     KeyEnumerator // nil when the boundary cannot enumerate
	siteID   string
	logger   observe.Logger
	metrics  observe.EngineMetrics
}

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithSiteID sets the site context used by InvalidateResource.
func WithSiteID(siteID string) EngineOption {
	return func(e *Engine) {
		e.siteID = siteID
	}
}

// WithEngineLogger attaches a structured logger. Defaults to a no-op.
func WithEngineLogger(logger observe.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEngineMetrics attaches engine metrics. Defaults to a no-op.
func WithEngineMetrics(metrics observe.EngineMetrics) EngineOption {
	return func(e *Engine) {
		if metrics != nil {
			e.metrics = metrics
		}
	}
}

// WithoutDefaultRules starts the engine with an empty rule registry.
func WithoutDefaultRules() EngineOption {
	return func(e *Engine) {
		e.rules = make(map[string][]Rule)
	}
}

// NewEngine creates an invalidation engine over the given boundary. The
// default rule set is installed unless WithoutDefaultRules is passed.
func NewEngine(boundary Invalidator, opts ...EngineOption) (*Engine, error) {
	if boundary == nil {
		return nil, ErrNilInvalidator
	}

	e := &Engine{
		rules:    DefaultRules(),
		boundary: boundary,
		logger:   observe.NopLogger(),
		metrics:  observe.NopEngineMetrics(),
	}
	if enum, ok := boundary.(KeyEnumerator); ok {
		e.enum = enum
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RegisterRule appends a rule to the resource's rule list. Multiple rules
// per resource and per trigger are expected.
func (e *Engine) RegisterRule(resource string, rule Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[resource] = append(e.rules[resource], rule)
}

// Trigger enqueues an event and starts the drain loop if idle. It returns
// immediately: mutation call sites are never blocked by invalidation side
// effects. A malformed event (missing resource) is logged and dropped.
func (e *Engine) Trigger(event Event) {
	if event.Resource == "" {
		e.logger.Warn(context.Background(), "dropping invalidation event without resource",
			observe.Field{Key: "type", Value: string(event.Type)})
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	e.mu.Lock()
	e.queue = append(e.queue, event)
	if !e.processing {
		e.processing = true
		go e.drain()
	}
	e.mu.Unlock()
}

// InvalidateResource is a convenience entry point: it builds an event with
// the engine's site context and the current time, then triggers it. An
// empty action defaults to update.
func (e *Engine) InvalidateResource(resource, id string, action Action) {
	if action == "" {
		action = ActionUpdate
	}
	e.Trigger(Event{
		Type:      action,
		Resource:  resource,
		ID:        id,
		SiteID:    e.siteID,
		Timestamp: time.Now(),
	})
}

// Flush blocks until the queue is drained or the context is done. Callers
// that need read-your-invalidation semantics after Trigger use this.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if !e.processing && len(e.queue) == 0 {
		e.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	e.waiters = append(e.waiters, done)
	e.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// drain pops events FIFO until the queue is empty, including events
// enqueued while the drain is running. Exactly one drain runs at a time;
// the processing flag is flipped under the same mutex that guards the
// queue.
func (e *Engine) drain() {
	ctx := context.Background()
	start := time.Now()
	var drained int64

	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.processing = false
			waiters := e.waiters
			e.waiters = nil
			e.mu.Unlock()

			e.metrics.RecordDrain(ctx, drained, time.Since(start))
			for _, w := range waiters {
				close(w)
			}
			return
		}
		event := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		e.processEvent(ctx, event)
		drained++
	}
}

// processEvent applies every rule registered for the event's resource
// whose trigger matches the event type. No rules, or no matching trigger,
// is a silent no-op.
func (e *Engine) processEvent(ctx context.Context, event Event) {
	e.mu.Lock()
	rules := make([]Rule, len(e.rules[event.Resource]))
	copy(rules, e.rules[event.Resource])
	e.mu.Unlock()

	for _, rule := range rules {
		if rule.Trigger != event.Type {
			continue
		}
		e.applyRule(ctx, rule, event)
	}
}

// applyRule resolves the rule's patterns against the event and invalidates
// each at the boundary. Cascade patterns follow, filtered through the key
// enumerator when one is available.
func (e *Engine) applyRule(ctx context.Context, rule Rule, event Event) {
	vars := event.vars()

	for _, pat := range rule.Patterns {
		e.invalidate(ctx, pattern.Resolve(pat, vars), event)
	}

	if !rule.Cascade {
		return
	}
	for _, pat := range rule.CascadePatterns {
		resolved := pattern.Resolve(pat, vars)
		if e.cascadeMatchesNothing(ctx, resolved) {
			e.logger.Debug(ctx, "skipping cascade pattern with no live keys",
				observe.Field{Key: "pattern", Value: resolved})
			continue
		}
		e.invalidate(ctx, resolved, event)
	}
}

// invalidate issues one pattern invalidation, recording the outcome. A
// boundary failure is logged and swallowed so the drain keeps moving.
func (e *Engine) invalidate(ctx context.Context, pat string, event Event) {
	err := e.boundary.InvalidatePattern(ctx, pat)
	e.metrics.RecordInvalidation(ctx, event.Resource, err)
	if err != nil {
		e.logger.Warn(ctx, "pattern invalidation failed",
			observe.Field{Key: "pattern", Value: pat},
			observe.Field{Key: "resource", Value: event.Resource},
			observe.Field{Key: "error", Value: err.Error()})
	}
}

// cascadeMatchesNothing reports whether a wildcard cascade pattern matches
// no currently-cached key. Without an enumerator, or for a concrete
// pattern, the answer is always false and the invalidation proceeds.
func (e *Engine) cascadeMatchesNothing(ctx context.Context, pat string) bool {
	if e.enum == nil || !pattern.HasMeta(pat) {
		return false
	}
	keys := e.enum.Keys(ctx)
	if keys == nil {
		return false
	}
	m := pattern.Compile(pat)
	for _, key := range keys {
		if m.Match(key) {
			return false
		}
	}
	return true
}
