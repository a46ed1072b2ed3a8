package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonwraymond/contentops/observe"
	"github.com/jonwraymond/contentops/pattern"
)

// MemoryStore is the in-memory Store implementation. Reads and writes both
// refresh an entry's recency, so eviction always removes the entry with
// the oldest LastAccessed, not the oldest insertion.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front = most recently accessed
	policy  Policy
	ctrs    counters
	meta    observe.StoreMeta
	logger  observe.Logger
	metrics observe.CacheMetrics
}

// slot links a key to its entry inside the LRU list.
type slot struct {
	key   string
	entry *Entry
}

// StoreOption configures a MemoryStore at construction.
type StoreOption func(*MemoryStore)

// WithLogger attaches a structured logger. Defaults to a no-op.
func WithLogger(logger observe.Logger) StoreOption {
	return func(s *MemoryStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches lookup/eviction metrics. Defaults to a no-op.
func WithMetrics(metrics observe.CacheMetrics) StoreOption {
	return func(s *MemoryStore) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithMeta sets the telemetry identity of the store.
func WithMeta(meta observe.StoreMeta) StoreOption {
	return func(s *MemoryStore) {
		s.meta = meta
	}
}

// NewMemoryStore creates a bounded in-memory store. The policy is the only
// hard-failure point: a non-positive MaxEntries is rejected here.
func NewMemoryStore(policy Policy, opts ...StoreOption) (*MemoryStore, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	s := &MemoryStore{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		policy:  policy,
		meta:    observe.StoreMeta{Name: "memory"},
		logger:  observe.NopLogger(),
		metrics: observe.NopCacheMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithStore(s.meta)
	return s, nil
}

// Get retrieves a cached value. A hit refreshes the entry's recency and
// bumps its access count; a lookup that finds an expired entry removes it
// (lazy expiration) and counts as a miss, not an eviction.
func (s *MemoryStore) Get(ctx context.Context, key string) (any, bool) {
	now := time.Now()

	s.mu.Lock()
	el, ok := s.entries[key]
	if !ok {
		s.ctrs.misses++
		s.mu.Unlock()
		s.metrics.RecordLookup(ctx, s.meta, false)
		return nil, false
	}

	sl := el.Value.(*slot)
	if !sl.entry.valid() {
		// Corrupted slot: treat as absent and free it for overwrite.
		s.removeLocked(el)
		s.ctrs.misses++
		s.mu.Unlock()
		s.metrics.RecordLookup(ctx, s.meta, false)
		s.logger.Warn(ctx, "dropping corrupted cache entry", observe.Field{Key: "key", Value: key})
		return nil, false
	}

	if sl.entry.Expired(now) {
		s.removeLocked(el)
		s.ctrs.misses++
		s.mu.Unlock()
		s.metrics.RecordLookup(ctx, s.meta, false)
		return nil, false
	}

	sl.entry.LastAccessed = now
	sl.entry.AccessCount++
	s.lru.MoveToFront(el)
	s.ctrs.hits++
	value := sl.entry.Value
	s.mu.Unlock()

	s.metrics.RecordLookup(ctx, s.meta, true)
	return value, true
}

// Has reports whether a live entry exists. Expired and corrupted entries
// are removed as in Get, but no stats or access bookkeeping change.
func (s *MemoryStore) Has(ctx context.Context, key string) bool {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return false
	}
	sl := el.Value.(*slot)
	if !sl.entry.valid() || sl.entry.Expired(now) {
		s.removeLocked(el)
		return false
	}
	return true
}

// Set inserts or overwrites an entry. The write counts as an access. When
// a brand-new key pushes the store past MaxEntries, the least recently
// accessed entries are evicted until the bound holds again.
func (s *MemoryStore) Set(ctx context.Context, key string, value any, opts ...SetOption) error {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}

	now := time.Now()
	entry := &Entry{
		Value:        value,
		TTL:          s.policy.EffectiveTTL(o.ttl, o.ttlSet),
		CreatedAt:    now,
		LastAccessed: now,
		AccessCount:  1,
		ETag:         o.etag,
		LastModified: o.lastModified,
	}

	var evicted int64

	s.mu.Lock()
	if el, ok := s.entries[key]; ok {
		el.Value.(*slot).entry = entry
		s.lru.MoveToFront(el)
	} else {
		s.entries[key] = s.lru.PushFront(&slot{key: key, entry: entry})
		for len(s.entries) > s.policy.MaxEntries {
			back := s.lru.Back()
			if back == nil {
				break
			}
			s.removeLocked(back)
			s.ctrs.evictions++
			evicted++
		}
	}
	s.ctrs.sets++
	s.mu.Unlock()

	if evicted > 0 {
		s.metrics.RecordEviction(ctx, s.meta, evicted)
		s.logger.Debug(ctx, "evicted least recently used entries",
			observe.Field{Key: "count", Value: evicted})
	}
	return nil
}

// Delete removes the entry if present. The deletes counter moves only on
// an actual removal.
func (s *MemoryStore) Delete(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return false
	}
	s.removeLocked(el)
	s.ctrs.deletes++
	return true
}

// Clear removes all entries. Cumulative counters survive.
func (s *MemoryStore) Clear(ctx context.Context) {
	s.mu.Lock()
	s.entries = make(map[string]*list.Element)
	s.lru.Init()
	s.mu.Unlock()

	s.logger.Info(ctx, "cache cleared")
}

// ClearPattern removes every entry whose key matches the pattern and
// returns the count removed.
func (s *MemoryStore) ClearPattern(ctx context.Context, pat string) int {
	m := pattern.Compile(pat)

	s.mu.Lock()
	removed := 0
	for key, el := range s.entries {
		if m.Match(key) {
			s.removeLocked(el)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug(ctx, "cleared entries by pattern",
			observe.Field{Key: "pattern", Value: pat},
			observe.Field{Key: "count", Value: removed})
	}
	return removed
}

// ClearSite removes every entry belonging to one site and returns the
// count removed. Used when all cached state for a site must be dropped,
// e.g. on credential rotation.
func (s *MemoryStore) ClearSite(ctx context.Context, siteID string) int {
	prefix := siteID + ":"

	s.mu.Lock()
	removed := 0
	for key, el := range s.entries {
		if strings.HasPrefix(key, prefix) {
			s.removeLocked(el)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Info(ctx, "cleared entries for site",
			observe.Field{Key: "site", Value: siteID},
			observe.Field{Key: "count", Value: removed})
	}
	return removed
}

// Keys returns the keys of all live entries.
func (s *MemoryStore) Keys(ctx context.Context) []string {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for key, el := range s.entries {
		sl := el.Value.(*slot)
		if sl.entry.valid() && !sl.entry.Expired(now) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Len returns the current entry count, expired-but-unswept entries
// included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns a snapshot of the cumulative counters and the live size.
func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrs.snapshot(len(s.entries))
}

// SupportsConditionalRequest reports whether the entry exists, is live,
// and carries revalidation metadata.
func (s *MemoryStore) SupportsConditionalRequest(ctx context.Context, key string) bool {
	return len(s.ConditionalHeaders(ctx, key)) > 0
}

// ConditionalHeaders returns the If-None-Match / If-Modified-Since pair
// for the entry. Like Has, it mutates no stats or bookkeeping.
func (s *MemoryStore) ConditionalHeaders(ctx context.Context, key string) Headers {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return nil
	}
	sl := el.Value.(*slot)
	if !sl.entry.valid() || sl.entry.Expired(now) {
		return nil
	}
	return conditionalHeaders(sl.entry)
}

// removeLocked unlinks an element from both the map and the LRU list.
// Callers hold s.mu.
func (s *MemoryStore) removeLocked(el *list.Element) {
	sl := s.lru.Remove(el).(*slot)
	delete(s.entries, sl.key)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
