package cache

import (
	"context"
	"strings"
	"time"
)

// Store is the interface for caching remote content responses.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get never errors; it returns (nil, false) on miss, on expiry,
//   and on a structurally corrupted entry. Set swallows persistence
//   failures; construction is the only hard-failure point.
// - Ownership: values are stored by reference and returned with the same
//   identity they were stored with. They are never copied or serialized.
type Store interface {
	// Get retrieves a cached value. Returns (nil, false) on miss or
	// expiry. A successful read refreshes the entry's recency; a read of
	// an expired entry removes it.
	Get(ctx context.Context, key string) (any, bool)

	// Has reports whether a live entry exists for key. Same expiration
	// semantics as Get, but no access bookkeeping and no stats.
	Has(ctx context.Context, key string) bool

	// Set inserts or overwrites an entry. Without WithTTL the policy's
	// DefaultTTL applies; an explicit zero or negative TTL stores an
	// entry that is already expired.
	Set(ctx context.Context, key string, value any, opts ...SetOption) error

	// Delete removes the entry if present and reports whether a removal
	// occurred.
	Delete(ctx context.Context, key string) bool

	// Clear removes all entries. Cumulative stats counters survive.
	Clear(ctx context.Context)

	// ClearPattern removes every entry whose key matches the pattern
	// (package pattern syntax) and returns the count removed.
	ClearPattern(ctx context.Context, pat string) int

	// ClearSite removes every entry whose key is prefixed "siteID:" and
	// returns the count removed.
	ClearSite(ctx context.Context, siteID string) int

	// Keys returns the keys of all live (unexpired) entries.
	Keys(ctx context.Context) []string

	// Len returns the current entry count.
	Len() int

	// Stats returns a snapshot of cumulative counters and the live size.
	Stats() Stats

	// SupportsConditionalRequest reports whether the entry carries ETag
	// or Last-Modified metadata usable for origin revalidation.
	SupportsConditionalRequest(ctx context.Context, key string) bool

	// ConditionalHeaders returns the If-None-Match / If-Modified-Since
	// pair for the entry, or an empty set when unavailable.
	ConditionalHeaders(ctx context.Context, key string) Headers
}

// SetOption configures a single Set call.
type SetOption func(*setOptions)

type setOptions struct {
	ttl          time.Duration
	ttlSet       bool
	etag         string
	lastModified string
}

// WithTTL sets an explicit TTL for the entry. Zero or negative means the
// entry is expired on arrival and will never be readable.
func WithTTL(d time.Duration) SetOption {
	return func(o *setOptions) {
		o.ttl = d
		o.ttlSet = true
	}
}

// WithETag attaches an ETag for conditional revalidation.
func WithETag(etag string) SetOption {
	return func(o *setOptions) {
		o.etag = etag
	}
}

// WithLastModified attaches a Last-Modified value for conditional
// revalidation.
func WithLastModified(lastModified string) SetOption {
	return func(o *setOptions) {
		o.lastModified = lastModified
	}
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
