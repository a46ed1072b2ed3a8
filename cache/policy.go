package cache

import "time"

// Policy configures a store at construction time. Per the explicit-
// construction rule, a Policy is passed in rather than read from shared
// global state.
type Policy struct {
	// MaxEntries bounds the store size. Must be positive; evictions keep
	// the store at or under this bound after every mutation.
	MaxEntries int

	// DefaultTTL is the TTL applied when a Set carries no explicit TTL.
	DefaultTTL time.Duration

	// MaxTTL caps explicit positive TTLs. Zero means no cap.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default store policy.
// MaxEntries: 1000, DefaultTTL: 5 minutes, MaxTTL: 1 hour
func DefaultPolicy() Policy {
	return Policy{
		MaxEntries: 1000,
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     1 * time.Hour,
	}
}

// Validate checks the policy. A non-positive MaxEntries is the one
// configuration error that fails construction.
func (p Policy) Validate() error {
	if p.MaxEntries <= 0 {
		return ErrInvalidMaxEntries
	}
	return nil
}

// EffectiveTTL returns the TTL a Set call should use. An explicit TTL wins
// even when zero or negative (expired on arrival); otherwise DefaultTTL
// applies. Positive TTLs are clamped to MaxTTL when one is set.
func (p Policy) EffectiveTTL(explicit time.Duration, haveExplicit bool) time.Duration {
	ttl := p.DefaultTTL
	if haveExplicit {
		ttl = explicit
	}
	if ttl > 0 && p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
