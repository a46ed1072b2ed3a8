package cache

import "errors"

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	// ErrNilStore indicates a nil Store was provided.
	ErrNilStore = errors.New("cache: store is nil")

	// ErrInvalidKey indicates a key is empty or contains control characters.
	ErrInvalidKey = errors.New("cache: key is invalid")

	// ErrKeyTooLong indicates a key exceeds MaxKeyLength.
	ErrKeyTooLong = errors.New("cache: key exceeds max length")

	// ErrInvalidMaxEntries indicates Policy.MaxEntries is not positive.
	// Construction is the one place the cache fails hard.
	ErrInvalidMaxEntries = errors.New("cache: max entries must be positive")
)
