package invalidate

import "errors"

// Sentinel errors for invalidation operations.
var (
	// ErrNilInvalidator indicates a nil boundary was provided.
	ErrNilInvalidator = errors.New("invalidate: invalidator is nil")

	// ErrNilStore indicates a nil store was provided to a boundary.
	ErrNilStore = errors.New("invalidate: store is nil")

	// ErrMissingResource indicates an event without a resource name.
	// Such events are logged and skipped by the engine, never propagated.
	ErrMissingResource = errors.New("invalidate: event resource is required")
)
