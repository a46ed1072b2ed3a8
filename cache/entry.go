package cache

import "time"

// Entry is a single cached record. Entries are owned by the store; callers
// observe them only through Store methods.
type Entry struct {
	// Value is the opaque payload, stored by reference.
	Value any

	// TTL is the entry's lifetime relative to CreatedAt. Zero or negative
	// means expired on arrival.
	TTL time.Duration

	// CreatedAt is the insertion timestamp.
	CreatedAt time.Time

	// LastAccessed is updated on every successful read and on write.
	LastAccessed time.Time

	// AccessCount counts the write plus every successful read.
	AccessCount int64

	// ETag and LastModified are optional conditional-request metadata,
	// set explicitly at write time.
	ETag         string
	LastModified string
}

// Expired reports whether the entry is past its TTL at the given instant.
// An entry with TTL <= 0 is expired from the moment it is written.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.CreatedAt.Add(e.TTL))
}

// Conditional reports whether the entry carries revalidation metadata.
func (e *Entry) Conditional() bool {
	return e.ETag != "" || e.LastModified != ""
}

// valid reports whether the entry is structurally sound. A slot written by
// bypassing Set (nil entry, zero timestamps) reads as absent rather than
// failing.
func (e *Entry) valid() bool {
	return e != nil && !e.CreatedAt.IsZero() && !e.LastAccessed.Before(e.CreatedAt)
}
