package cache

// Conditional-request header names.
const (
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"
)

// Headers is a set of conditional-request headers a caller can attach to
// an origin request to revalidate a cached value without re-fetching the
// full payload.
type Headers map[string]string

// conditionalHeaders derives the revalidation headers from an entry.
// Returns nil when the entry carries no conditional metadata.
func conditionalHeaders(e *Entry) Headers {
	if !e.Conditional() {
		return nil
	}
	h := make(Headers, 2)
	if e.ETag != "" {
		h[HeaderIfNoneMatch] = e.ETag
	}
	if e.LastModified != "" {
		h[HeaderIfModifiedSince] = e.LastModified
	}
	return h
}
