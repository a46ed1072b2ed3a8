// Package invalidate provides rule-driven cache invalidation for content
// mutations.
//
// Hosts register declarative rules per resource (posts, users, ...) and
// fire events when content is created, updated, or deleted. A single
// asynchronous drain loop resolves each rule's patterns, substituting
// {field} placeholders from the event, and issues targeted invalidations
// against an externally supplied boundary. The engine never reaches into a
// cache store directly, so the same rules can drive an in-memory store, a
// disk-backed store, or a remote cache unmodified.
package invalidate
