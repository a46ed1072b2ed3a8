// Package cache provides a bounded in-memory store for remote content
// responses.
//
// It offers true least-recently-used eviction, per-entry TTL with lazy
// expiration, deterministic key construction from a site/endpoint/parameter
// triple, conditional-request metadata (ETag / Last-Modified), and live
// hit-rate statistics. A fetch-through Middleware coalesces concurrent
// misses and revalidates cached values against the origin.
package cache
