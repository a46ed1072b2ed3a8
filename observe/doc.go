// Package observe provides observability primitives for the cache core.
//
// It is a pure instrumentation library: no caching, no transport, no I/O
// beyond exporter setup. The cache store and the invalidation engine take
// its Logger and metrics interfaces at construction; hosts that want
// telemetry wire a NewObserver, everyone else gets no-ops.
package observe
