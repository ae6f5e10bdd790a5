// Package cache provides key-scoped result caching with TTL-bounded freshness.
//
// The package defines a generic Cache[V] interface with two backends: an
// in-memory store (map + LRU eviction list + background janitor) and a
// Redis-backed store for sharing results between processes or browser-tab
// equivalents. Both follow the same freshness rule: an entry stored at time T
// with TTL D is served only while now-T < D; an expired entry is evicted on
// the access that discovers it.
//
// TTL semantics for Set:
//   - Positive duration: entry expires after this duration
//   - Zero: use the cache's configured default TTL
//   - Negative: entry never expires
//
// Backends report failures as errors. Callers that must never observe a
// storage failure (the synchronization engine treats the cache as
// best-effort) wrap a backend in Resilient, which absorbs backend errors and
// degrades to cache-miss behavior instead.
//
// GetOrSet provides stampede protection: concurrent misses for the same key
// share a single loader invocation via singleflight.
package cache
