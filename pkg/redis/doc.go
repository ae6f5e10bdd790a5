// Package redis provides Redis connection management for the shared result
// store: URL-based configuration, connection retry with backoff, and a
// shutdown helper.
package redis
