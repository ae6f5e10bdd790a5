package cache

import "time"

// RedisOption configures the Redis cache.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix     string
	defaultTTL time.Duration
}

func defaultRedisOptions() *redisOptions {
	return &redisOptions{
		defaultTTL: 5 * time.Minute,
	}
}

// WithRedisDefaultTTL sets the expiration used when Set is called with a
// zero TTL.
// Default: 5 minutes.
func WithRedisDefaultTTL(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.defaultTTL = d
	}
}

// WithKeyPrefix sets a key prefix for all cache operations. Keys are stored
// as "{prefix}:{key}". Use it to namespace caches sharing one Redis instance
// (e.g. "coupons" vs "comparisons").
func WithKeyPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}
