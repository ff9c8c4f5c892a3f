package config

import "time"

// CacheConfig controls the Redis-backed seat map cache.  The cache is
// bypassed when Enabled is false or no Redis client is available.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads CACHE_* variables.  Seat maps change on every
// booking so the default TTL is short; invalidation after commit keeps
// readers consistent in between.
func LoadCacheConfig() CacheConfig {
	c := CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		TTL:     envDur("CACHE_TTL", 30*time.Second),
		Prefix:  getenv("CACHE_PREFIX", "seatmap"),
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
	return c
}
