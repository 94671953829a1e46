package config

import (
	"strings"
	"time"
)

// CacheConfig drives the Redis response cache.  Caching is off when
// Enabled is false or no Redis client is available.
type CacheConfig struct {
	Enabled bool
	Methods map[string]bool
	TTL     time.Duration
	// KeyStrategy is one of path, method_path, method_path_query or
	// path_query (the default).
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

func LoadCacheConfig() CacheConfig {
	methods := map[string]bool{}
	for _, m := range envList("CACHE_METHODS", "GET") {
		methods[strings.ToUpper(m)] = true
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      methods,
		TTL:          envDur("CACHE_TTL", 5*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "path_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
