package config

import "time"

// RateLimitConfig controls the token bucket in front of the HTTP
// gateway.  Limiting is skipped when Enabled is false or no Redis client
// is available.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables and clamps them to
// usable values.  A value that cannot be parsed is an error.
func LoadRateLimitConfig() (RateLimitConfig, error) {
	var env envReader
	def := RateLimitConfig{
		Enabled:        env.Bool("RATE_LIMIT_ENABLED", true),
		Capacity:       env.Int("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   env.Int("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: env.Duration("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            env.Duration("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
	}
	if err := env.Err(); err != nil {
		return RateLimitConfig{}, err
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	if minTTL := 5 * def.RefillInterval; def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def, nil
}
