package cache

import (
	"tourbook/pkg/clock"
	"tourbook/pkg/config"
)

// FromConfig returns a Redis cache when the client holds a Redis
// connection and the in-process cache otherwise.
func FromConfig(cfg *config.Config, service string, clk clock.Clock) Cache {
	if cfg.Client != nil && cfg.Client.Redis != nil {
		cfg.Log.Info("Using Redis cache", "prefix", service)
		return NewRedis(cfg.Client.Redis, service)
	}
	cfg.Log.Info("REDIS_URL not set, using in-process cache")
	return NewMemory(clk)
}
