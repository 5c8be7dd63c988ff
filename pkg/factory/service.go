package factory

import (
	"context"
	"time"

	"github.com/bloomcare/bloom-waitlist/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

// RateLimiterFactory builds per-route limiters that share the application's backing store.
type RateLimiterFactory interface {
	CreateRateLimiter(requests int, window time.Duration) ratelimit.RateLimiter
}

type DefaultRateLimiterFactory struct {
	redis  *redis.Client
	logger ratelimit.Logger
}

// NewRateLimiterFactory picks Redis when the cache exposes a client, in-memory otherwise.
func NewRateLimiterFactory(cache Cache, logger ratelimit.Logger) *DefaultRateLimiterFactory {
	f := &DefaultRateLimiterFactory{logger: logger}
	if provider, ok := cache.(RedisClientProvider); ok && provider != nil {
		f.redis = provider.GetClient()
	}
	return f
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter(requests int, window time.Duration) ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: requests,
		Window:   window,
		Redis:    f.redis,
		Logger:   f.logger,
	})
}

// UsesRedis reports whether limiters from this factory are shared across instances.
func (f *DefaultRateLimiterFactory) UsesRedis() bool {
	return f.redis != nil
}
