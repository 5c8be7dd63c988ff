package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	pkgredis "github.com/bloomcare/bloom-waitlist/pkg/redis"
	"github.com/caarlos0/env/v11"
	"github.com/go-redis/redis/v8"
)

// Cache is the shared Redis connection. It backs the rate limiters and, when
// LOCAL_CACHE_BACKEND=redis, the local waitlist cache.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
}

// RedisClientProvider is implemented by caches that expose the underlying client, e.g. for
// Lua-scripted rate limiting or WATCH transactions.
type RedisClientProvider interface {
	GetClient() *redis.Client
}

var ErrCacheNotConfigured = errors.New("cache host is not configured")

type CacheConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

func NewCacheConfig() *CacheConfig {
	cfg := &CacheConfig{}
	if err := env.Parse(cfg); err != nil {
		// Only REDIS_DB can fail to parse; fall back to the default database.
		cfg.DB = 0
	}
	cfg.Host = sanitizeEnv(cfg.Host)
	return cfg
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	logger.Info("Cache (Redis) connected successfully", "host", cc.Host, "db", cc.DB)
	return cache, nil
}

// NewCacheOrNil never fails: without Redis the limiters run in memory and the local
// cache stays on disk.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Cache (Redis) is not configured; using in-memory rate limiting and the file cache")
		return nil
	}

	cache, err := cc.NewCache(logger)
	if err != nil {
		logger.Error("Failed to create Cache (Redis); continuing without it", "error", err)
		return nil
	}
	return cache
}

func GetRedisClient(cache Cache) *redis.Client {
	if provider, ok := cache.(RedisClientProvider); ok {
		return provider.GetClient()
	}
	return nil
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return err
	}

	logger.Info("Cache connection closed")
	return nil
}
