package config

import (
	"context"
	"time"

	"github.com/bloomcare/bloom-waitlist/config/router"
	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/hostdb"
	"github.com/bloomcare/bloom-waitlist/internal/localcache"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/bloomcare/bloom-waitlist/internal/notify"
	"github.com/bloomcare/bloom-waitlist/internal/scheduler"
	"github.com/bloomcare/bloom-waitlist/internal/sinks"
	"github.com/bloomcare/bloom-waitlist/pkg/constants"
	"github.com/bloomcare/bloom-waitlist/pkg/factory"
	"github.com/bloomcare/bloom-waitlist/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	Sinks           *SinkConfig
	TracingShutdown func(context.Context) error

	Notifier     notify.Notifier
	LocalCache   localcache.Store
	HostDB       *hostdb.Adapter
	FormWebhook  *sinks.FormWebhook
	Orchestrator *capture.Orchestrator
	Scheduler    *scheduler.Scheduler
	RateLimiters factory.RateLimiterFactory
	StartedAt    time.Time
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests: int(utils.GetEnvPositiveInt64OrDefault("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests)),
		RateLimitWindow:   utils.GetEnvDurationOrDefault("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow()),
		RequestTimeout:    utils.GetEnvDurationOrDefault("REQUEST_TIMEOUT", router.DefaultTimeoutDuration),
	}
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.Scheduler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		ac.Scheduler.Stop(ctx)
		cancel()
	}

	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		_ = CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

// LoadApplicationConfiguration wires every dependency. Only a broken local cache or an
// invalid configuration is fatal; remote destinations degrade to "skipped".
func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	sinkCfg, err := LoadSinkConfig(logger)
	if err != nil {
		return nil, err
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	db := NewDatabaseOrNil(logger, nil)
	if autoMigrate && db != nil {
		if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			return nil, err
		}
	}

	appConfig := NewAppConfig()
	cache := NewCacheConfig().NewCacheOrNil(logger)

	store, err := NewLocalCacheStore(logger, sinkCfg, cache)
	if err != nil {
		return nil, err
	}

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
	})

	notifier := notify.NewLogNotifier(logger)
	client, missing := NewHostedDBClient(logger, HostedDBSettings(), db)
	components := BuildCapture(logger, notifier, routerService.MetricsRegisterer(), sinkCfg, store, client, missing)

	// Emits the one-time configuration notice at startup instead of on the first sign-up.
	components.HostDB.CheckConfiguration(context.Background())

	probe := scheduler.New(components.HostDB, logger, routerService.MetricsRegisterer())
	if err := probe.Schedule(ProbeSchedule()); err != nil {
		return nil, err
	}

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		DB:              db,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		Sinks:           sinkCfg,
		TracingShutdown: tracingShutdown,
		Notifier:        notifier,
		LocalCache:      store,
		HostDB:          components.HostDB,
		FormWebhook:     components.FormWebhook,
		Orchestrator:    components.Orchestrator,
		Scheduler:       probe,
		RateLimiters:    factory.NewRateLimiterFactory(cache, logger),
		StartedAt:       time.Now(),
	}, nil
}
