package config

import (
	"fmt"

	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/hostdb"
	"github.com/bloomcare/bloom-waitlist/internal/localcache"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/notify"
	"github.com/bloomcare/bloom-waitlist/internal/sinks"
	"github.com/bloomcare/bloom-waitlist/pkg/circuitbreaker"
	"github.com/bloomcare/bloom-waitlist/pkg/retry"
	"github.com/prometheus/client_golang/prometheus"
)

// CaptureComponents are the pieces the waitlist and health endpoints share.
type CaptureComponents struct {
	Orchestrator *capture.Orchestrator
	LocalCache   localcache.Store
	HostDB       *hostdb.Adapter
	FormWebhook  *sinks.FormWebhook
}

// NewLocalCacheStore picks the Redis backend only when asked for and Redis is connected.
func NewLocalCacheStore(logger *log.Logger, cfg *SinkConfig, cache Cache) (localcache.Store, error) {
	if cfg.LocalCacheBackend == LocalCacheBackendRedis {
		if client := GetRedisClient(cache); client != nil {
			logger.Info("Local cache: using Redis", "key", cfg.LocalCacheKey)
			return localcache.NewRedisStore(client, cfg.LocalCacheKey), nil
		}
		logger.Warn("LOCAL_CACHE_BACKEND=redis but Redis is unavailable; falling back to file", "path", cfg.LocalCachePath)
	}

	store, err := localcache.NewFileStore(cfg.LocalCachePath)
	if err != nil {
		return nil, fmt.Errorf("local cache: %w", err)
	}
	logger.Info("Local cache: using file", "path", store.Path())
	return store, nil
}

// BuildCapture registers the sinks in their fixed order: local cache (critical), form
// webhook, hosted database, then the optional welcome email.
func BuildCapture(
	logger *log.Logger,
	notifier notify.Notifier,
	reg prometheus.Registerer,
	cfg *SinkConfig,
	store localcache.Store,
	client hostdb.Client,
	missing []string,
) *CaptureComponents {
	adapter := hostdb.NewAdapter(client, notifier, logger, hostdb.AdapterConfig{
		Timeout: cfg.ConnectionTestTimeout,
		Missing: missing,
	})

	webhook := sinks.NewFormWebhook(cfg.FormWebhook(), nil, retry.NewExponentialBackoff(nil))
	breaker := circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
		FailureThreshold: cfg.HostDBFailureThreshold,
		RecoveryTimeout:  cfg.HostDBRecoveryTimeout,
		SuccessThreshold: 1,
	})

	orchestrator := capture.NewOrchestrator(logger, notifier, capture.WithRegisterer(reg)).
		Register(sinks.NewLocalCache(store), capture.Critical).
		Register(webhook, capture.BestEffort).
		Register(sinks.NewHostedDB(adapter, breaker), capture.BestEffort)

	if cfg.WelcomeEmailEnabled {
		mailgunCfg := cfg.Mailgun.Sender()
		if mailgunCfg.IsConfigured() {
			orchestrator.Register(sinks.NewWelcomeEmail(sinks.NewMailgunSender(mailgunCfg)), capture.BestEffort)
		} else {
			logger.Warn("WELCOME_EMAIL_ENABLED is set but Mailgun is not configured; welcome email disabled")
		}
	}

	logger.Info("Capture pipeline ready", "sinks", orchestrator.Sinks())

	return &CaptureComponents{
		Orchestrator: orchestrator,
		LocalCache:   store,
		HostDB:       adapter,
		FormWebhook:  webhook,
	}
}
