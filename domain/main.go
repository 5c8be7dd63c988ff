package domain

import (
	"github.com/bloomcare/bloom-waitlist/config"
	"github.com/bloomcare/bloom-waitlist/domain/analytics"
	"github.com/bloomcare/bloom-waitlist/domain/monitoring"
	"github.com/bloomcare/bloom-waitlist/domain/pricing"
	"github.com/bloomcare/bloom-waitlist/domain/waitlist"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	deps := monitoring.Dependencies{
		LocalCache:   appConfig.LocalCache,
		Cache:        appConfig.Cache,
		StartedAt:    appConfig.StartedAt,
		RateLimiters: appConfig.RateLimiters,
	}
	if appConfig.HostDB != nil {
		deps.HostDB = appConfig.HostDB
	}
	if appConfig.FormWebhook != nil {
		deps.WebhookEnabled = appConfig.FormWebhook.Configured()
	}

	appConfig.RouterService.MountController(monitoring.NewMonitoringController(appConfig.Logger, deps))
	appConfig.RouterService.MountController(pricing.NewPricingController())
	waitlistFactory := waitlist.NewWaitlistServiceFactory(appConfig.Logger, appConfig.Orchestrator, appConfig.RateLimiters)
	appConfig.RouterService.MountController(waitlistFactory.CreateController())
	appConfig.RouterService.MountController(analytics.NewAnalyticsController(appConfig.Logger, analytics.NewMemoryRepository()))
}
