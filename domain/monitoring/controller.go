package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/bloomcare/bloom-waitlist/config/router"
	"github.com/bloomcare/bloom-waitlist/internal/hostdb"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/pkg/factory"
	"github.com/bloomcare/bloom-waitlist/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 5 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type ConnectionTester interface {
	TestConnection(ctx context.Context, probeWrite bool) hostdb.ConnectionReport
}

// Dependencies are the components /health reports on. Nil members are reported as not configured.
type Dependencies struct {
	LocalCache     Pinger
	Cache          Pinger
	HostDB         ConnectionTester
	WebhookEnabled bool
	StartedAt      time.Time
	RateLimiters   factory.RateLimiterFactory
}

type ComponentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type HostDBStatus struct {
	Status      hostdb.Status `json:"status"`
	Configured  bool          `json:"configured"`
	TableExists bool          `json:"table_exists"`
	LatencyMs   int64         `json:"latency_ms"`
	Error       string        `json:"error,omitempty"`
}

type HealthStatus struct {
	Healthy     bool            `json:"healthy"`
	LocalCache  ComponentStatus `json:"local_cache"`
	Cache       ComponentStatus `json:"cache"`
	HostDB      HostDBStatus    `json:"hosted_db"`
	FormWebhook ComponentStatus `json:"form_webhook"`
	Uptime      int             `json:"uptime"`
}

const (
	statusUp            = "up"
	statusDown          = "down"
	statusNotConfigured = "not_configured"
	statusEnabled       = "enabled"
	statusDisabled      = "disabled"
)

type MonitoringController struct {
	logger *log.Logger
	deps   Dependencies
}

func NewMonitoringController(logger *log.Logger, deps Dependencies) *router.RESTController {
	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}
	ctrl := &MonitoringController{logger: logger, deps: deps}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			limiter := createMonitoringRateLimiter(deps.RateLimiters)

			routerService.AddGetHandler(controller, limiter, "", ctrl.monitor)
			routerService.AddGetHandler(controller, limiter, "health", ctrl.healthCheck)
		},
	)
}

func createMonitoringRateLimiter(limiters factory.RateLimiterFactory) ratelimit.RateLimiter {
	const monitoringRequestsPerMinute = 10

	if limiters == nil {
		return ratelimit.NewInMemoryRateLimiter(monitoringRequestsPerMinute, time.Minute)
	}
	return limiters.CreateRateLimiter(monitoringRequestsPerMinute, time.Minute)
}

func (ctrl *MonitoringController) monitor(*router.RequestContext) *router.ServiceResult {
	return router.OKResult("Monitoring endpoint is operational.", "Monitoring successful")
}

func (ctrl *MonitoringController) healthCheck(c *router.RequestContext) *router.ServiceResult {
	logger := router.GetLogger(c)

	status := ctrl.performHealthChecks(c.Request.Context())
	logger.Info("Health check completed",
		"healthy", status.Healthy,
		"local_cache", status.LocalCache.Status,
		"hosted_db", status.HostDB.Status,
		"cache", status.Cache.Status,
	)

	if !status.Healthy {
		return router.ErrorResult(http.StatusServiceUnavailable, "bloom waitlist is degraded", status)
	}
	return router.OKResult(status, "bloom waitlist health check completed")
}

// performHealthChecks runs every probe concurrently. Only the local cache decides Healthy:
// remote destinations are optional and degrade on their own.
func (ctrl *MonitoringController) performHealthChecks(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := HealthStatus{
		Uptime:      int(time.Since(ctrl.deps.StartedAt).Seconds()),
		FormWebhook: ComponentStatus{Status: statusDisabled},
	}
	if ctrl.deps.WebhookEnabled {
		status.FormWebhook.Status = statusEnabled
	}

	// Each goroutine writes its own field; the group only joins them.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status.LocalCache = ping(gctx, ctrl.deps.LocalCache)
		return nil
	})
	g.Go(func() error {
		status.Cache = ping(gctx, ctrl.deps.Cache)
		return nil
	})
	g.Go(func() error {
		status.HostDB = ctrl.checkHostDB(gctx)
		return nil
	})
	_ = g.Wait()

	status.Healthy = status.LocalCache.Status == statusUp
	return status
}

func ping(ctx context.Context, p Pinger) ComponentStatus {
	if p == nil {
		return ComponentStatus{Status: statusNotConfigured}
	}
	if err := p.Ping(ctx); err != nil {
		return ComponentStatus{Status: statusDown, Error: err.Error()}
	}
	return ComponentStatus{Status: statusUp}
}

func (ctrl *MonitoringController) checkHostDB(ctx context.Context) HostDBStatus {
	if ctrl.deps.HostDB == nil {
		return HostDBStatus{Status: hostdb.StatusConfiguration}
	}

	report := ctrl.deps.HostDB.TestConnection(ctx, false)
	out := HostDBStatus{
		Status:      report.Status,
		Configured:  report.Configured,
		TableExists: report.TableExists,
		LatencyMs:   report.Latency.Milliseconds(),
	}
	if report.Error != nil {
		out.Error = report.Error.Message
	}
	return out
}
