package router

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	apperrors "github.com/bloomcare/bloom-waitlist/pkg/errors"
	"github.com/bloomcare/bloom-waitlist/pkg/ratelimit"
	"github.com/bloomcare/bloom-waitlist/pkg/utils"
	"github.com/gin-gonic/gin"
)

const CorrelationIDHeader = "X-Correlation-ID"

// correlationIDMiddleware also attaches the request-scoped logger.
func (routerService *RouterService) correlationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(CorrelationIDHeader))
		if id == "" {
			id = log.GenerateCorrelationID()
		}

		ctx := log.ContextWithCorrelationID(c.Request.Context(), id)
		ctx = log.ContextWithLogger(ctx, routerService.logger.WithCorrelationID(ctx))
		c.Request = c.Request.WithContext(ctx)
		c.Header(CorrelationIDHeader, id)
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		GetLogger(c).Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if shouldSetHSTS(c) {
			h.Set("Strict-Transport-Security", buildHSTSValue())
		}
		c.Next()
	}
}

// shouldSetHSTS defaults to on in production; HSTS_ENABLED overrides.
func shouldSetHSTS(c *gin.Context) bool {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))
	if !utils.GetEnvBoolOrDefault("HSTS_ENABLED", appEnv == "production" || appEnv == "prod") {
		return false
	}

	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

func buildHSTSValue() string {
	value := fmt.Sprintf("max-age=%d", utils.GetEnvPositiveInt64OrDefault("HSTS_MAX_AGE", 31536000))
	if utils.GetEnvBoolOrDefault("HSTS_INCLUDE_SUBDOMAINS", true) {
		value += "; includeSubDomains"
	}
	return value
}

func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	maxBytes := utils.GetEnvPositiveInt64OrDefault("MAX_REQUEST_BODY_BYTES", 1<<20)

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResult(
				http.StatusRequestEntityTooLarge,
				"Request payload too large",
				nil,
			).ToJSON())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func parseAllowedOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// corsMiddleware lets the landing page post from its own origin. With CORS_ALLOWED_ORIGIN unset
// no CORS headers are written and browsers block cross-origin calls.
func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	allowed := parseAllowedOrigins(os.Getenv("CORS_ALLOWED_ORIGIN"))
	if len(allowed) == 0 {
		routerService.logger.Warn("CORS_ALLOWED_ORIGIN not set; cross-origin requests will be denied")
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !originAllowed(allowed, origin) {
			if origin != "" {
				GetLogger(c).Debug("CORS origin not allowed", "origin", origin)
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, "+CorrelationIDHeader)
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(apperrors.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// timeoutMiddleware bounds the request context. Handlers run inline because gin.Context
// is not safe for concurrent use; mid-flight enforcement is left to the http.Server timeouts.
func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), routerService.timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			GetLogger(c).Warn("Request timeout detected")
			c.AbortWithStatusJSON(http.StatusRequestTimeout, ErrorResult(
				apperrors.StatusRequestTimeout,
				"Request timeout",
				nil,
			).ToJSON())
		}
	}
}

// limiterFor resolves handler override, then controller override, then the default.
// scope keeps override counters apart from the default one when they share Redis.
func (routerService *RouterService) limiterFor(c *gin.Context) (limiter ratelimit.RateLimiter, scope string, ok bool) {
	handlerKey := routerService.keyForPathAndMethod(c.FullPath(), c.Request.Method)
	controller, found := routerService.handlerToControllerMap[handlerKey]
	if !found || controller == nil {
		return nil, "", false
	}

	if limiter, found := routerService.rateLimitOverrides[handlerKey]; found {
		return limiter, handlerKey, true
	}
	if limiter, found := routerService.rateLimitOverrides[controller.mountPoint]; found {
		return limiter, controller.mountPoint, true
	}
	return routerService.rateLimiter, "", true
}

func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "" {
			// NoRoute / NoMethod handlers answer these.
			c.Next()
			return
		}

		limiter, scope, ok := routerService.limiterFor(c)
		if !ok {
			GetLogger(c).Error("Handler registered without a controller mapping", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusNotFound, NotFoundResult(fmt.Sprintf("There is no handler configured to handle any resource at the path %s", c.Request.URL.Path)).ToJSON())
			return
		}

		limit, window := limiter.Limits()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		clientIP := c.ClientIP()
		key := clientIP
		if scope != "" {
			key = scope + ":" + clientIP
		}
		limited, err := limiter.IsLimited(c.Request.Context(), key)
		if err != nil {
			// Fail open: a limiter outage must not block sign-ups.
			GetLogger(c).Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}

		if limited {
			retryAfter := int(math.Max(1, math.Ceil(window.Seconds())))
			GetLogger(c).Warn("Rate limit exceeded", "client_ip", clientIP, "path", c.FullPath())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
				Limit:      limit,
				Window:     window.String(),
				RetryAfter: strconv.Itoa(retryAfter),
			}).ToJSON())
			return
		}

		c.Next()
	}
}

// GetLogger returns the request-scoped logger attached by the correlation middleware.
func GetLogger(ctx *RequestContext) *log.Logger {
	if l := log.FromContext(ctx.Request.Context()); l != nil {
		return l
	}
	return log.NewLoggerWithJSONOutput().WithCorrelationID(ctx.Request.Context())
}
