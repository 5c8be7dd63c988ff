package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int    `json:"code"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func mountTestController(rs *RouterService, limiter ratelimit.RateLimiter) {
	ctrl := NewRESTController("TestController", "/", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "ip", func(ctx *RequestContext) *ServiceResult {
			return OKResult(ctx.ClientIP(), "ok")
		})

		rs.AddGetHandler(c, nil, "correlation", func(ctx *RequestContext) *ServiceResult {
			return OKResult(log.GetOrGenerateCorrelationID(ctx.Request.Context()), "ok")
		})

		rs.AddPostHandler(c, limiter, "echo", func(ctx *RequestContext) *ServiceResult {
			var payload map[string]any
			if err := ctx.ShouldBindJSON(&payload); err != nil {
				return BadRequestResult("bad", nil)
			}
			return OKResult(payload, "ok")
		})
	})

	rs.MountController(ctrl)
}

func newTestRouterService(t *testing.T) *RouterService {
	t.Helper()

	return CreateRouterService(log.NewDiscardLogger(), nil, &RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
}

func serve(rs *RouterService, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	var body envelope
	_ = json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&body)
	return w, body
}

func TestTrustedProxies_DisabledByDefault(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")

	rs := newTestRouterService(t)
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w, body := serve(rs, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "10.0.0.2", body.Data)
}

func TestTrustedProxies_StarTrustsForwardedFor(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "*")

	rs := newTestRouterService(t)
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w, body := serve(rs, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1.1.1.1", body.Data)
}

func TestMaxBodySize_Returns413(t *testing.T) {
	t.Setenv("MAX_REQUEST_BODY_BYTES", "10")

	rs := newTestRouterService(t)
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(bytes.Repeat([]byte{'a'}, 50)))
	req.Header.Set("Content-Type", "application/json")

	w, _ := serve(rs, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCorrelationID_PropagatedFromHeader(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodGet, "/correlation", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")

	w, body := serve(rs, req)
	assert.Equal(t, "abc-123", w.Header().Get(CorrelationIDHeader))
	assert.Equal(t, "abc-123", body.Data)
}

func TestCorrelationID_GeneratedWhenMissing(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs, nil)

	w, body := serve(rs, httptest.NewRequest(http.MethodGet, "/correlation", nil))
	id := w.Header().Get(CorrelationIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, body.Data)
}

func TestRateLimit_HandlerOverride(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs, ratelimit.NewInMemoryRateLimiter(1, time.Minute))

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(`{"a":1}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.0.0.9:5555"
		w, _ := serve(rs, req)
		return w
	}

	first := post()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := post()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))

	// Other routes still use the default limiter.
	w, _ := serve(rs, httptest.NewRequest(http.MethodGet, "/ip", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1000", w.Header().Get("X-RateLimit-Limit"))
}

func TestNoRoute_ReturnsEnvelope(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs, nil)

	w, body := serve(rs, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", body.Message)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGIN", "https://bloom.example, https://www.bloom.example")

	rs := newTestRouterService(t)
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodOptions, "/echo", nil)
	req.Header.Set("Origin", "https://bloom.example")
	w, _ := serve(rs, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://bloom.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("Origin", "https://evil.example")
	w, _ = serve(rs, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs, nil)

	serve(rs, httptest.NewRequest(http.MethodGet, "/ip", nil))
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",route="/ip",status="200"} 1`)
	assert.Contains(t, body, "http_requests_in_flight 0")
	assert.NotContains(t, body, `route="/metrics"`)
}

func TestNormalizePath(t *testing.T) {
	root := NewRESTController("root", "/", nil)
	v1 := NewVersionedRESTController("waitlist", "v1", "waitlist", nil)

	assert.Equal(t, "/ip", normalizePath(root, "ip"))
	assert.Equal(t, "/", normalizePath(root, ""))
	assert.Equal(t, "/v1/waitlist", normalizePath(v1, ""))
	assert.Equal(t, "/v1/waitlist/summary", normalizePath(v1, "/summary/"))
}
