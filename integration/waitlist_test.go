package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bloomcare/bloom-waitlist/config"
	"github.com/bloomcare/bloom-waitlist/config/router"
	"github.com/bloomcare/bloom-waitlist/domain"
	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/hostdb"
	"github.com/bloomcare/bloom-waitlist/internal/localcache"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/bloomcare/bloom-waitlist/internal/notify"
	"github.com/bloomcare/bloom-waitlist/pkg/constants"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	emailField      = "entry.100"
	preferenceField = "entry.200"
)

// formRecorder stands in for the Google Form endpoint.
type formRecorder struct {
	mu    sync.Mutex
	forms []url.Values
}

func (f *formRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.forms = append(f.forms, r.PostForm)
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *formRecorder) received() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.forms...)
}

func (f *formRecorder) reset() {
	f.mu.Lock()
	f.forms = nil
	f.mu.Unlock()
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type WaitlistAPITestSuite struct {
	suite.Suite
	db        *gorm.DB
	store     *localcache.FileStore
	form      *formRecorder
	webhook   *httptest.Server
	server    *httptest.Server
	baseURL   string
	logger    *log.Logger
	appConfig *config.ApplicationConfig
}

func (suite *WaitlistAPITestSuite) SetupSuite() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open("file:bloom_integration?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.db.AutoMigrate(&models.WaitlistInterest{}))

	suite.store, err = localcache.NewFileStore(filepath.Join(suite.T().TempDir(), "waitlistEntries.json"))
	suite.Require().NoError(err)

	suite.form = &formRecorder{}
	suite.webhook = httptest.NewServer(suite.form)

	suite.logger = log.NewLoggerWithJSONOutput()

	routerService := router.CreateRouterService(suite.logger, nil, &router.RouterConfig{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
	})

	sinkCfg := &config.SinkConfig{
		LocalCacheBackend:      config.LocalCacheBackendFile,
		FormWebhookEnabled:     true,
		FormWebhookURL:         suite.webhook.URL,
		FormEmailField:         emailField,
		FormPreferenceField:    preferenceField,
		FormWebhookTimeout:     2 * time.Second,
		ConnectionTestTimeout:  2 * time.Second,
		HostDBFailureThreshold: 5,
		HostDBRecoveryTimeout:  time.Minute,
	}

	notifier := notify.NewLogNotifier(suite.logger)
	components := config.BuildCapture(suite.logger, notifier, routerService.MetricsRegisterer(), sinkCfg,
		suite.store, hostdb.NewSQLClient(suite.db), nil)

	suite.appConfig = &config.ApplicationConfig{
		DB:            suite.db,
		Logger:        suite.logger,
		RouterService: routerService,
		Sinks:         sinkCfg,
		Notifier:      notifier,
		LocalCache:    components.LocalCache,
		HostDB:        components.HostDB,
		FormWebhook:   components.FormWebhook,
		Orchestrator:  components.Orchestrator,
		StartedAt:     time.Now(),
	}

	domain.SetupCoreDomain(suite.appConfig)

	suite.server = httptest.NewServer(suite.appConfig.RouterService.GetEngine())
	suite.baseURL = suite.server.URL
}

func (suite *WaitlistAPITestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
	if suite.webhook != nil {
		suite.webhook.Close()
	}
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		sqlDB.Close()
	}
}

func (suite *WaitlistAPITestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM " + constants.WaitlistTable)
	suite.form.reset()
	_ = os.Remove(suite.store.Path())
}

func (suite *WaitlistAPITestSuite) do(method, path string, body any) (*http.Response, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, suite.baseURL+path, reader)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var env envelope
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func (suite *WaitlistAPITestSuite) join(body any) (*http.Response, envelope, joinResponse) {
	resp, env := suite.do(http.MethodPost, "/v1/waitlist", body)

	var data joinResponse
	if len(env.Data) > 0 && string(env.Data) != "null" {
		_ = json.Unmarshal(env.Data, &data)
	}
	return resp, env, data
}

type joinResponse struct {
	Entry         models.WaitlistEntry  `json:"entry"`
	Outcomes      []capture.Outcome     `json:"outcomes"`
	Notifications []notify.Notification `json:"notifications"`
}

func (r joinResponse) status(sink string) capture.Status {
	for _, o := range r.Outcomes {
		if o.Sink == sink {
			return o.Status
		}
	}
	return ""
}

func (suite *WaitlistAPITestSuite) TestHealthCheck() {
	resp, env := suite.do(http.MethodGet, "/health", nil)

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal(http.StatusOK, env.Code)
	suite.Contains(env.Message, "health check completed")

	var data map[string]any
	suite.Require().NoError(json.Unmarshal(env.Data, &data))
	suite.Equal(true, data["healthy"])
	suite.Equal("up", data["local_cache"].(map[string]any)["status"])
	suite.Equal("not_configured", data["cache"].(map[string]any)["status"])
	suite.Equal("enabled", data["form_webhook"].(map[string]any)["status"])
	suite.Equal(string(hostdb.StatusReachable), data["hosted_db"].(map[string]any)["status"])
	suite.Contains(data, "uptime")
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_WritesEverySink() {
	resp, env, data := suite.join(map[string]any{
		"email":              "  Ada@Example.com ",
		"pricing_preference": "annual",
	})

	suite.Equal(http.StatusCreated, resp.StatusCode)
	suite.Equal(http.StatusCreated, env.Code)
	suite.Equal(capture.SuccessTitle, env.Message)

	suite.Equal("ada@example.com", data.Entry.Email)
	suite.Equal(capture.StatusWritten, data.status("local_cache"))
	suite.Equal(capture.StatusWritten, data.status("form_webhook"))
	suite.Equal(capture.StatusWritten, data.status("hosted_db"))
	suite.Require().NotEmpty(data.Notifications)
	suite.Equal(capture.SuccessTitle, data.Notifications[len(data.Notifications)-1].Title)

	entries, err := suite.store.Entries(context.Background())
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.Equal("ada@example.com", entries[0].Email)

	forms := suite.form.received()
	suite.Require().Len(forms, 1)
	suite.Equal("ada@example.com", forms[0].Get(emailField))
	suite.Equal("annual", forms[0].Get(preferenceField))

	var row models.WaitlistInterest
	suite.Require().NoError(suite.db.Where("email = ?", "ada@example.com").First(&row).Error)
	suite.Require().NotNil(row.PricingPreference)
	suite.Equal("annual", *row.PricingPreference)
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_WithoutPreference() {
	resp, _, data := suite.join(map[string]any{
		"email":              "grace@example.com",
		"pricing_preference": nil,
	})

	suite.Equal(http.StatusCreated, resp.StatusCode)
	suite.Nil(data.Entry.PricingPreference)

	forms := suite.form.received()
	suite.Require().Len(forms, 1)
	suite.Equal(constants.NoPreferenceLabel, forms[0].Get(preferenceField))

	var row models.WaitlistInterest
	suite.Require().NoError(suite.db.Where("email = ?", "grace@example.com").First(&row).Error)
	suite.Nil(row.PricingPreference)
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_DuplicateEmailStillSucceeds() {
	body := map[string]any{"email": "dup@example.com", "pricing_preference": "monthly"}

	resp, _, _ := suite.join(body)
	suite.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp, env, data := suite.join(body)
	suite.Equal(http.StatusCreated, resp.StatusCode)
	suite.Equal(capture.SuccessTitle, env.Message)
	suite.Equal(capture.StatusWritten, data.status("local_cache"))
	suite.Equal(capture.StatusDuplicate, data.status("hosted_db"))

	entries, err := suite.store.Entries(context.Background())
	suite.Require().NoError(err)
	suite.Len(entries, 2)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.WaitlistInterest{}).Count(&count).Error)
	suite.Equal(int64(1), count)
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_ValidationErrors() {
	cases := []map[string]any{
		{"email": "not-an-email"},
		{"email": ""},
		{"email": "ok@example.com", "pricing_preference": "weekly"},
	}

	for _, body := range cases {
		resp, env, _ := suite.join(body)
		suite.Equal(http.StatusBadRequest, resp.StatusCode, body)
		suite.Equal(http.StatusBadRequest, env.Code, body)
	}

	entries, err := suite.store.Entries(context.Background())
	suite.Require().NoError(err)
	suite.Empty(entries)
	suite.Empty(suite.form.received())
}

func (suite *WaitlistAPITestSuite) TestPricingOptions() {
	resp, env := suite.do(http.MethodGet, "/v1/pricing/options", nil)

	suite.Equal(http.StatusOK, resp.StatusCode)

	var options []map[string]any
	suite.Require().NoError(json.Unmarshal(env.Data, &options))
	suite.Len(options, 4)
	suite.Equal("monthly", options[0]["id"])
}

func (suite *WaitlistAPITestSuite) TestAnalyticsSummary() {
	events := []map[string]any{
		{"type": "page_view", "page": "/"},
		{"type": "page_view", "page": "/pricing"},
		{"type": "form_submit", "page": "/"},
		{"type": "pricing_option_select", "page": "/", "properties": map[string]string{"pricingOption": "annual"}},
	}
	for _, event := range events {
		resp, _ := suite.do(http.MethodPost, "/v1/analytics/events", event)
		suite.Require().Equal(http.StatusCreated, resp.StatusCode)
	}

	resp, env := suite.do(http.MethodGet, "/v1/analytics/summary", nil)
	suite.Equal(http.StatusOK, resp.StatusCode)

	var summary map[string]any
	suite.Require().NoError(json.Unmarshal(env.Data, &summary))
	suite.EqualValues(2, summary["totalPageViews"])
	suite.EqualValues(2, summary["uniquePages"])
	suite.EqualValues(1, summary["totalFormSubmits"])
	suite.Equal("50.00%", summary["conversionRate"])
}

func TestWaitlistAPISuite(t *testing.T) {
	// Skip integration tests unless explicitly requested
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration tests. Set RUN_INTEGRATION_TESTS=true to run them")
	}

	suite.Run(t, new(WaitlistAPITestSuite))
}
