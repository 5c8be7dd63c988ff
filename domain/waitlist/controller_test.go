package waitlist

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bloomcare/bloom-waitlist/config/router"
	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/bloomcare/bloom-waitlist/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, capturer Capturer) *router.RouterService {
	t.Helper()

	rs := router.CreateRouterService(log.NewDiscardLogger(), nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	rs.MountController(NewWaitlistController(log.NewDiscardLogger(), capturer, nil))
	return rs
}

func postJSON(rs *router.RouterService, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(http.MethodPost, "/v1/waitlist", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestJoinWaitlist_Created(t *testing.T) {
	ctrl := gomock.NewController(t)
	capturer := NewMockCapturer(ctrl)
	monthly := models.PricingMonthly

	capturer.EXPECT().
		Submit(gomock.Any(), "ada@example.com", &monthly).
		Return(successfulResult("ada@example.com", &monthly), nil)

	w, env := postJSON(newTestRouter(t, capturer), `{"email":"ada@example.com","pricing_preference":"monthly"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, capture.SuccessTitle, env.Message)

	var data JoinWaitlistResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ada@example.com", data.Entry.Email)
	require.NotNil(t, data.Entry.PricingPreference)
	assert.Equal(t, models.PricingMonthly, *data.Entry.PricingPreference)
	assert.Equal(t, []notify.Notification{
		{Level: notify.LevelInfo, Title: capture.SuccessTitle, Message: capture.SuccessMessage},
	}, data.Notifications)
}

func TestJoinWaitlist_NullPreference(t *testing.T) {
	ctrl := gomock.NewController(t)
	capturer := NewMockCapturer(ctrl)

	capturer.EXPECT().
		Submit(gomock.Any(), "ada@example.com", gomock.Nil()).
		Return(successfulResult("ada@example.com", nil), nil)

	w, _ := postJSON(newTestRouter(t, capturer), `{"email":"ada@example.com","pricing_preference":null}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestJoinWaitlist_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"missing email":      `{"pricing_preference":"annual"}`,
		"malformed email":    `{"email":"not-an-email"}`,
		"unknown preference": `{"email":"ada@example.com","pricing_preference":"weekly"}`,
		"malformed body":     `{"email":`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			capturer := NewMockCapturer(ctrl)

			w, env := postJSON(newTestRouter(t, capturer), body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, env.Message, "Invalid request")
		})
	}
}

func TestJoinWaitlist_LocalCacheFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	capturer := NewMockCapturer(ctrl)

	capturer.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).Return(&capture.Result{
		Entry:    models.NewWaitlistEntry("ada@example.com", nil, time.Now()),
		Outcomes: []capture.Outcome{{Sink: "local_cache", Status: capture.StatusFailed, Error: "quota exceeded"}},
		Notifications: []notify.Notification{
			{Level: notify.LevelError, Title: capture.FailureTitle, Message: capture.FailureMessage},
		},
	}, nil)

	w, env := postJSON(newTestRouter(t, capturer), `{"email":"ada@example.com"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, capture.FailureTitle, env.Message)

	var data JoinWaitlistResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, capture.FailureMessage, data.Notifications[0].Message)
}

func TestJoinWaitlist_RateLimited(t *testing.T) {
	ctrl := gomock.NewController(t)
	capturer := NewMockCapturer(ctrl)
	capturer.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(successfulResult("ada@example.com", nil), nil).
		Times(30)

	rs := newTestRouter(t, capturer)
	for i := 0; i < 30; i++ {
		w, _ := postJSON(rs, `{"email":"ada@example.com"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, _ := postJSON(rs, `{"email":"ada@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
