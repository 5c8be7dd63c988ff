package sinks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/bloomcare/bloom-waitlist/pkg/constants"
	"github.com/bloomcare/bloom-waitlist/pkg/retry"
)

const FormWebhookName = "form_webhook"

type FormWebhookConfig struct {
	URL             string
	EmailField      string
	PreferenceField string
	Timeout         time.Duration
}

// FormWebhook posts the entry as a form submission. The response is drained but never
// inspected, so only transport errors count as failures.
type FormWebhook struct {
	cfg    FormWebhookConfig
	client *http.Client
	retry  retry.RetryPolicy
}

func NewFormWebhook(cfg FormWebhookConfig, client *http.Client, policy retry.RetryPolicy) *FormWebhook {
	if cfg.EmailField == "" {
		cfg.EmailField = constants.DefaultFormEmailField
	}
	if cfg.PreferenceField == "" {
		cfg.PreferenceField = constants.DefaultFormPreferenceField
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if policy == nil {
		policy = retry.NewExponentialBackoff(nil)
	}
	return &FormWebhook{cfg: cfg, client: client, retry: policy}
}

func (s *FormWebhook) Name() string {
	return FormWebhookName
}

func (s *FormWebhook) Configured() bool {
	return strings.TrimSpace(s.cfg.URL) != ""
}

// Form returns the encoded body for entry.
func (s *FormWebhook) Form(entry *models.WaitlistEntry) url.Values {
	form := url.Values{}
	form.Set(s.cfg.EmailField, entry.Email)
	form.Set(s.cfg.PreferenceField, entry.PreferenceOr(constants.NoPreferenceLabel))
	return form
}

func (s *FormWebhook) Write(ctx context.Context, entry *models.WaitlistEntry) error {
	if !s.Configured() {
		return fmt.Errorf("%w: no form webhook URL", capture.ErrSinkSkipped)
	}

	body := s.Form(entry).Encode()
	return s.retry.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, strings.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})
}
