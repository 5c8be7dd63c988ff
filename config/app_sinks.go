package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/scheduler"
	"github.com/bloomcare/bloom-waitlist/internal/sinks"
	"github.com/caarlos0/env/v11"
)

const (
	LocalCacheBackendFile  = "file"
	LocalCacheBackendRedis = "redis"
)

// SinkConfig holds the settings of every capture destination.
type SinkConfig struct {
	LocalCacheBackend string `env:"LOCAL_CACHE_BACKEND" envDefault:"file"`
	LocalCachePath    string `env:"LOCAL_CACHE_PATH" envDefault:"data/waitlistEntries.json"`
	LocalCacheKey     string `env:"LOCAL_CACHE_KEY" envDefault:"waitlistEntries"`

	FormWebhookEnabled  bool          `env:"FORM_WEBHOOK_ENABLED" envDefault:"true"`
	FormWebhookURL      string        `env:"FORM_WEBHOOK_URL" envDefault:"https://docs.google.com/forms/d/e/1FAIpQLSfbK1J8223gzS7RfLSu9ZNX-YXUjqXt46puFjMJI3vZV39C3g/formResponse"`
	FormScriptURL       string        `env:"FORM_SCRIPT_URL"`
	FormEmailField      string        `env:"FORM_EMAIL_FIELD" envDefault:"entry.1776647972"`
	FormPreferenceField string        `env:"FORM_PREFERENCE_FIELD" envDefault:"entry.1442464782"`
	FormWebhookTimeout  time.Duration `env:"FORM_WEBHOOK_TIMEOUT" envDefault:"10s"`

	WelcomeEmailEnabled bool `env:"WELCOME_EMAIL_ENABLED" envDefault:"false"`
	Mailgun             MailgunEnv

	ConnectionTestTimeout time.Duration `env:"CONNECTION_TEST_TIMEOUT" envDefault:"5s"`
	// HostDBFailureThreshold consecutive failures open the hosted database breaker.
	HostDBFailureThreshold int           `env:"HOSTDB_BREAKER_FAILURES" envDefault:"5"`
	HostDBRecoveryTimeout  time.Duration `env:"HOSTDB_BREAKER_RECOVERY" envDefault:"60s"`
}

type MailgunEnv struct {
	Domain  string `env:"MAILGUN_DOMAIN"`
	APIKey  string `env:"MAILGUN_API_KEY"`
	From    string `env:"MAILGUN_FROM"`
	APIBase string `env:"MAILGUN_API_BASE"`
}

func (m MailgunEnv) Sender() sinks.MailgunConfig {
	return sinks.MailgunConfig{Domain: m.Domain, APIKey: m.APIKey, From: m.From, APIBase: m.APIBase}
}

func LoadSinkConfig(logger *log.Logger) (*SinkConfig, error) {
	cfg := &SinkConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse sink config: %w", err)
	}

	cfg.LocalCacheBackend = strings.ToLower(strings.TrimSpace(cfg.LocalCacheBackend))
	if cfg.LocalCacheBackend != LocalCacheBackendFile && cfg.LocalCacheBackend != LocalCacheBackendRedis {
		return nil, fmt.Errorf("invalid LOCAL_CACHE_BACKEND %q (allowed: file, redis)", cfg.LocalCacheBackend)
	}

	logger.Info("Sink configuration loaded",
		"local_cache_backend", cfg.LocalCacheBackend,
		"form_webhook", cfg.WebhookURL() != "",
		"welcome_email", cfg.WelcomeEmailEnabled,
		"connection_test_timeout", cfg.ConnectionTestTimeout,
	)
	return cfg, nil
}

// WebhookURL prefers the script endpoint when set. Empty means the webhook is off.
func (c *SinkConfig) WebhookURL() string {
	if !c.FormWebhookEnabled {
		return ""
	}
	if u := strings.TrimSpace(c.FormScriptURL); u != "" {
		return u
	}
	return strings.TrimSpace(c.FormWebhookURL)
}

func (c *SinkConfig) FormWebhook() sinks.FormWebhookConfig {
	return sinks.FormWebhookConfig{
		URL:             c.WebhookURL(),
		EmailField:      c.FormEmailField,
		PreferenceField: c.FormPreferenceField,
		Timeout:         c.FormWebhookTimeout,
	}
}

// ProbeSchedule returns the cron spec for the connection probe; "" disables it.
// Unset means the default, while an explicit empty value or "off" turns it off.
func ProbeSchedule() string {
	v, ok := os.LookupEnv("PROBE_SCHEDULE")
	if !ok {
		return scheduler.DefaultProbeSchedule
	}

	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "off") {
		return ""
	}
	return v
}
