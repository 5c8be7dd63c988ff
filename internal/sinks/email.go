package sinks

import (
	"context"
	"fmt"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/mailgun/mailgun-go/v4"
)

const WelcomeEmailName = "welcome_email"

const (
	welcomeSubject = "You're on the bloom waitlist"
	welcomeBody    = `Hi there,

Thank you for your interest in bloom. We've added you to our waitlist and will notify you when we launch.

The bloom team`
)

// Sender delivers a plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, text string) (string, error)
}

type MailgunConfig struct {
	Domain  string
	APIKey  string
	From    string
	APIBase string
}

func (c MailgunConfig) IsConfigured() bool {
	return c.Domain != "" && c.APIKey != "" && c.From != ""
}

type MailgunSender struct {
	client *mailgun.MailgunImpl
	from   string
}

// NewMailgunSender returns nil when the config is incomplete.
func NewMailgunSender(cfg MailgunConfig) *MailgunSender {
	if !cfg.IsConfigured() {
		return nil
	}
	client := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		client.SetAPIBase(cfg.APIBase)
	}
	return &MailgunSender{client: client, from: cfg.From}
}

func (s *MailgunSender) Send(ctx context.Context, to, subject, text string) (string, error) {
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	message := s.client.NewMessage(s.from, subject, text, to)
	_, id, err := s.client.Send(sendCtx, message)
	if err != nil {
		return "", fmt.Errorf("mailgun send: %w", err)
	}
	return id, nil
}

// WelcomeEmail confirms the sign-up to the visitor. Always best-effort.
type WelcomeEmail struct {
	sender Sender
}

func NewWelcomeEmail(sender Sender) *WelcomeEmail {
	return &WelcomeEmail{sender: sender}
}

func (s *WelcomeEmail) Name() string {
	return WelcomeEmailName
}

func (s *WelcomeEmail) Write(ctx context.Context, entry *models.WaitlistEntry) error {
	if s.sender == nil {
		return fmt.Errorf("%w: email sender not configured", capture.ErrSinkSkipped)
	}
	_, err := s.sender.Send(ctx, entry.Email, welcomeSubject, welcomeBody)
	return err
}
