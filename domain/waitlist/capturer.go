package waitlist

import (
	"context"

	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/models"
)

//go:generate mockgen -source=capturer.go -destination=mock_capturer.go -package=waitlist

// Capturer fans a submission out to every destination. *capture.Orchestrator implements it.
type Capturer interface {
	Submit(ctx context.Context, email string, pref *models.PricingPreference) (*capture.Result, error)
}
