package waitlist

import (
	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/bloomcare/bloom-waitlist/internal/notify"
)

// JoinWaitlistRequest is the landing page form. A null or missing preference means
// the visitor skipped the pricing question.
type JoinWaitlistRequest struct {
	Email             string  `json:"email" binding:"required,email,max=255"`
	PricingPreference *string `json:"pricing_preference" binding:"omitempty,pricing_preference"`
}

type JoinWaitlistResponse struct {
	Entry         *models.WaitlistEntry `json:"entry"`
	Outcomes      []capture.Outcome     `json:"outcomes"`
	Notifications []notify.Notification `json:"notifications"`
}

func ToJoinWaitlistResponse(result *capture.Result) *JoinWaitlistResponse {
	if result == nil {
		return nil
	}
	return &JoinWaitlistResponse{
		Entry:         result.Entry,
		Outcomes:      result.Outcomes,
		Notifications: result.Notifications,
	}
}
