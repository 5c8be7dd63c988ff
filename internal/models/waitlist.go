package models

import (
	"strings"
	"time"

	"github.com/bloomcare/bloom-waitlist/pkg/constants"
)

// PricingPreference is the visitor's answer to "how would you like to pay?".
type PricingPreference string

const (
	PricingMonthly      PricingPreference = "monthly"
	PricingAnnual       PricingPreference = "annual"
	PricingTooExpensive PricingPreference = "too_expensive"
	PricingNotPay       PricingPreference = "not_pay"
)

var PricingPreferences = []PricingPreference{
	PricingMonthly,
	PricingAnnual,
	PricingTooExpensive,
	PricingNotPay,
}

func (p PricingPreference) IsValid() bool {
	for _, known := range PricingPreferences {
		if p == known {
			return true
		}
	}
	return false
}

func (p PricingPreference) String() string {
	return string(p)
}

// ParsePricingPreference maps "" to nil. Unknown tokens return ok=false.
func ParsePricingPreference(raw string) (pref *PricingPreference, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	p := PricingPreference(raw)
	if !p.IsValid() {
		return nil, false
	}
	return &p, true
}

// WaitlistEntry is one submission. The JSON shape matches what the landing page keeps
// under the waitlistEntries key.
type WaitlistEntry struct {
	Email             string             `json:"email"`
	PricingPreference *PricingPreference `json:"pricingOption"`
	SubmittedAt       time.Time          `json:"timestamp"`
}

// NewWaitlistEntry normalises the email and stamps the entry in UTC.
func NewWaitlistEntry(email string, pref *PricingPreference, now time.Time) *WaitlistEntry {
	return &WaitlistEntry{
		Email:             NormalizeEmail(email),
		PricingPreference: pref,
		SubmittedAt:       now.UTC(),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PreferenceOr returns the preference token or fallback when none was chosen.
func (e *WaitlistEntry) PreferenceOr(fallback string) string {
	if e.PricingPreference == nil {
		return fallback
	}
	return string(*e.PricingPreference)
}

// WaitlistInterest is the canonical row in the hosted database.
type WaitlistInterest struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email             string    `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PricingPreference *string   `gorm:"type:text" json:"pricing_preference"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
	SchemaVersion     int16     `gorm:"not null;default:1" json:"schema_version"`
}

func (WaitlistInterest) TableName() string {
	return constants.WaitlistTable
}

// Row returns the column map used by the hosted-database clients.
func (e *WaitlistEntry) Row() map[string]any {
	var pref any
	if e.PricingPreference != nil {
		pref = string(*e.PricingPreference)
	}
	return map[string]any{
		constants.ColumnEmail:             e.Email,
		constants.ColumnPricingPreference: pref,
		constants.ColumnCreatedAt:         e.SubmittedAt.Format(constants.RFC3339DateTimeFormat),
		constants.ColumnSchemaVersion:     constants.WaitlistSchemaVersion,
	}
}
