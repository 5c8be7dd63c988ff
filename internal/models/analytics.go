package models

import "time"

type AnalyticsEventType string

const (
	EventPageView            AnalyticsEventType = "page_view"
	EventCTAClick            AnalyticsEventType = "cta_click"
	EventFormSubmit          AnalyticsEventType = "form_submit"
	EventPricingOptionSelect AnalyticsEventType = "pricing_option_select"
)

func (t AnalyticsEventType) IsValid() bool {
	switch t {
	case EventPageView, EventCTAClick, EventFormSubmit, EventPricingOptionSelect:
		return true
	}
	return false
}

type AnalyticsEvent struct {
	Type       AnalyticsEventType `json:"type"`
	Page       string             `json:"page"`
	Timestamp  time.Time          `json:"timestamp"`
	Properties map[string]any     `json:"properties,omitempty"`
}
