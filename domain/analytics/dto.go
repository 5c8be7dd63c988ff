package analytics

import "github.com/bloomcare/bloom-waitlist/internal/models"

// TrackEventRequest mirrors the page's tracking calls. CTA clicks carry ctaName and
// ctaLocation, pricing selections carry pricingOption, form submits carry formName and
// the formDataKeys array.
type TrackEventRequest struct {
	Type       string         `json:"type" binding:"required,analytics_event"`
	Page       string         `json:"page" binding:"required,max=512"`
	Properties map[string]any `json:"properties" binding:"omitempty,max=20,dive,keys,max=64,endkeys"`
}

type TrackEventResponse struct {
	Type  models.AnalyticsEventType `json:"type"`
	Page  string                    `json:"page"`
	Count int                       `json:"count"`
}

type SummaryResponse struct {
	TotalPageViews    int            `json:"totalPageViews"`
	UniquePages       int            `json:"uniquePages"`
	TotalCTAClicks    int            `json:"totalCTAClicks"`
	TotalFormSubmits  int            `json:"totalFormSubmits"`
	PricingSelections map[string]int `json:"pricingSelections"`
	ConversionRate    string         `json:"conversionRate"`
}
