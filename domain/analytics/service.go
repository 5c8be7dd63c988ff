package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	apperrors "github.com/bloomcare/bloom-waitlist/pkg/errors"
)

type AnalyticsService interface {
	Track(ctx context.Context, req *TrackEventRequest) (*TrackEventResponse, error)
	Summary(ctx context.Context) (*SummaryResponse, error)
}

type analyticsService struct {
	logger     *log.Logger
	repository AnalyticsRepository
	now        func() time.Time
}

func NewAnalyticsService(logger *log.Logger, repository AnalyticsRepository) AnalyticsService {
	return &analyticsService{logger: logger, repository: repository, now: time.Now}
}

func (s *analyticsService) Track(ctx context.Context, req *TrackEventRequest) (*TrackEventResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	event := &models.AnalyticsEvent{
		Type:       models.AnalyticsEventType(req.Type),
		Page:       req.Page,
		Timestamp:  s.now().UTC(),
		Properties: req.Properties,
	}
	if !event.Type.IsValid() {
		return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("unknown event type %q", req.Type), nil)
	}

	count, err := s.repository.Record(ctx, event)
	if err != nil {
		logger.Error("Failed to record analytics event", "type", event.Type, "error", err)
		return nil, apperrors.NewInternalServerError("unable to record event", err)
	}

	logger.Debug("Analytics event recorded", "type", event.Type, "page", event.Page, "count", count)
	return &TrackEventResponse{Type: event.Type, Page: event.Page, Count: count}, nil
}

func (s *analyticsService) Summary(ctx context.Context) (*SummaryResponse, error) {
	totals, err := s.repository.Totals(ctx)
	if err != nil {
		return nil, apperrors.NewInternalServerError("unable to load analytics", err)
	}

	views := 0
	for _, n := range totals.PageViews {
		views += n
	}

	return &SummaryResponse{
		TotalPageViews:    views,
		UniquePages:       len(totals.PageViews),
		TotalCTAClicks:    totals.CTAClicks,
		TotalFormSubmits:  totals.FormSubmits,
		PricingSelections: totals.PricingSelections,
		ConversionRate:    conversionRate(totals.FormSubmits, views),
	}, nil
}

// conversionRate is form submits per page view as a percentage with two decimals.
func conversionRate(submits, views int) string {
	if submits == 0 || views == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(submits)/float64(views)*100)
}
