package waitlist

import (
	"context"
	"errors"

	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	apperrors "github.com/bloomcare/bloom-waitlist/pkg/errors"
)

//go:generate mockgen -source=service.go -destination=mock_service.go -package=waitlist

// ErrNotSaved means the critical local copy could not be written.
var ErrNotSaved = errors.New("waitlist entry was not saved")

type WaitlistService interface {
	// Join captures the submission. On ErrNotSaved the response is still returned so the
	// caller can show the per-destination outcomes and the failure toast.
	Join(ctx context.Context, req *JoinWaitlistRequest) (*JoinWaitlistResponse, error)
}

type waitlistService struct {
	logger   *log.Logger
	capturer Capturer
}

func NewWaitlistService(logger *log.Logger, capturer Capturer) WaitlistService {
	return &waitlistService{logger: logger, capturer: capturer}
}

func (s *waitlistService) Join(ctx context.Context, req *JoinWaitlistRequest) (*JoinWaitlistResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("Join received empty request")
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	var pref *models.PricingPreference
	if req.PricingPreference != nil {
		parsed, ok := models.ParsePricingPreference(*req.PricingPreference)
		if !ok {
			return nil, apperrors.NewInvalidRequestError("unknown pricing preference", nil)
		}
		pref = parsed
	}

	result, err := s.capturer.Submit(ctx, req.Email, pref)
	if err != nil {
		logger.Warn("Waitlist submission rejected", "error", err)
		return nil, err
	}

	response := ToJoinWaitlistResponse(result)
	if !result.Success {
		logger.Error("Waitlist submission could not be saved locally")
		return response, apperrors.NewStorageError(capture.FailureMessage, ErrNotSaved)
	}

	return response, nil
}
