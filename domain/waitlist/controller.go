package waitlist

import (
	"errors"
	"time"

	"github.com/bloomcare/bloom-waitlist/config/router"
	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	apperrors "github.com/bloomcare/bloom-waitlist/pkg/errors"
	"github.com/bloomcare/bloom-waitlist/pkg/factory"
	"github.com/bloomcare/bloom-waitlist/pkg/ratelimit"
)

func NewWaitlistController(
	logger *log.Logger,
	capturer Capturer,
	limiters factory.RateLimiterFactory,
) *router.RESTController {
	RegisterValidations()

	return router.NewVersionedRESTController(
		"WaitlistController",
		"v1",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			service := NewWaitlistService(logger, capturer)

			rs.AddPostHandler(c, joinRateLimiter(limiters), "", joinWaitlistHandler(service))
		},
	)
}

func joinRateLimiter(limiters factory.RateLimiterFactory) ratelimit.RateLimiter {
	const submissionsPerMinute = 30

	if limiters == nil {
		limiters = factory.NewRateLimiterFactory(nil, nil)
	}
	return limiters.CreateRateLimiter(submissionsPerMinute, time.Minute)
}

func joinWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req JoinWaitlistRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind waitlist request", "error", err)

			validationErrors := apperrors.FormatValidationErrors(err, &req)
			if len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", validationErrors)
			}

			return router.BadRequestResult("Invalid request body", nil)
		}

		response, err := service.Join(ctx.Request.Context(), &req)
		if err != nil {
			if errors.Is(err, ErrNotSaved) {
				return router.ErrorResult(apperrors.HTTPStatusCode(err), capture.FailureTitle, response)
			}
			return router.ResultFromError(err)
		}

		return router.CreatedResult(response, capture.SuccessTitle)
	}
}
