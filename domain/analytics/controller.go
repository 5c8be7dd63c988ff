package analytics

import (
	"sync"

	"github.com/bloomcare/bloom-waitlist/config/router"
	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	apperrors "github.com/bloomcare/bloom-waitlist/pkg/errors"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

func registerValidations() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("analytics_event", func(fl validator.FieldLevel) bool {
				return models.AnalyticsEventType(fl.Field().String()).IsValid()
			})
		}
	})
}

func NewAnalyticsController(logger *log.Logger, repository AnalyticsRepository) *router.RESTController {
	registerValidations()

	return router.NewVersionedRESTController(
		"AnalyticsController",
		"v1",
		"/analytics",
		func(rs *router.RouterService, c *router.RESTController) {
			service := NewAnalyticsService(logger, repository)

			rs.AddPostHandler(c, nil, "events", trackEventHandler(service))
			rs.AddGetHandler(c, nil, "summary", summaryHandler(service))
		},
	)
}

func trackEventHandler(service AnalyticsService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req TrackEventRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			router.GetLogger(ctx).Warn("Failed to bind analytics event", "error", err)

			if validationErrors := apperrors.FormatValidationErrors(err, &req); len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", validationErrors)
			}
			return router.BadRequestResult("Invalid request body", nil)
		}

		response, err := service.Track(ctx.Request.Context(), &req)
		if err != nil {
			return router.ResultFromError(err)
		}

		return router.CreatedResult(response, "Event recorded")
	}
}

func summaryHandler(service AnalyticsService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.Summary(ctx.Request.Context())
		if err != nil {
			return router.ResultFromError(err)
		}

		return router.OKResult(response, "Analytics summary retrieved successfully")
	}
}
