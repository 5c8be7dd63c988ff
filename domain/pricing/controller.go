package pricing

import (
	"github.com/bloomcare/bloom-waitlist/config/router"
)

func NewPricingController() *router.RESTController {
	return router.NewVersionedRESTController(
		"PricingController",
		"v1",
		"/pricing",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddGetHandler(c, nil, "options", listOptionsHandler)
		},
	)
}

func listOptionsHandler(ctx *router.RequestContext) *router.ServiceResult {
	ctx.Header("Cache-Control", "public, max-age=300")
	return router.OKResult(Options(), "Pricing options retrieved successfully")
}
