package waitlist

import (
	"sync"

	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidations adds the pricing_preference tag to gin's validator.
func RegisterValidations() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("pricing_preference", validatePricingPreference)
		}
	})
}

func validatePricingPreference(fl validator.FieldLevel) bool {
	_, ok := models.ParsePricingPreference(fl.Field().String())
	return ok
}
