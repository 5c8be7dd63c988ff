package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var tagMessages = map[string]string{
	"required":           "This field is required",
	"email":              "Invalid email format",
	"min":                "Value is too short or too small",
	"max":                "Value is too long or too large",
	"len":                "Value must be exact length",
	"url":                "Invalid URL format",
	"oneof":              "Value is not one of the allowed options",
	"pricing_preference": "Must be one of monthly, annual, too_expensive, not_pay",
	"analytics_event":    "Must be one of page_view, cta_click, form_submit, pricing_option_select",
}

// Messages for tags whose parameter is worth echoing back.
var paramTagMessages = map[string]string{
	"min":   "Must be at least %s characters",
	"max":   "Must not exceed %s characters",
	"len":   "Must be exactly %s characters",
	"oneof": "Must be one of: %s",
}

func msgForFieldError(fieldError validator.FieldError) string {
	if fieldError.Param() != "" {
		if format, ok := paramTagMessages[fieldError.Tag()]; ok {
			return fmt.Sprintf(format, fieldError.Param())
		}
	}

	if message, ok := tagMessages[fieldError.Tag()]; ok {
		return message
	}

	return "Invalid value"
}

func getJSONFieldName(structType reflect.Type, fieldName string) string {
	if structType == nil || structType.Kind() != reflect.Struct {
		return fieldName
	}

	field, found := structType.FieldByName(fieldName)
	if !found {
		return fieldName
	}

	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fieldName
	}

	return name
}

// FormatValidationErrors converts binding errors into field/message pairs keyed by JSON names.
func FormatValidationErrors(err error, model interface{}) []ValidationErrorResponse {
	var errorsList []ValidationErrorResponse

	if err == nil {
		return errorsList
	}

	var jsonErr *json.UnmarshalTypeError
	if errors.As(err, &jsonErr) {
		return []ValidationErrorResponse{
			{
				Field:   jsonErr.Field,
				Message: fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", jsonErr.Field, jsonErr.Type, jsonErr.Value),
			},
		}
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorsList
	}

	var structType reflect.Type
	if model != nil {
		structType = reflect.TypeOf(model)
		if structType.Kind() == reflect.Ptr {
			structType = structType.Elem()
		}
	}

	errorsList = make([]ValidationErrorResponse, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		errorsList = append(errorsList, ValidationErrorResponse{
			Field:   getJSONFieldName(structType, fieldError.StructField()),
			Message: msgForFieldError(fieldError),
		})
	}

	return errorsList
}
