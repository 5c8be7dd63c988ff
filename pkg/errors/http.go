package errors

import (
	"errors"
)

const genericClientMessage = "An unexpected error occurred"

// statusByType maps error types to HTTP statuses. Unlisted types are 500s.
var statusByType = map[string]int{
	ErrorTypeNotFound:          StatusNotFound,
	ErrorTypeInvalidRequest:    StatusBadRequest,
	ErrorTypeConflict:          StatusConflict,
	ErrorTypeUnauthorized:      StatusUnauthorized,
	ErrorTypeForbidden:         StatusForbidden,
	ErrorTypeTooManyRequests:   StatusTooManyRequests,
	ErrorTypeRateLimitExceeded: StatusTooManyRequests,
	ErrorTypeRequestTimeout:    StatusRequestTimeout,
	ErrorTypeMethodNotAllowed:  StatusMethodNotAllowed,
	ErrorTypeConfiguration:     StatusServiceUnavailable,
	ErrorTypeUnavailable:       StatusServiceUnavailable,
}

func HTTPStatusCode(err error) int {
	if err == nil {
		return StatusInternalServerError
	}
	if status, ok := statusByType[GetErrorType(err)]; ok {
		return status
	}
	return StatusInternalServerError
}

// GetHumanReadableMessage returns the AppError message. Anything else, such as driver or
// transport errors, is replaced by a generic message.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		return appErr.Message
	}
	return genericClientMessage
}
