package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// formatValidationError converts the first validator error into a client message.
// Field names are the JSON names registered by internal/validator.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be whitespace only"
	case "max":
		return "invalid request: " + field + " exceeds maximum length of " + fe.Param()
	case "gt":
		return "invalid request: " + field + " must be greater than " + fe.Param()
	case "gte":
		return "invalid request: " + field + " must be at least " + fe.Param()
	case "len":
		return "invalid request: " + field + " must be exactly " + fe.Param() + " characters"
	case "email":
		return "invalid request: " + field + " must be a valid email address"
	case "uuid":
		return "invalid request: " + field + " must be a valid UUID"
	case "oneof":
		return "invalid request: " + field + " must be one of: " + fe.Param()
	case "promocode":
		return "invalid request: " + field + " may only contain letters, digits, '-' and '_'"
	default:
		return "invalid request: " + field + " is invalid"
	}
}
