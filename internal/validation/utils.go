package validation

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/deppfellow/docx-render/internal/errs"
)

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Typical pattern:
//   - Define a request struct with validator tags (`validate:"required"`)
//   - Implement Validate() error that calls validation.Struct(req), then any
//     check that tags cannot express
//   - Return validator.ValidationErrors or CustomValidationErrors
type Validatable interface {
	Validate() error
}

// CustomValidationError represents a single validation issue for a specific field.
// This is used for validation errors that cannot be expressed via validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// requiredMessage is the field error text of a missing value.
const requiredMessage = "is required"

// Required reports field as missing.
func Required(field string) CustomValidationErrors {
	return CustomValidationErrors{{Field: field, Message: requiredMessage}}
}

// validate is shared by every request type. Field names are reported by
// their JSON name, so errors match what the client sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates the struct tags of v.
func Struct(v any) error {
	return validate.Struct(v)
}

// BindAndValidate binds request data into payload and validates it.
//
// Flow:
//  1. c.Bind(payload) populates the request struct from the body.
//  2. payload.Validate() applies validation rules.
//  3. Returns *errs.HTTPError (400) if either step fails. A missing field is
//     reported as "Missing required field: <name>".
//
// NOTE: c.Bind expects a pointer to a struct.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := c.Bind(payload); err != nil {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			if echoErr.Code != http.StatusBadRequest {
				// 415 keeps its status.
				return errs.New(echoErr.Code, "", bindMessage(echoErr))
			}
			return errs.NewBadRequestError("Invalid request body: "+bindMessage(echoErr), false, nil, nil)
		}
		return errs.NewBadRequestError("Invalid request body: "+err.Error(), false, nil, nil)
	}

	if err := payload.Validate(); err != nil {
		msg, fieldErrors := extractValidationError(err)
		return errs.NewBadRequestError(msg, false, nil, fieldErrors)
	}

	return nil
}

func bindMessage(err *echo.HTTPError) string {
	if msg, ok := err.Message.(string); ok {
		return msg
	}
	return fmt.Sprint(err.Message)
}

// extractValidationError converts err into a message and field errors.
// The message names the first missing field when there is one.
func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var customErrors CustomValidationErrors
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &customErrors):
		for _, e := range customErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: e.Field, Error: e.Message})
		}
	case errors.As(err, &validationErrors):
		for _, e := range validationErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: e.Field(),
				Error: tagMessage(e),
			})
		}
	default:
		return "Validation failed: " + err.Error(), nil
	}

	for _, fe := range fieldErrors {
		if fe.Error == requiredMessage {
			return "Missing required field: " + fe.Field, fieldErrors
		}
	}
	return "Validation failed", fieldErrors
}

func tagMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return requiredMessage

	case "min":
		// min means length for strings and value for numbers.
		if err.Type().Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", err.Param())
		}
		return fmt.Sprintf("must be at least %s", err.Param())

	case "max":
		if err.Type().Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", err.Param())
		}
		return fmt.Sprintf("must not exceed %s", err.Param())

	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())

	case "base64":
		return "must be valid base64"
	}

	if err.Param() != "" {
		return fmt.Sprintf("%s: %s:%s", err.Field(), err.Tag(), err.Param())
	}
	return fmt.Sprintf("%s: %s", err.Field(), err.Tag())
}
