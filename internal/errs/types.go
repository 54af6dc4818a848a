package errs

import "strings"

// FieldError represents a field-level validation error.
// Example:
//
//	{ "field": "templateBase64", "error": "is required" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is the main custom error type for API responses.
//
// It is serialized directly as the failure body:
//
//	{ "success": false, "error": "...", "code": "BAD_REQUEST", "status": 400 }
//
// Fields:
//   - Code: machine-friendly error code (e.g. "BAD_REQUEST", "TEMPLATE_TOO_LARGE").
//   - Message: human-friendly message, serialized as "error".
//   - Status: HTTP status code.
//   - Override: the message may carry internal detail and is replaced by a
//     generic one in production.
//   - Errors: list of per-field errors (validation).
type HTTPError struct {
	Success  bool   `json:"success"`
	Code     string `json:"code"`
	Message  string `json:"error"`
	Status   int    `json:"status"`
	Override bool   `json:"-"`

	Errors []FieldError `json:"errors,omitempty"`

	// cause is the underlying error, kept for logs and errors.Is/As.
	cause error
}

// Error makes *HTTPError satisfy the built-in `error` interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Unwrap returns the error the HTTPError was built from, if any.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

// Is reports true for any *HTTPError target. It does not compare Code/Status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	cp := *e
	cp.Message = message
	return &cp
}

// WithCause returns a copy of this HTTPError wrapping cause.
func (e *HTTPError) WithCause(cause error) *HTTPError {
	cp := *e
	cp.cause = cause
	return &cp
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Request" -> "BAD_REQUEST"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
