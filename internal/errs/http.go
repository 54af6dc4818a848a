package errs

import (
	"net/http"
)

// GenericMessage replaces internal error detail in production responses.
const GenericMessage = "An error occurred while processing the template. Please check your template and data format."

// New creates an HTTPError for any status. An empty code defaults to the
// status text ("Payload Too Large" -> "PAYLOAD_TOO_LARGE").
func New(status int, code, message string) *HTTPError {
	if code == "" {
		code = MakeUpperCaseWithUnderscores(http.StatusText(status))
	}
	return &HTTPError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
//   - code: optional custom code string (if nil, defaults to "BAD_REQUEST")
//   - errors: optional slice of field errors (validation errors)
func NewBadRequestError(message string, override bool, code *string, errors []FieldError) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusBadRequest))
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
	}
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusNotFound))
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

// NewRenderError creates a 500 HTTPError for a failure the template engine
// explained. The explanation is meant for the caller and is never overridden.
func NewRenderError(message string, code string) *HTTPError {
	if code == "" {
		code = MakeUpperCaseWithUnderscores(http.StatusText(http.StatusInternalServerError))
	}
	return &HTTPError{
		Code:    code,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// NewInternalServerError creates a 500 Internal Server Error HTTPError.
//
// The message is the detail of an unexpected fault. Override is set, so in
// production the global error handler answers with GenericMessage instead.
func NewInternalServerError(message string) *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusInternalServerError)),
		Message:  message,
		Status:   http.StatusInternalServerError,
		Override: true,
	}
}

// ValidationError converts a generic validation error into a 400 Bad Request HTTPError.
func ValidationError(err error) *HTTPError {
	return NewBadRequestError("Validation failed: "+err.Error(), false, nil, nil)
}
