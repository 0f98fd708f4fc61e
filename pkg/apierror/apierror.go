package apierror

import (
	"fmt"
	"net/http"
)

// Error is an API-facing error carrying everything needed to render the
// response envelope: the HTTP code, its textual status label, a message,
// and optional per-field validation errors.
type Error struct {
	Code    int               `json:"code"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

func New(code int, message string) *Error {
	return &Error{Code: code, Status: StatusLabel(code), Message: message}
}

// NewValidation wraps collected field errors into a single 422 response.
func NewValidation(fields map[string]string) *Error {
	return &Error{
		Code:    http.StatusUnprocessableEntity,
		Status:  StatusLabel(http.StatusUnprocessableEntity),
		Message: "The given data was invalid.",
		Fields:  fields,
	}
}

// StatusLabel returns the SCREAMING_SNAKE_CASE label used in the
// response envelope for an HTTP status code.
func StatusLabel(code int) string {
	switch code {
	case http.StatusOK:
		return "OK"
	case http.StatusCreated:
		return "CREATED"
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}
