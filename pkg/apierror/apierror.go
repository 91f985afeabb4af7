package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error a handler can render as is: a stable code for the
// SPA, a human message and the HTTP status to answer with.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// BadRequest reports invalid client input. field names the offending input
// when there is one.
func BadRequest(message string, field string) *APIError {
	return New("BAD_REQUEST", message, field, http.StatusBadRequest)
}

// Backend mirrors a failed backend status. Server-side failures become 502
// since the fault is not the gateway's.
func Backend(code string, message string, status int) *APIError {
	if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
		status = http.StatusBadGateway
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return New(code, message, "", status)
}

// From returns the APIError in err's chain.
func From(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
