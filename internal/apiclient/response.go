package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type Response struct {
	Status int
	Header http.Header
	Body   []byte
	// URL is the request URL the response answers.
	URL string
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response from %s: %w", r.URL, err)
	}
	return nil
}

// Envelope is the backend's body shape: {data, status} on success and
// {error|message} on failure.
type Envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Status  json.RawMessage `json:"status,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (r *Response) Envelope() (Envelope, error) {
	var env Envelope
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return env, nil
	}
	if err := r.Decode(&env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Problem reports the failure carried by the response, if any: an error field
// in the body, or any non-2xx status. The text prefers the body's error, then
// its message, then the status text.
func (r *Response) Problem() (string, bool) {
	env, err := r.Envelope()
	if err != nil {
		if r.OK() {
			return "", false
		}
		return http.StatusText(r.Status), true
	}

	if text, ok := errorText(env.Error); ok {
		return text, true
	}

	if r.OK() {
		return "", false
	}
	if env.Message != "" {
		return env.Message, true
	}
	return http.StatusText(r.Status), true
}

func errorText(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("false")) {
		return "", false
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		return text, text != ""
	}

	var object struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &object); err == nil && object.Message != "" {
		return object.Message, true
	}

	return string(trimmed), true
}

// Error is the failure of a call. Response is nil when no response arrived at
// all (network failure, timeout).
type Error struct {
	Method   string
	URL      string
	Response *Response
	Err      error
}

func (e *Error) Error() string {
	if e.Response != nil {
		return fmt.Sprintf("%s %s: %d: %v", e.Method, e.URL, e.Response.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HasBody reports whether the failure came with a non-empty response body.
func (e *Error) HasBody() bool {
	return e.Response != nil && len(bytes.TrimSpace(e.Response.Body)) > 0
}

// StatusOf returns the HTTP status behind err, or 0 when there was none.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Response != nil {
		return apiErr.Response.Status
	}
	return 0
}
