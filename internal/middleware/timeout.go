package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go-driveway/internal/model"
)

// Timeout bounds the whole request, backend round trips included.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message, _ := json.Marshal(model.Failed("REQUEST_TIMEOUT", "request timed out", ""))

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(message))
	}
}
