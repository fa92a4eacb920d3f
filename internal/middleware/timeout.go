package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout covers a full analysis including storage round trips.
const DefaultRequestTimeout = 30 * time.Second

// Timeout bounds handler run time. Message generation waits on the model provider, so
// the server passes a longer value than the default.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	body := `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, body)
	}
}
