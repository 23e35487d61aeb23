package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds one admin request
const DefaultRequestTimeout = 15 * time.Second

const timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`

// Timeout cancels the request context after d and answers 503 with a JSON
// body if the handler has not written yet
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		d = DefaultRequestTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, timeoutBody)
	}
}
