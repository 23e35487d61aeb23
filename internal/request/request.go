// Package request holds per-request helpers shared by middleware and handlers.
package request

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	adminContextKey     contextKey = "admin"
	requestIDContextKey contextKey = "request_id"
)

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithAdmin returns a context carrying the authenticated admin subject.
func WithAdmin(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, adminContextKey, subject)
}

// AdminFromContext returns the admin subject, or "" when the request is unauthenticated.
func AdminFromContext(ctx context.Context) string {
	s, _ := ctx.Value(adminContextKey).(string)
	return s
}

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestID returns the request id, or "".
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(requestIDContextKey).(string)
	return s
}
