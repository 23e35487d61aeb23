package middleware

import "net/http"

// DefaultMaxRequestSize is the largest request body accepted by the admin
// API. The only body it reads is a broadcast trigger.
const DefaultMaxRequestSize int64 = 64 << 10

// MaxRequestSize rejects declared oversized bodies with 413 and caps the
// rest at limit bytes
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxRequestSize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeError(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body exceeds the size limit")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
