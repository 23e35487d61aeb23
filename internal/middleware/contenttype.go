package middleware

import (
	"mime"
	"net/http"
)

// ContentType requires application/json on requests that carry a body.
// Bodyless POSTs (a broadcast trigger without options) pass.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 || (r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch) {
			next.ServeHTTP(w, r)
			return
		}
		raw := r.Header.Get("Content-Type")
		if raw == "" {
			writeError(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is required")
			return
		}
		if mt, _, err := mime.ParseMediaType(raw); err != nil || mt != "application/json" {
			writeError(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be application/json")
			return
		}
		next.ServeHTTP(w, r)
	})
}
