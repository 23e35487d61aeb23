package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/request"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every error the middleware answers itself.
// It matches the envelope of the admin handlers.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

// Recover answers a JSON 500 when a handler panics. http.ErrAbortHandler is
// re-raised so net/http can drop the connection.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	log = logger.OrNop(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("handler_panic",
					zap.String("panic", logger.SanitizeString(fmt.Sprint(rec), 200)),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", request.RequestID(r.Context())),
					zap.Stack("stack"),
				)
				writeError(w, r, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an ErrorResponse. Encoding failures are ignored; the
// status line is already out.
func writeError(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:     kind,
		Message:   message,
		RequestID: request.RequestID(r.Context()),
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
