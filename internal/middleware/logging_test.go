package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/daily-journal/internal/request"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		requestID     string
	}{
		{name: "GET request", method: "GET", path: "/api/v1/users", handlerStatus: http.StatusOK},
		{name: "POST request", method: "POST", path: "/api/v1/broadcasts/quotes", handlerStatus: http.StatusAccepted},
		{name: "404 request", method: "GET", path: "/notfound", handlerStatus: http.StatusNotFound},
		{name: "incoming request id", method: "GET", path: "/version", handlerStatus: http.StatusOK, requestID: "req-1"},
		{name: "oversized request id", method: "GET", path: "/version", handlerStatus: http.StatusOK, requestID: strings.Repeat("x", 65)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			var seenID string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenID = request.RequestID(r.Context())
				w.WriteHeader(tt.handlerStatus)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.requestID != "" {
				req.Header.Set(RequestIDHeader, tt.requestID)
			}
			w := httptest.NewRecorder()
			Logging(zap.New(core))(handler).ServeHTTP(w, req)

			if w.Code != tt.handlerStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.handlerStatus)
			}
			gotID := w.Header().Get(RequestIDHeader)
			if gotID == "" || gotID != seenID {
				t.Errorf("request id header %q, context %q", gotID, seenID)
			}
			if tt.requestID == "req-1" && gotID != "req-1" {
				t.Errorf("incoming request id not kept: %q", gotID)
			}
			if len(tt.requestID) > 64 && gotID == tt.requestID {
				t.Error("oversized request id accepted")
			}

			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("logged %d http_request entries, want 1", len(entries))
			}
			fields := entries[0].ContextMap()
			if fields["status_code"] != int64(tt.handlerStatus) || fields["path"] != tt.path {
				t.Errorf("unexpected fields %v", fields)
			}
		})
	}
}
