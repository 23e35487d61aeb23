package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("dial tcp 127.0.0.1:5672: connect: connection refused") }

	tests := []struct {
		name       string
		checks     map[string]Check
		mode       string
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "basic mode skips checks",
			checks:     map[string]Check{"queue": broken},
			wantStatus: http.StatusOK,
		},
		{
			name:       "extended all healthy",
			checks:     map[string]Check{"store": healthy, "redis": healthy, "cache": nil},
			mode:       "extended",
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"store": "healthy", "redis": "healthy"},
		},
		{
			name:       "extended with a failure",
			checks:     map[string]Check{"store": healthy, "queue": broken},
			mode:       "extended",
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{
				"store": "healthy",
				"queue": "unhealthy: dial tcp 127.0.0.1:5672: connect: connection refused",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHealthChecker(tt.checks)
			url := "/healthz"
			if tt.mode != "" {
				url += "?mode=" + tt.mode
			}
			w := httptest.NewRecorder()
			h.HealthCheck(w, httptest.NewRequest("GET", url, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.wantChecks, resp.Checks); diff != "" {
				t.Errorf("checks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
