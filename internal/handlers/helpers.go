// Package handlers implements the admin HTTP API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	"github.com/gorilla/mux"
)

const maxErrorMessageLength = 200

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

type errorEnvelope struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already written; an encoding failure can only be dropped
	_ = json.NewEncoder(w).Encode(body)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// respondJSON wraps data in the success envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data, Timestamp: timestamp()})
}

// sanitizeErrorMessage caps what an error response reveals
func sanitizeErrorMessage(message string) string {
	return logger.SanitizeString(message, maxErrorMessageLength)
}

// respondJSONError sends the error envelope
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeJSON(w, status, errorEnvelope{
		Error:     errorType,
		Message:   sanitizeErrorMessage(message),
		Timestamp: timestamp(),
	})
}

// userKeyVar reads the {key} route variable
func userKeyVar(r *http.Request) (models.UserKey, bool) {
	key, err := models.ParseUserKey(mux.Vars(r)["key"])
	return key, err == nil
}
