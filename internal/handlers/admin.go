package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/journal"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	"github.com/benvon/daily-journal/internal/queue"
	"github.com/benvon/daily-journal/internal/report"
	"github.com/benvon/daily-journal/internal/request"
	"github.com/benvon/daily-journal/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AdminHandler serves the /api/v1 admin routes
type AdminHandler struct {
	repos    *database.Repositories
	reports  *report.Aggregator
	jobQueue queue.JobQueue
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// AdminOption configures an AdminHandler
type AdminOption func(*AdminHandler)

// WithLocation sets the zone used to resolve "today"
func WithLocation(loc *time.Location) AdminOption {
	return func(h *AdminHandler) {
		if loc != nil {
			h.location = loc
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) AdminOption {
	return func(h *AdminHandler) { h.now = now }
}

// NewAdminHandler creates the admin handler. jobQueue receives triggered
// broadcasts; with a nil queue the trigger route answers 503.
func NewAdminHandler(repos *database.Repositories, reports *report.Aggregator, jobQueue queue.JobQueue, log *zap.Logger, opts ...AdminOption) *AdminHandler {
	h := &AdminHandler{
		repos:    repos,
		reports:  reports,
		jobQueue: jobQueue,
		location: time.Local,
		logger:   logger.OrNop(log),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the admin routes on r
func (h *AdminHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{key}/reports/weekly", h.WeeklyReport).Methods(http.MethodGet)
	r.HandleFunc("/users/{key}/days/{day}", h.Day).Methods(http.MethodGet)
	r.HandleFunc("/broadcasts/{kind}", h.TriggerBroadcast).Methods(http.MethodPost)
}

// ListUsers handles GET /users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repos.Users.List(r.Context())
	if err != nil {
		h.logger.Error("failed_to_list_users", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// WeeklyReportResponse is a weekly report plus the chat messages that deliver it
type WeeklyReportResponse struct {
	Report   *report.Weekly `json:"report"`
	Messages []string       `json:"messages"`
}

// WeeklyReport handles GET /users/{key}/reports/weekly?end=YYYY-MM-DD. end
// defaults to today.
func (h *AdminHandler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	key, ok := userKeyVar(r)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid user key")
		return
	}
	end := models.DayOf(h.now().In(h.location))
	if raw := r.URL.Query().Get("end"); raw != "" {
		day, err := validation.ValidateDay(raw)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		end = day
	}
	if !h.userExists(w, r, key) {
		return
	}

	weekly := h.reports.Weekly(r.Context(), key, end)
	respondJSON(w, http.StatusOK, WeeklyReportResponse{Report: weekly, Messages: weekly.Messages(end.Weekday())})
}

// Day handles GET /users/{key}/days/{day}
func (h *AdminHandler) Day(w http.ResponseWriter, r *http.Request) {
	key, ok := userKeyVar(r)
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid user key")
		return
	}
	day, err := validation.ValidateDay(mux.Vars(r)["day"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if !h.userExists(w, r, key) {
		return
	}

	snap, err := journal.BuildSnapshot(r.Context(), h.repos, key, "", day)
	if err != nil {
		h.logger.Error("failed_to_build_day_snapshot",
			zap.Int64("user_key", int64(key)),
			zap.String("day", day.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load day")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// BroadcastRequest is the optional body of a broadcast trigger
type BroadcastRequest struct {
	UserKey *models.UserKey `json:"user_key,omitempty" validate:"omitempty,gt=0"`
}

// BroadcastResponse describes the enqueued job
type BroadcastResponse struct {
	JobID        string    `json:"job_id"`
	Type         string    `json:"type"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// TriggerBroadcast handles POST /broadcasts/{kind}. The job runs now on the
// worker; a body with user_key limits it to one user.
func (h *AdminHandler) TriggerBroadcast(w http.ResponseWriter, r *http.Request) {
	kind, err := queue.ParseJobType(mux.Vars(r)["kind"])
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}

	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if h.jobQueue == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Job queue is not configured")
		return
	}

	job := queue.NewJob(kind, h.now())
	if req.UserKey != nil {
		job.ForUser(*req.UserKey)
	}
	if admin := request.AdminFromContext(r.Context()); admin != "" {
		job.Metadata["triggered_by"] = admin
	}
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("failed_to_enqueue_broadcast",
			zap.String("job_type", string(kind)),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to enqueue broadcast")
		return
	}

	h.logger.Info("broadcast_triggered",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(kind)),
	)
	respondJSON(w, http.StatusAccepted, BroadcastResponse{JobID: job.ID.String(), Type: string(kind), ScheduledFor: job.ScheduledFor})
}

func (h *AdminHandler) userExists(w http.ResponseWriter, r *http.Request, key models.UserKey) bool {
	_, err := h.repos.Users.Get(r.Context(), key)
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return false
	case err != nil:
		h.logger.Error("failed_to_get_user", zap.Int64("user_key", int64(key)), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load user")
		return false
	}
	return true
}
