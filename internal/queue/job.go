package queue

import (
	"fmt"
	"time"

	"github.com/benvon/daily-journal/internal/models"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeQuoteBroadcast sends every user the quote of the day
	JobTypeQuoteBroadcast JobType = "quote_broadcast"
	// JobTypeReminderBroadcast reminds every user to close the day
	JobTypeReminderBroadcast JobType = "reminder_broadcast"
	// JobTypeWeeklyReport delivers the weekly report
	JobTypeWeeklyReport JobType = "weekly_report"
)

// JobTypes lists every known job type
var JobTypes = []JobType{JobTypeQuoteBroadcast, JobTypeReminderBroadcast, JobTypeWeeklyReport}

// ParseJobType accepts the job type name, with "quotes", "reminders" and
// "reports" as shorthands
func ParseJobType(s string) (JobType, error) {
	switch s {
	case string(JobTypeQuoteBroadcast), "quotes", "quote":
		return JobTypeQuoteBroadcast, nil
	case string(JobTypeReminderBroadcast), "reminders", "reminder":
		return JobTypeReminderBroadcast, nil
	case string(JobTypeWeeklyReport), "reports", "report":
		return JobTypeWeeklyReport, nil
	}
	return "", fmt.Errorf("unknown job type %q", s)
}

// Job represents a job in the queue
type Job struct {
	ID           uuid.UUID       `json:"id"`
	Type         JobType         `json:"type"`
	UserKey      *models.UserKey `json:"user_key,omitempty"`   // nil = every user
	ScheduledFor time.Time       `json:"scheduled_for"`        // the slot the job stands for
	NotBefore    *time.Time      `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter     *time.Time      `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	Metadata     map[string]any  `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
}

// NewJob creates a job for the slot at scheduledFor. The job may not run
// before the slot.
func NewJob(jobType JobType, scheduledFor time.Time) *Job {
	notBefore := scheduledFor
	return &Job{
		ID:           uuid.New(),
		Type:         jobType,
		ScheduledFor: scheduledFor,
		NotBefore:    &notBefore,
		Metadata:     make(map[string]any),
		CreatedAt:    time.Now(),
		MaxRetries:   3,
	}
}

// ForUser narrows the job to one user
func (j *Job) ForUser(key models.UserKey) *Job {
	j.UserKey = &key
	return j
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	return j.ShouldProcessAt(time.Now())
}

// ShouldProcessAt checks the NotBefore/NotAfter window against now
func (j *Job) ShouldProcessAt(now time.Time) bool {
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
