package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// jobNamespace derives stable job ids, so a slot enqueued twice (for example
// by a restarted scheduler) carries the same id both times
var jobNamespace = uuid.MustParse("4f1c7b0e-3a5d-4c8e-9b2f-6d7e8a9b0c1d")

// Slots are the local times the broadcasts go out, as offsets from midnight
type Slots struct {
	Quote         time.Duration
	Reminder      time.Duration
	ReportWeekday time.Weekday
	Report        time.Duration
}

// Scheduler enqueues one delayed job per upcoming broadcast slot
type Scheduler struct {
	jobQueue  queue.JobQueue
	slots     Slots
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
	mu        sync.Mutex
	scheduled map[queue.JobType]time.Time
}

// NewScheduler creates a scheduler; a nil location means time.Local
func NewScheduler(jobQueue queue.JobQueue, slots Slots, location *time.Location, log *zap.Logger) *Scheduler {
	if location == nil {
		location = time.Local
	}
	return &Scheduler{
		jobQueue:  jobQueue,
		slots:     slots,
		location:  location,
		logger:    logger.OrNop(log),
		now:       time.Now,
		scheduled: make(map[queue.JobType]time.Time),
	}
}

// NextDaily returns the first time at offset past midnight strictly after now
func NextDaily(now time.Time, offset time.Duration) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	next := midnight.Add(offset)
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location()).Add(offset)
	}
	return next
}

// NextWeekly returns the first weekday at offset strictly after now
func NextWeekly(now time.Time, weekday time.Weekday, offset time.Duration) time.Time {
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	day := time.Date(now.Year(), now.Month(), now.Day()+days, 0, 0, 0, 0, now.Location())
	next := day.Add(offset)
	if !next.After(now) {
		next = time.Date(day.Year(), day.Month(), day.Day()+7, 0, 0, 0, 0, now.Location()).Add(offset)
	}
	return next
}

// JobID is the stable id of the job for kind at slot
func JobID(kind queue.JobType, slot time.Time) uuid.UUID {
	return uuid.NewSHA1(jobNamespace, []byte(fmt.Sprintf("%s@%d", kind, slot.Unix())))
}

// upcoming returns the next slot of every broadcast kind
func (s *Scheduler) upcoming(now time.Time) map[queue.JobType]time.Time {
	now = now.In(s.location)
	return map[queue.JobType]time.Time{
		queue.JobTypeQuoteBroadcast:    NextDaily(now, s.slots.Quote),
		queue.JobTypeReminderBroadcast: NextDaily(now, s.slots.Reminder),
		queue.JobTypeWeeklyReport:      NextWeekly(now, s.slots.ReportWeekday, s.slots.Report),
	}
}

// ScheduleNext enqueues the upcoming slot of each kind that is not queued yet.
// A failed enqueue is logged and retried on the next call.
func (s *Scheduler) ScheduleNext(ctx context.Context) ([]*queue.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []*queue.Job
	var lastErr error
	for _, kind := range queue.JobTypes {
		slot := s.upcoming(s.now())[kind]
		if prev, ok := s.scheduled[kind]; ok && prev.Equal(slot) {
			continue
		}

		job := queue.NewJob(kind, slot)
		job.ID = JobID(kind, slot)
		// a broadcast more than an hour late is dropped
		notAfter := slot.Add(time.Hour)
		job.NotAfter = &notAfter

		if err := s.jobQueue.Enqueue(ctx, job); err != nil {
			lastErr = err
			s.logger.Warn("failed_to_schedule_broadcast",
				zap.String("job_type", string(kind)),
				zap.Time("slot", slot),
				zap.Error(err),
			)
			continue
		}
		s.scheduled[kind] = slot
		jobs = append(jobs, job)
		s.logger.Info("scheduled_broadcast",
			zap.String("job_type", string(kind)),
			zap.String("job_id", job.ID.String()),
			zap.Time("slot", slot),
		)
	}
	if len(jobs) == 0 && lastErr != nil {
		return nil, fmt.Errorf("failed to enqueue broadcast jobs: %w", lastErr)
	}
	return jobs, nil
}

// nextWake returns the earliest queued slot
func (s *Scheduler) nextWake() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	var wake time.Time
	for _, slot := range s.scheduled {
		if wake.IsZero() || slot.Before(wake) {
			wake = slot
		}
	}
	return wake
}

// Run keeps one job per kind queued until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if _, err := s.ScheduleNext(ctx); err != nil {
			s.logger.Error("broadcast_scheduling_failed", zap.Error(err))
		}

		wait := time.Minute
		if wake := s.nextWake(); !wake.IsZero() {
			if until := wake.Sub(s.now()) + time.Second; until > 0 {
				wait = until
			} else {
				wait = time.Second
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
