package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	"github.com/benvon/daily-journal/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Broadcasts is what the dispatcher runs jobs against
type Broadcasts interface {
	SendQuotes(ctx context.Context, now time.Time, keys ...models.UserKey) (Summary, error)
	SendReminders(ctx context.Context, now time.Time, keys ...models.UserKey) (Summary, error)
	SendWeeklyReports(ctx context.Context, now time.Time, keys ...models.UserKey) (Summary, error)
}

var _ Broadcasts = (*Broadcaster)(nil)

const (
	baseRetryDelay = 30 * time.Second
	seenRetention  = 48 * time.Hour
	// maxDeferWait caps how long an early delivery holds the consumer before
	// it is put back, so a queue without delayed delivery does not spin.
	maxDeferWait = 5 * time.Second
)

// Dispatcher executes queued broadcast jobs
type Dispatcher struct {
	broadcasts Broadcasts
	jobQueue   queue.JobQueue // for re-enqueueing failed jobs with a delay
	logger     *zap.Logger
	now        func() time.Time
	deferWait  time.Duration

	mu   sync.Mutex
	seen map[uuid.UUID]time.Time
}

// NewDispatcher creates a dispatcher. jobQueue may be nil, in which case
// failed jobs are requeued immediately.
func NewDispatcher(broadcasts Broadcasts, jobQueue queue.JobQueue, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		broadcasts: broadcasts,
		jobQueue:   jobQueue,
		logger:     logger.OrNop(log),
		now:        time.Now,
		deferWait:  maxDeferWait,
		seen:       make(map[uuid.UUID]time.Time),
	}
}

// Run runs the job given on its own, outside the queue
func (d *Dispatcher) Run(ctx context.Context, job *queue.Job) (Summary, error) {
	ref := job.ScheduledFor
	if ref.IsZero() {
		ref = d.now()
	}
	var keys []models.UserKey
	if job.UserKey != nil {
		keys = append(keys, *job.UserKey)
	}

	switch job.Type {
	case queue.JobTypeQuoteBroadcast:
		return d.broadcasts.SendQuotes(ctx, ref, keys...)
	case queue.JobTypeReminderBroadcast:
		return d.broadcasts.SendReminders(ctx, ref, keys...)
	case queue.JobTypeWeeklyReport:
		return d.broadcasts.SendWeeklyReports(ctx, ref, keys...)
	}
	return Summary{}, fmt.Errorf("unknown job type: %s", job.Type)
}

// ProcessJob processes a message based on its job type and settles it
func (d *Dispatcher) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.GetJob()

	if job.IsExpired() {
		d.logger.Warn("job_expired", zap.String("job_id", job.ID.String()), zap.String("job_type", string(job.Type)))
		return msg.Nack(false)
	}
	if job.NotBefore != nil && d.now().Before(*job.NotBefore) {
		return d.deferJob(ctx, msg, job)
	}
	if d.duplicate(job.ID) {
		d.logger.Info("duplicate_job_skipped", zap.String("job_id", job.ID.String()))
		return msg.Ack()
	}

	summary, err := d.Run(ctx, job)
	if err != nil {
		return d.handleJobError(ctx, msg, job, err)
	}
	d.markSeen(job.ID)
	d.logger.Info("job_processed",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
	)
	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

// deferJob puts back a job delivered before its NotBefore. The job is
// re-enqueued unchanged so a delaying queue holds it until due; without a
// queue the delivery is nacked for redelivery.
func (d *Dispatcher) deferJob(ctx context.Context, msg *queue.Message, job *queue.Job) error {
	remaining := job.NotBefore.Sub(d.now())
	d.logger.Debug("job_not_yet_due",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Duration("remaining", remaining),
	)

	if wait := min(remaining, d.deferWait); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return msg.Nack(true)
		case <-timer.C:
		}
	}

	if d.jobQueue != nil {
		err := d.jobQueue.Enqueue(ctx, job)
		if err == nil {
			return msg.Ack()
		}
		d.logger.Warn("failed_to_defer_job", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
	return msg.Nack(true)
}

// handleJobError re-enqueues the job with exponential delay while retries
// remain and dead-letters it afterwards
func (d *Dispatcher) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error) error {
	if !job.CanRetry() {
		d.logger.Error("job_failed_sending_to_dlq",
			zap.String("job_id", job.ID.String()),
			zap.Int("retries", job.RetryCount),
			zap.String("error", logger.SanitizeError(err)),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (max retries): %w", err)
	}

	delay := baseRetryDelay << job.RetryCount
	retry := *job
	retry.IncrementRetry()
	notBefore := d.now().Add(delay)
	retry.NotBefore = &notBefore

	if d.jobQueue != nil {
		if enqueueErr := d.jobQueue.Enqueue(ctx, &retry); enqueueErr == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				d.logger.Warn("failed_to_ack_job_before_retry", zap.Error(ackErr))
			}
			d.logger.Warn("job_failed_will_retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("attempt", retry.RetryCount),
				zap.Duration("delay", delay),
				zap.String("error", logger.SanitizeError(err)),
			)
			return fmt.Errorf("job failed (will retry): %w", err)
		}
	}

	if nackErr := msg.Nack(true); nackErr != nil {
		d.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (requeued): %w", err)
}

func (d *Dispatcher) duplicate(id uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[id]
	return ok
}

func (d *Dispatcher) markSeen(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	d.seen[id] = now
	for k, at := range d.seen {
		if now.Sub(at) > seenRetention {
			delete(d.seen, k)
		}
	}
}

// Consume processes messages from jobQueue until ctx is cancelled or the
// delivery channel closes
func (d *Dispatcher) Consume(ctx context.Context, jobQueue queue.JobQueue, prefetch int) error {
	msgChan, errChan, err := jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			d.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgChan:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			if err := d.ProcessJob(ctx, msg); err != nil {
				d.logger.Error("failed_to_process_job",
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("job_type", string(msg.GetJob().Type)),
					zap.Error(err),
				)
			}
		}
	}
}
