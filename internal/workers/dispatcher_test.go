package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/daily-journal/internal/models"
	"github.com/benvon/daily-journal/internal/queue"
)

type mockBroadcasts struct {
	sendQuotesFunc        func(ctx context.Context, now time.Time, keys ...models.UserKey) (Summary, error)
	sendRemindersFunc     func(ctx context.Context, now time.Time, keys ...models.UserKey) (Summary, error)
	sendWeeklyReportsFunc func(ctx context.Context, now time.Time, keys ...models.UserKey) (Summary, error)
}

func (m *mockBroadcasts) SendQuotes(ctx context.Context, now time.Time, keys ...models.UserKey) (Summary, error) {
	if m.sendQuotesFunc != nil {
		return m.sendQuotesFunc(ctx, now, keys...)
	}
	return Summary{}, nil
}

func (m *mockBroadcasts) SendReminders(ctx context.Context, now time.Time, keys ...models.UserKey) (Summary, error) {
	if m.sendRemindersFunc != nil {
		return m.sendRemindersFunc(ctx, now, keys...)
	}
	return Summary{}, nil
}

func (m *mockBroadcasts) SendWeeklyReports(ctx context.Context, now time.Time, keys ...models.UserKey) (Summary, error) {
	if m.sendWeeklyReportsFunc != nil {
		return m.sendWeeklyReportsFunc(ctx, now, keys...)
	}
	return Summary{}, nil
}

type mockAcker struct {
	acked    int
	nacked   int
	requeued int
}

func (a *mockAcker) Ack(uint64, bool) error { a.acked++; return nil }
func (a *mockAcker) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	if requeue {
		a.requeued++
	}
	return nil
}
func (a *mockAcker) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func message(job *queue.Job) (*queue.Message, *mockAcker) {
	acker := &mockAcker{}
	return &queue.Message{Job: job, DeliveryTag: 1, Acker: acker}, acker
}

func TestDispatcher_RoutesByType(t *testing.T) {
	t.Parallel()
	slot := time.Date(2024, 3, 8, 18, 0, 0, 0, time.Local)
	var gotNow time.Time
	var gotKeys []models.UserKey
	b := &mockBroadcasts{
		sendWeeklyReportsFunc: func(_ context.Context, now time.Time, keys ...models.UserKey) (Summary, error) {
			gotNow, gotKeys = now, keys
			return Summary{Users: 1, Sent: 1}, nil
		},
	}
	d := NewDispatcher(b, nil, nil)

	job := queue.NewJob(queue.JobTypeWeeklyReport, slot).ForUser(5)
	msg, acker := message(job)
	if err := d.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if acker.acked != 1 {
		t.Errorf("acked = %d, want 1", acker.acked)
	}
	if !gotNow.Equal(slot) || len(gotKeys) != 1 || gotKeys[0] != 5 {
		t.Errorf("broadcast called with %v %v", gotNow, gotKeys)
	}

	// the same slot delivered twice only runs once
	dup, dupAcker := message(job)
	b.sendWeeklyReportsFunc = func(context.Context, time.Time, ...models.UserKey) (Summary, error) {
		t.Error("duplicate job ran")
		return Summary{}, nil
	}
	if err := d.ProcessJob(context.Background(), dup); err != nil {
		t.Fatal(err)
	}
	if dupAcker.acked != 1 {
		t.Error("duplicate not acked")
	}
}

func TestDispatcher_RetriesThenDeadLetters(t *testing.T) {
	t.Parallel()
	q := &mockJobQueue{}
	b := &mockBroadcasts{
		sendRemindersFunc: func(context.Context, time.Time, ...models.UserKey) (Summary, error) {
			return Summary{}, errors.New("users table locked")
		},
	}
	d := NewDispatcher(b, q, nil)
	now := time.Date(2024, 3, 8, 21, 30, 0, 0, time.Local)
	d.now = func() time.Time { return now }

	job := queue.NewJob(queue.JobTypeReminderBroadcast, now)
	msg, acker := message(job)
	if err := d.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}
	if acker.acked != 1 || len(q.jobs) != 1 {
		t.Fatalf("acked = %d, re-enqueued = %d", acker.acked, len(q.jobs))
	}
	retry := q.jobs[0]
	if retry.RetryCount != 1 || !retry.NotBefore.Equal(now.Add(baseRetryDelay)) {
		t.Errorf("retry = count %d, not before %v", retry.RetryCount, retry.NotBefore)
	}
	if job.RetryCount != 0 {
		t.Error("original job mutated")
	}

	now = now.Add(baseRetryDelay)
	retry.RetryCount = retry.MaxRetries
	last, lastAcker := message(retry)
	if err := d.ProcessJob(context.Background(), last); err == nil {
		t.Fatal("expected error at max retries")
	}
	if lastAcker.nacked != 1 || lastAcker.requeued != 0 {
		t.Errorf("max retries: nacked %d, requeued %d", lastAcker.nacked, lastAcker.requeued)
	}
}

func TestDispatcher_DefersJobsBeforeNotBefore(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local)
	sunday := now.Add(72 * time.Hour)

	tests := []struct {
		name         string
		jobQueue     *mockJobQueue
		wantAcked    int
		wantRequeued int
	}{
		{name: "re-enqueued when a queue is set", jobQueue: &mockJobQueue{}, wantAcked: 1},
		{name: "nacked for redelivery without a queue", wantRequeued: 1},
		{
			name: "nacked when re-enqueue fails",
			jobQueue: &mockJobQueue{enqueueFunc: func(context.Context, *queue.Job) error {
				return errors.New("channel closed")
			}},
			wantRequeued: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sent := 0
			b := &mockBroadcasts{
				sendWeeklyReportsFunc: func(context.Context, time.Time, ...models.UserKey) (Summary, error) {
					sent++
					return Summary{Sent: 1}, nil
				},
			}
			var jq queue.JobQueue
			if tt.jobQueue != nil {
				jq = tt.jobQueue
			}
			d := NewDispatcher(b, jq, nil)
			d.now = func() time.Time { return now }
			d.deferWait = 0

			job := queue.NewJob(queue.JobTypeWeeklyReport, sunday)
			msg, acker := message(job)
			if err := d.ProcessJob(context.Background(), msg); err != nil {
				t.Fatalf("ProcessJob() error = %v", err)
			}
			if sent != 0 {
				t.Errorf("sent %d reports before the job was due", sent)
			}
			if acker.acked != tt.wantAcked || acker.requeued != tt.wantRequeued {
				t.Errorf("acked %d requeued %d, want %d %d", acker.acked, acker.requeued, tt.wantAcked, tt.wantRequeued)
			}
			if tt.jobQueue != nil && tt.wantAcked == 1 {
				if len(tt.jobQueue.jobs) != 1 || !tt.jobQueue.jobs[0].NotBefore.Equal(sunday) {
					t.Errorf("re-enqueued %v, want the job unchanged", tt.jobQueue.jobs)
				}
			}

			// a deferred job still runs once it comes due
			d.now = func() time.Time { return sunday }
			due, _ := message(job)
			if err := d.ProcessJob(context.Background(), due); err != nil {
				t.Fatalf("ProcessJob() when due error = %v", err)
			}
			if sent != 1 {
				t.Errorf("sent %d reports when due, want 1", sent)
			}
		})
	}
}

func TestDispatcher_ExpiredAndUnknownJobs(t *testing.T) {
	t.Parallel()
	d := NewDispatcher(&mockBroadcasts{}, nil, nil)

	expired := queue.NewJob(queue.JobTypeQuoteBroadcast, time.Now().Add(-2*time.Hour))
	past := time.Now().Add(-time.Hour)
	expired.NotAfter = &past
	msg, acker := message(expired)
	_ = d.ProcessJob(context.Background(), msg)
	if acker.nacked != 1 || acker.requeued != 0 {
		t.Errorf("expired job: nacked %d requeued %d", acker.nacked, acker.requeued)
	}

	if _, err := d.Run(context.Background(), &queue.Job{Type: "digest"}); err == nil {
		t.Error("Run() with unknown type expected error")
	}
}

func TestDispatcher_ConsumeFromMemoryQueue(t *testing.T) {
	t.Parallel()
	q := queue.NewMemoryQueue(4)
	defer func() { _ = q.Close() }()

	done := make(chan struct{})
	b := &mockBroadcasts{
		sendQuotesFunc: func(context.Context, time.Time, ...models.UserKey) (Summary, error) {
			close(done)
			return Summary{}, nil
		},
	}
	d := NewDispatcher(b, q, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- d.Consume(ctx, q, 1) }()

	if err := q.Enqueue(ctx, queue.NewJob(queue.JobTypeQuoteBroadcast, time.Now())); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never dispatched")
	}
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Consume() = %v, want context.Canceled", err)
	}
}
