package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryQueue is an in-process JobQueue. Delayed jobs are held on timers, so
// it forgets everything on restart; it backs single-process deployments and
// tests.
type MemoryQueue struct {
	mu      sync.Mutex
	ready   chan *Job
	timers  map[*time.Timer]struct{}
	closed  bool
	nextTag uint64
	acks    map[uint64]bool
	flight  map[uint64]*Job
}

var _ JobQueue = (*MemoryQueue)(nil)

// NewMemoryQueue creates a queue holding up to capacity ready jobs
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &MemoryQueue{
		ready:  make(chan *Job, capacity),
		timers: make(map[*time.Timer]struct{}),
		acks:   make(map[uint64]bool),
		flight: make(map[uint64]*Job),
	}
}

var errQueueClosed = errors.New("queue closed")

// Enqueue makes the job ready at NotBefore
func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errQueueClosed
	}

	var delay time.Duration
	if job.NotBefore != nil {
		delay = time.Until(*job.NotBefore)
	}
	if delay <= 0 {
		select {
		case q.ready <- job:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, timer)
		closed := q.closed
		q.mu.Unlock()
		if !closed {
			q.ready <- job
		}
	})
	q.timers[timer] = struct{}{}
	return nil
}

// Consume delivers ready jobs until ctx is cancelled
func (q *MemoryQueue) Consume(ctx context.Context, _ int) (<-chan *Message, <-chan error, error) {
	msgChan := make(chan *Message)
	errChan := make(chan error)
	go func() {
		defer close(msgChan)
		defer close(errChan)
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-q.ready:
				if job.IsExpired() {
					continue
				}
				q.mu.Lock()
				q.nextTag++
				tag := q.nextTag
				q.flight[tag] = job
				q.mu.Unlock()
				msg := &Message{Job: job, DeliveryTag: tag, Acker: memoryAcker{q}}
				select {
				case msgChan <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return msgChan, errChan, nil
}

// Acked reports whether the delivery with tag was acknowledged
func (q *MemoryQueue) Acked(tag uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.acks[tag]
}

// Pending returns the number of jobs waiting on timers
func (q *MemoryQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

// HealthCheck implements JobQueue
func (q *MemoryQueue) HealthCheck(context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errQueueClosed
	}
	return nil
}

// Close stops pending timers
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for t := range q.timers {
		t.Stop()
	}
	q.timers = map[*time.Timer]struct{}{}
	return nil
}

type memoryAcker struct{ q *MemoryQueue }

func (a memoryAcker) Ack(tag uint64, _ bool) error {
	a.q.mu.Lock()
	defer a.q.mu.Unlock()
	a.q.acks[tag] = true
	delete(a.q.flight, tag)
	return nil
}

func (a memoryAcker) Nack(tag uint64, _ bool, requeue bool) error {
	a.q.mu.Lock()
	job := a.q.flight[tag]
	delete(a.q.flight, tag)
	closed := a.q.closed
	a.q.mu.Unlock()
	if !requeue || job == nil || closed {
		return nil
	}
	select {
	case a.q.ready <- job:
		return nil
	default:
		return errors.New("memory queue full")
	}
}

func (a memoryAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}
