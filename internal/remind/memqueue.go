package remind

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memJob is a queue entry plus its lease bookkeeping.
type memJob struct {
	job          Job
	status       string
	leaseToken   uuid.UUID
	leaseExpires time.Time
}

// MemoryQueue is an in-memory Queue used by tests and local development.
// It implements the full lease/redelivery/dead-letter protocol but does not
// survive process restart; production wiring uses the Postgres-backed queue.
type MemoryQueue struct {
	mu          sync.Mutex
	jobs        map[string]*memJob // keyed by dedup key
	dead        []DeadJob
	maxAttempts int
	now         func() time.Time
}

// NewMemoryQueue creates a MemoryQueue that dead-letters jobs after
// maxAttempts failed deliveries.
func NewMemoryQueue(maxAttempts int) *MemoryQueue {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &MemoryQueue{
		jobs:        make(map[string]*memJob),
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

var _ Queue = (*MemoryQueue)(nil)

// EnqueueIfAbsent implements Queue.EnqueueIfAbsent.
func (q *MemoryQueue) EnqueueIfAbsent(ctx context.Context, job Job) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.jobs[job.DedupKey]; exists {
		return false, nil
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = q.now()
	}
	job.Attempts = 0

	q.jobs[job.DedupKey] = &memJob{
		job:    job,
		status: JobStatusPending,
	}
	return true, nil
}

// Lease implements Queue.Lease. Pending jobs are handed out FIFO by enqueue
// time; ordering between independent tasks carries no correctness weight.
func (q *MemoryQueue) Lease(ctx context.Context, leaseDuration time.Duration) (*Job, uuid.UUID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var oldest *memJob
	for _, entry := range q.jobs {
		if entry.status != JobStatusPending {
			continue
		}
		if oldest == nil || entry.job.EnqueuedAt.Before(oldest.job.EnqueuedAt) {
			oldest = entry
		}
	}
	if oldest == nil {
		return nil, uuid.Nil, ErrQueueEmpty
	}

	oldest.status = JobStatusLeased
	oldest.leaseToken = uuid.New()
	oldest.leaseExpires = q.now().Add(leaseDuration)
	oldest.job.Attempts++

	leased := oldest.job
	return &leased, oldest.leaseToken, nil
}

// Ack implements Queue.Ack.
func (q *MemoryQueue) Ack(ctx context.Context, token uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry := q.findLeased(token)
	if entry == nil {
		return ErrLeaseNotFound
	}
	delete(q.jobs, entry.job.DedupKey)
	return nil
}

// Nack implements Queue.Nack.
func (q *MemoryQueue) Nack(ctx context.Context, token uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry := q.findLeased(token)
	if entry == nil {
		return ErrLeaseNotFound
	}
	q.release(entry, "retries exhausted")
	return nil
}

// MarkDead implements Queue.MarkDead.
func (q *MemoryQueue) MarkDead(ctx context.Context, token uuid.UUID, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry := q.findLeased(token)
	if entry == nil {
		return ErrLeaseNotFound
	}
	q.bury(entry, reason)
	return nil
}

// ReapExpired implements Queue.ReapExpired.
func (q *MemoryQueue) ReapExpired(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	reaped := 0
	for _, entry := range q.jobs {
		if entry.status != JobStatusLeased || entry.leaseExpires.After(now) {
			continue
		}
		q.release(entry, "lease expired after max attempts")
		reaped++
	}
	return reaped, nil
}

// DeadJobs implements Queue.DeadJobs.
func (q *MemoryQueue) DeadJobs(ctx context.Context) ([]DeadJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	dead := make([]DeadJob, len(q.dead))
	copy(dead, q.dead)
	return dead, nil
}

// RemoveForTask implements Queue.RemoveForTask.
func (q *MemoryQueue) RemoveForTask(ctx context.Context, taskID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for key, entry := range q.jobs {
		if entry.job.TaskID == taskID && entry.status == JobStatusPending {
			delete(q.jobs, key)
		}
	}
	return nil
}

// findLeased returns the entry holding the given lease token, or nil.
// Callers must hold q.mu.
func (q *MemoryQueue) findLeased(token uuid.UUID) *memJob {
	for _, entry := range q.jobs {
		if entry.status == JobStatusLeased && entry.leaseToken == token {
			return entry
		}
	}
	return nil
}

// release returns a leased entry to pending, or buries it when attempts are
// exhausted. Callers must hold q.mu.
func (q *MemoryQueue) release(entry *memJob, exhaustedReason string) {
	if entry.job.Attempts >= q.maxAttempts {
		q.bury(entry, exhaustedReason)
		return
	}
	entry.status = JobStatusPending
	entry.leaseToken = uuid.Nil
	entry.leaseExpires = time.Time{}
}

// bury moves an entry to the dead list. Callers must hold q.mu.
func (q *MemoryQueue) bury(entry *memJob, reason string) {
	q.dead = append(q.dead, DeadJob{
		Job:    entry.job,
		Reason: reason,
		DiedAt: q.now(),
	})
	delete(q.jobs, entry.job.DedupKey)
}
