// Package remind implements the asynchronous reminder pipeline: a periodic
// scanner that finds tasks approaching their due date, a durable
// at-least-once queue of reminder jobs, and a worker pool that delivers
// them through a Notifier.
package remind

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job statuses inside the queue.
const (
	JobStatusPending string = "pending"
	JobStatusLeased  string = "leased"
	JobStatusDead    string = "dead"
)

// Common errors returned by Queue implementations.
var (
	// ErrQueueEmpty is returned by Lease when no pending job is available.
	ErrQueueEmpty = errors.New("no pending jobs")

	// ErrLeaseNotFound is returned by Ack, Nack and MarkDead when the lease
	// token does not match a currently leased job. This happens when the
	// reaper already expired the lease; the job will be redelivered, so the
	// caller must not treat its own work as lost.
	ErrLeaseNotFound = errors.New("lease not found or expired")
)

// Job is a reminder delivery request. Jobs are ephemeral derivatives of
// tasks, keyed for deduplication by (task ID, due date) so that re-scanning
// an already-enqueued task never produces a second in-flight job.
type Job struct {
	ID         uuid.UUID `json:"id"`
	DedupKey   string    `json:"dedup_key"`
	TaskID     uuid.UUID `json:"task_id"`
	Recipient  uuid.UUID `json:"recipient"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	// Attempts is the number of times the job has been leased, including
	// the lease currently held.
	Attempts int `json:"attempts"`
}

// DeadJob is a job that exhausted its attempts or failed permanently,
// held for operator inspection and never retried automatically.
type DeadJob struct {
	Job    Job       `json:"job"`
	Reason string    `json:"reason"`
	DiedAt time.Time `json:"died_at"`
}

// DedupKey builds the deduplication key for a task's reminder. The due date
// participates so that a rescheduled task earns a fresh reminder.
func DedupKey(taskID uuid.UUID, due time.Time) string {
	return fmt.Sprintf("%s@%s", taskID, due.UTC().Format(time.RFC3339))
}

// Queue is a durable at-least-once delivery channel between the scanner and
// the worker pool. Implementations must make Lease atomic across concurrent
// workers: a job is leased to exactly one worker at a time.
type Queue interface {
	// EnqueueIfAbsent adds the job unless a job with the same dedup key is
	// already pending or leased. Returns true when the job was added.
	// A dead job with the same key does not block a fresh enqueue.
	EnqueueIfAbsent(ctx context.Context, job Job) (bool, error)

	// Lease claims the oldest pending job for leaseDuration and returns it
	// with an opaque lease token. Returns ErrQueueEmpty when nothing is
	// pending. The job's attempt counter is incremented by the claim.
	Lease(ctx context.Context, leaseDuration time.Duration) (*Job, uuid.UUID, error)

	// Ack completes a leased job, removing it from the queue.
	Ack(ctx context.Context, token uuid.UUID) error

	// Nack returns a leased job for immediate redelivery, or moves it to
	// the dead list when its attempts are exhausted.
	Nack(ctx context.Context, token uuid.UUID) error

	// MarkDead moves a leased job straight to the dead list, bypassing
	// remaining retries. Used for permanent delivery failures.
	MarkDead(ctx context.Context, token uuid.UUID, reason string) error

	// ReapExpired returns every job whose lease has expired to the pending
	// state (or the dead list when attempts are exhausted) and reports how
	// many jobs were affected. Drives crash recovery: a worker that died
	// mid-delivery loses its lease and the job is redelivered.
	ReapExpired(ctx context.Context) (int, error)

	// DeadJobs lists dead-lettered jobs for operator inspection.
	DeadJobs(ctx context.Context) ([]DeadJob, error)

	// RemoveForTask drops pending jobs for the given task. Leased jobs are
	// left alone and may still fire once; that staleness window is accepted.
	// Called when a task is deleted.
	RemoveForTask(ctx context.Context, taskID uuid.UUID) error
}
