package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/remind"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// PostgresReminderQueue implements remind.Queue on top of a reminder_jobs
// table, so queue state survives process restarts. Leasing uses
// FOR UPDATE SKIP LOCKED so concurrent workers never claim the same job,
// and the dedup key is enforced by a partial unique index over jobs that
// are pending or leased.
type PostgresReminderQueue struct {
	db          store.DBTX
	maxAttempts int
	logger      *slog.Logger
}

// NewPostgresReminderQueue creates a queue that dead-letters jobs after
// maxAttempts failed deliveries.
func NewPostgresReminderQueue(db store.DBTX, maxAttempts int, logger *slog.Logger) *PostgresReminderQueue {
	if db == nil {
		panic("db cannot be nil")
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReminderQueue{
		db:          db,
		maxAttempts: maxAttempts,
		logger:      logger.With(slog.String("component", "reminder_queue")),
	}
}

// Ensure PostgresReminderQueue implements remind.Queue
var _ remind.Queue = (*PostgresReminderQueue)(nil)

// EnqueueIfAbsent implements remind.Queue.EnqueueIfAbsent. The conflict
// target is the partial unique index over active (pending or leased) jobs,
// so a dead job with the same key never blocks a fresh reminder.
func (q *PostgresReminderQueue) EnqueueIfAbsent(ctx context.Context, job remind.Job) (bool, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO reminder_jobs (id, dedup_key, task_id, recipient, subject, body,
			status, attempts, enqueued_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', 0, $7)
		ON CONFLICT (dedup_key) WHERE status IN ('pending', 'leased') DO NOTHING
	`

	result, err := q.db.ExecContext(ctx, query,
		job.ID,
		job.DedupKey,
		job.TaskID,
		job.Recipient,
		job.Subject,
		job.Body,
		job.EnqueuedAt,
	)
	if err != nil {
		q.logger.Error("failed to enqueue reminder job",
			"dedup_key", job.DedupKey,
			"error", err)
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// Lease implements remind.Queue.Lease. The inner SELECT with
// FOR UPDATE SKIP LOCKED makes the claim atomic across workers.
func (q *PostgresReminderQueue) Lease(ctx context.Context, leaseDuration time.Duration) (*remind.Job, uuid.UUID, error) {
	token := uuid.New()

	query := `
		UPDATE reminder_jobs
		SET status = 'leased', lease_token = $1, lease_expires_at = $2,
			attempts = attempts + 1
		WHERE id = (
			SELECT id FROM reminder_jobs
			WHERE status = 'pending'
			ORDER BY enqueued_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, dedup_key, task_id, recipient, subject, body, enqueued_at, attempts
	`

	var job remind.Job
	err := q.db.QueryRowContext(ctx, query, token, time.Now().UTC().Add(leaseDuration)).Scan(
		&job.ID,
		&job.DedupKey,
		&job.TaskID,
		&job.Recipient,
		&job.Subject,
		&job.Body,
		&job.EnqueuedAt,
		&job.Attempts,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, uuid.Nil, remind.ErrQueueEmpty
		}
		q.logger.Error("failed to lease reminder job", "error", err)
		return nil, uuid.Nil, MapError(err)
	}

	return &job, token, nil
}

// Ack implements remind.Queue.Ack.
func (q *PostgresReminderQueue) Ack(ctx context.Context, token uuid.UUID) error {
	result, err := q.db.ExecContext(ctx,
		`DELETE FROM reminder_jobs WHERE lease_token = $1 AND status = 'leased'`, token)
	if err != nil {
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return remind.ErrLeaseNotFound
	}
	return nil
}

// Nack implements remind.Queue.Nack. The job returns to pending for
// immediate redelivery, or moves to dead when attempts are exhausted.
func (q *PostgresReminderQueue) Nack(ctx context.Context, token uuid.UUID) error {
	query := `
		UPDATE reminder_jobs
		SET status = CASE WHEN attempts >= $2 THEN 'dead' ELSE 'pending' END,
			dead_reason = CASE WHEN attempts >= $2 THEN 'retries exhausted' ELSE NULL END,
			died_at = CASE WHEN attempts >= $2 THEN $3 ELSE NULL END,
			lease_token = NULL, lease_expires_at = NULL
		WHERE lease_token = $1 AND status = 'leased'
	`

	result, err := q.db.ExecContext(ctx, query, token, q.maxAttempts, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return remind.ErrLeaseNotFound
	}
	return nil
}

// MarkDead implements remind.Queue.MarkDead.
func (q *PostgresReminderQueue) MarkDead(ctx context.Context, token uuid.UUID, reason string) error {
	query := `
		UPDATE reminder_jobs
		SET status = 'dead', dead_reason = $2, died_at = $3,
			lease_token = NULL, lease_expires_at = NULL
		WHERE lease_token = $1 AND status = 'leased'
	`

	result, err := q.db.ExecContext(ctx, query, token, reason, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return remind.ErrLeaseNotFound
	}
	return nil
}

// ReapExpired implements remind.Queue.ReapExpired.
func (q *PostgresReminderQueue) ReapExpired(ctx context.Context) (int, error) {
	query := `
		UPDATE reminder_jobs
		SET status = CASE WHEN attempts >= $1 THEN 'dead' ELSE 'pending' END,
			dead_reason = CASE WHEN attempts >= $1 THEN 'lease expired after max attempts' ELSE NULL END,
			died_at = CASE WHEN attempts >= $1 THEN $2 ELSE NULL END,
			lease_token = NULL, lease_expires_at = NULL
		WHERE status = 'leased' AND lease_expires_at <= $2
	`

	now := time.Now().UTC()
	result, err := q.db.ExecContext(ctx, query, q.maxAttempts, now)
	if err != nil {
		return 0, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

// DeadJobs implements remind.Queue.DeadJobs.
func (q *PostgresReminderQueue) DeadJobs(ctx context.Context) ([]remind.DeadJob, error) {
	query := `
		SELECT id, dedup_key, task_id, recipient, subject, body, enqueued_at,
			attempts, dead_reason, died_at
		FROM reminder_jobs
		WHERE status = 'dead'
		ORDER BY died_at ASC
	`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var dead []remind.DeadJob
	for rows.Next() {
		var entry remind.DeadJob
		var reason sql.NullString
		var diedAt sql.NullTime

		err := rows.Scan(
			&entry.Job.ID,
			&entry.Job.DedupKey,
			&entry.Job.TaskID,
			&entry.Job.Recipient,
			&entry.Job.Subject,
			&entry.Job.Body,
			&entry.Job.EnqueuedAt,
			&entry.Job.Attempts,
			&reason,
			&diedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dead job row: %w", err)
		}

		entry.Reason = reason.String
		entry.DiedAt = diedAt.Time
		dead = append(dead, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dead job rows: %w", err)
	}

	return dead, nil
}

// RemoveForTask implements remind.Queue.RemoveForTask. Leased jobs are left
// to run out their lease; the accepted staleness window for a deleted task.
func (q *PostgresReminderQueue) RemoveForTask(ctx context.Context, taskID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM reminder_jobs WHERE task_id = $1 AND status = 'pending'`, taskID)
	if err != nil {
		q.logger.Error("failed to remove pending reminders for task",
			"task_id", taskID,
			"error", err)
		return MapError(err)
	}
	return nil
}
