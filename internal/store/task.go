// Package store defines the persistence interfaces for tasks, their related
// entities and the reminder queue, together with the sentinel errors the
// implementations report. The Postgres implementations live in
// internal/platform/postgres.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
// Implementations enforce optimistic concurrency: Update compares the
// task's Version against the stored row and fails with ErrConflict when
// another writer got there first. Identity policy is deliberately not
// enforced here; callers consult the authz package first.
type TaskStore interface {
	// Create saves a new task to the store, including its tag, comment and
	// attachment links. Returns validation errors if the task is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID, with its association ID sets
	// populated. Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update saves changes to an existing task and bumps its version.
	// The task's Version field must hold the version the caller read;
	// Update returns ErrConflict if the stored version differs, and
	// ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task and its association links. Linked tags, comments
	// and attachments are left in place. Returns ErrTaskNotFound if the task
	// does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByOwner retrieves all tasks owned by the given user, association
	// sets populated. Returns an empty slice when the owner has no tasks.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// ListDueBefore retrieves incomplete tasks whose due date falls at or
	// before the cutoff. Tasks without a due date are never returned. This
	// is the reminder scanner's read path; association sets are not loaded.
	ListDueBefore(ctx context.Context, cutoff time.Time) ([]*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) TaskStore
}
