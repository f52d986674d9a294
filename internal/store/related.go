package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// TagStore defines the interface for tag persistence. Tags live
// independently of the tasks that reference them.
type TagStore interface {
	// Create saves a new tag. Returns ErrDuplicate if a tag with the same
	// name already exists.
	Create(ctx context.Context, tag *domain.Tag) error

	// GetByID retrieves a tag by ID. Returns ErrTagNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error)

	// Delete removes a tag and any task links pointing at it.
	// Returns ErrTagNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a TagStore that runs its operations within the
	// given transaction.
	WithTx(tx *sql.Tx) TagStore
}

// CommentStore defines the interface for comment persistence.
type CommentStore interface {
	// Create saves a new comment.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment by ID. Returns ErrCommentNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)

	// Delete removes a comment and any task links pointing at it.
	// Returns ErrCommentNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a CommentStore that runs its operations within the
	// given transaction.
	WithTx(tx *sql.Tx) CommentStore
}

// AttachmentStore defines the interface for attachment metadata persistence.
type AttachmentStore interface {
	// Create saves a new attachment record.
	Create(ctx context.Context, attachment *domain.Attachment) error

	// GetByID retrieves an attachment by ID. Returns ErrAttachmentNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)

	// Delete removes an attachment record and any task links pointing at it.
	// Returns ErrAttachmentNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns an AttachmentStore that runs its operations within
	// the given transaction.
	WithTx(tx *sql.Tx) AttachmentStore
}
