package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// PostgresTagStore implements store.TagStore.
type PostgresTagStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTagStore creates a new PostgreSQL implementation of the TagStore interface.
func NewPostgresTagStore(db store.DBTX, logger *slog.Logger) *PostgresTagStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTagStore{
		db:     db,
		logger: logger.With(slog.String("component", "tag_store")),
	}
}

var _ store.TagStore = (*PostgresTagStore)(nil)

// WithTx implements store.TagStore.WithTx.
func (s *PostgresTagStore) WithTx(tx *sql.Tx) store.TagStore {
	return &PostgresTagStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TagStore.Create.
func (s *PostgresTagStore) Create(ctx context.Context, tag *domain.Tag) error {
	if err := tag.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (id, name) VALUES ($1, $2)`, tag.ID, tag.Name)
	if err != nil {
		s.logger.Error("failed to create tag", "tag_id", tag.ID, "error", err)
		return MapError(err)
	}
	return nil
}

// GetByID implements store.TagStore.GetByID.
func (s *PostgresTagStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	var tag domain.Tag
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM tags WHERE id = $1`, id).Scan(&tag.ID, &tag.Name)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTagNotFound
		}
		return nil, MapError(err)
	}
	return &tag, nil
}

// Delete implements store.TagStore.Delete. Task links are removed by
// ON DELETE CASCADE on the join table.
func (s *PostgresTagStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrTagNotFound
	}
	return nil
}

// PostgresCommentStore implements store.CommentStore.
type PostgresCommentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCommentStore creates a new PostgreSQL implementation of the CommentStore interface.
func NewPostgresCommentStore(db store.DBTX, logger *slog.Logger) *PostgresCommentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCommentStore{
		db:     db,
		logger: logger.With(slog.String("component", "comment_store")),
	}
}

var _ store.CommentStore = (*PostgresCommentStore)(nil)

// WithTx implements store.CommentStore.WithTx.
func (s *PostgresCommentStore) WithTx(tx *sql.Tx) store.CommentStore {
	return &PostgresCommentStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.CommentStore.Create.
func (s *PostgresCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	if err := comment.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (id, text, created_at) VALUES ($1, $2, $3)`,
		comment.ID, comment.Text, comment.CreatedAt)
	if err != nil {
		s.logger.Error("failed to create comment", "comment_id", comment.ID, "error", err)
		return MapError(err)
	}
	return nil
}

// GetByID implements store.CommentStore.GetByID.
func (s *PostgresCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, created_at FROM comments WHERE id = $1`, id).
		Scan(&comment.ID, &comment.Text, &comment.CreatedAt)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrCommentNotFound
		}
		return nil, MapError(err)
	}
	return &comment, nil
}

// Delete implements store.CommentStore.Delete.
func (s *PostgresCommentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrCommentNotFound
	}
	return nil
}

// PostgresAttachmentStore implements store.AttachmentStore.
type PostgresAttachmentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAttachmentStore creates a new PostgreSQL implementation of the AttachmentStore interface.
func NewPostgresAttachmentStore(db store.DBTX, logger *slog.Logger) *PostgresAttachmentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAttachmentStore{
		db:     db,
		logger: logger.With(slog.String("component", "attachment_store")),
	}
}

var _ store.AttachmentStore = (*PostgresAttachmentStore)(nil)

// WithTx implements store.AttachmentStore.WithTx.
func (s *PostgresAttachmentStore) WithTx(tx *sql.Tx) store.AttachmentStore {
	return &PostgresAttachmentStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.AttachmentStore.Create.
func (s *PostgresAttachmentStore) Create(ctx context.Context, attachment *domain.Attachment) error {
	if err := attachment.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attachments (id, path) VALUES ($1, $2)`,
		attachment.ID, attachment.Path)
	if err != nil {
		s.logger.Error("failed to create attachment", "attachment_id", attachment.ID, "error", err)
		return MapError(err)
	}
	return nil
}

// GetByID implements store.AttachmentStore.GetByID.
func (s *PostgresAttachmentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var attachment domain.Attachment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, path FROM attachments WHERE id = $1`, id).
		Scan(&attachment.ID, &attachment.Path)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrAttachmentNotFound
		}
		return nil, MapError(err)
	}
	return &attachment, nil
}

// Delete implements store.AttachmentStore.Delete.
func (s *PostgresAttachmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrAttachmentNotFound
	}
	return nil
}
