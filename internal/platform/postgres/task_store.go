package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx returns a new store bound to the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, owner_id, assignee_id, title, description, complete,
			priority, due_date, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.AssigneeID,
		task.Title,
		nullString(task.Description),
		task.Complete,
		task.Priority,
		nullTime(task.DueDate),
		task.CreatedAt,
		task.UpdatedAt,
		task.Version,
	)
	if err != nil {
		s.logger.Error("failed to create task",
			"task_id", task.ID,
			"error", err)
		return MapError(err)
	}

	if err := s.syncLinks(ctx, task); err != nil {
		return err
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, owner_id, assignee_id, title, description, complete,
			priority, due_date, created_at, updated_at, version
		FROM tasks
		WHERE id = $1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		s.logger.Error("failed to get task", "task_id", id, "error", err)
		return nil, MapError(err)
	}

	if err := s.loadLinks(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Update implements store.TaskStore.Update. The task's Version field must
// hold the version the caller read; the row is only written when that
// version still matches, which serializes conflicting read-modify-write
// cycles without a global lock.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET assignee_id = $1, title = $2, description = $3, complete = $4,
			priority = $5, due_date = $6, updated_at = $7, version = version + 1
		WHERE id = $8 AND version = $9
	`

	result, err := s.db.ExecContext(ctx, query,
		task.AssigneeID,
		task.Title,
		nullString(task.Description),
		task.Complete,
		task.Priority,
		nullTime(task.DueDate),
		time.Now().UTC(),
		task.ID,
		task.Version,
	)
	if err != nil {
		s.logger.Error("failed to update task", "task_id", task.ID, "error", err)
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Either the task is gone or another writer bumped the version.
		var current int64
		err := s.db.QueryRowContext(ctx,
			`SELECT version FROM tasks WHERE id = $1`, task.ID).Scan(&current)
		if err != nil {
			if store.IsNotFoundError(MapError(err)) {
				return store.ErrTaskNotFound
			}
			return MapError(err)
		}
		s.logger.Debug("task update lost version race",
			"task_id", task.ID,
			"expected_version", task.Version,
			"current_version", current)
		return store.ErrConflict
	}

	if err := s.syncLinks(ctx, task); err != nil {
		return err
	}

	task.Version++
	return nil
}

// Delete implements store.TaskStore.Delete. Association links are removed by
// ON DELETE CASCADE on the join tables; the linked entities survive.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		s.logger.Error("failed to delete task", "task_id", id, "error", err)
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// ListByOwner implements store.TaskStore.ListByOwner.
func (s *PostgresTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	query := `
		SELECT id, owner_id, assignee_id, title, description, complete,
			priority, due_date, created_at, updated_at, version
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		s.logger.Error("failed to list tasks by owner", "owner_id", ownerID, "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	for _, task := range tasks {
		if err := s.loadLinks(ctx, task); err != nil {
			return nil, err
		}
	}

	return tasks, nil
}

// ListDueBefore implements store.TaskStore.ListDueBefore. Association sets
// are not loaded; the scanner only needs the core fields.
func (s *PostgresTaskStore) ListDueBefore(ctx context.Context, cutoff time.Time) ([]*domain.Task, error) {
	query := `
		SELECT id, owner_id, assignee_id, title, description, complete,
			priority, due_date, created_at, updated_at, version
		FROM tasks
		WHERE complete = FALSE AND due_date IS NOT NULL AND due_date <= $1
		ORDER BY due_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		s.logger.Error("failed to list due tasks", "cutoff", cutoff, "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row into a domain.Task.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var description sql.NullString
	var dueDate sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.AssigneeID,
		&task.Title,
		&description,
		&task.Complete,
		&task.Priority,
		&dueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.Version,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	if dueDate.Valid {
		due := dueDate.Time
		task.DueDate = &due
	}

	return &task, nil
}

// linkTables maps each association to its join table and entity column.
var linkTables = []struct {
	table  string
	column string
	ids    func(*domain.Task) *[]uuid.UUID
}{
	{"task_tags", "tag_id", func(t *domain.Task) *[]uuid.UUID { return &t.TagIDs }},
	{"task_comments", "comment_id", func(t *domain.Task) *[]uuid.UUID { return &t.CommentIDs }},
	{"task_attachments", "attachment_id", func(t *domain.Task) *[]uuid.UUID { return &t.AttachmentIDs }},
}

// syncLinks rewrites the task's join-table rows to match its ID sets.
func (s *PostgresTaskStore) syncLinks(ctx context.Context, task *domain.Task) error {
	for _, link := range linkTables {
		deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE task_id = $1`, link.table)
		if _, err := s.db.ExecContext(ctx, deleteQuery, task.ID); err != nil {
			s.logger.Error("failed to clear task links",
				"task_id", task.ID,
				"table", link.table,
				"error", err)
			return MapError(err)
		}

		insertQuery := fmt.Sprintf(
			`INSERT INTO %s (task_id, %s) VALUES ($1, $2)`, link.table, link.column)
		for _, id := range *link.ids(task) {
			if _, err := s.db.ExecContext(ctx, insertQuery, task.ID, id); err != nil {
				s.logger.Error("failed to insert task link",
					"task_id", task.ID,
					"table", link.table,
					"linked_id", id,
					"error", err)
				return MapError(err)
			}
		}
	}
	return nil
}

// loadLinks populates the task's association ID sets from the join tables.
func (s *PostgresTaskStore) loadLinks(ctx context.Context, task *domain.Task) error {
	for _, link := range linkTables {
		query := fmt.Sprintf(
			`SELECT %s FROM %s WHERE task_id = $1`, link.column, link.table)
		rows, err := s.db.QueryContext(ctx, query, task.ID)
		if err != nil {
			return MapError(err)
		}

		var ids []uuid.UUID
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				_ = rows.Close()
				return fmt.Errorf("failed to scan link row: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return fmt.Errorf("error iterating link rows: %w", err)
		}
		_ = rows.Close()

		*link.ids(task) = ids
	}
	return nil
}

// nullString converts an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTime converts a nil time pointer to SQL NULL.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
