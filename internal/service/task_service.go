package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/authz"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// ReminderCleanup is the slice of the reminder queue the task service needs:
// dropping pending reminder jobs when their task is deleted.
type ReminderCleanup interface {
	RemoveForTask(ctx context.Context, taskID uuid.UUID) error
}

// CreateTaskParams carries the caller-supplied fields for a new task.
// The acting user always becomes the owner; the assignee defaults to the
// owner unless set explicitly.
type CreateTaskParams struct {
	Title       string
	Description string
	Priority    *int
	DueDate     *time.Time
	AssigneeID  *uuid.UUID
}

// TaskService provides task CRUD operations with access control enforced
// on every read and mutation.
type TaskService interface {
	// CreateTask creates a new task owned by the acting user.
	CreateTask(ctx context.Context, actor uuid.UUID, params CreateTaskParams) (*domain.Task, error)

	// GetTask retrieves a task if the acting user may read it.
	GetTask(ctx context.Context, actor uuid.UUID, taskID uuid.UUID) (*domain.Task, error)

	// UpdateTask applies a patch to a task if the acting user may update it.
	// Returns ErrConflict when the task changed since expectedVersion.
	UpdateTask(
		ctx context.Context,
		actor uuid.UUID,
		taskID uuid.UUID,
		expectedVersion int64,
		patch domain.TaskPatch,
	) (*domain.Task, error)

	// DeleteTask removes a task if the acting user owns it, and drops any
	// pending reminder jobs for it.
	DeleteTask(ctx context.Context, actor uuid.UUID, taskID uuid.UUID) error
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	tasks     store.TaskStore
	reminders ReminderCleanup
	logger    *slog.Logger
}

var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	reminders ReminderCleanup,
	log *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if reminders == nil {
		return nil, fmt.Errorf("reminder cleanup cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &taskServiceImpl{
		tasks:     tasks,
		reminders: reminders,
		logger:    log.With("component", "task_service"),
	}, nil
}

func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	actor uuid.UUID,
	params CreateTaskParams,
) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	task, err := domain.NewTask(actor, params.Title, params.Description)
	if err != nil {
		return nil, NewTaskServiceError("create_task", "invalid task", err)
	}

	patch := domain.TaskPatch{
		Priority:   params.Priority,
		DueDate:    params.DueDate,
		AssigneeID: params.AssigneeID,
	}
	if err := task.Apply(patch); err != nil {
		return nil, NewTaskServiceError("create_task", "invalid task fields", err)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task", "error", err, "owner_id", actor)
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Debug("task created", "task_id", task.ID, "owner_id", task.OwnerID)
	return task, nil
}

func (s *taskServiceImpl) GetTask(
	ctx context.Context,
	actor uuid.UUID,
	taskID uuid.UUID,
) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, NewTaskServiceError("get_task", "failed to load task", err)
	}

	if !authz.CanPerform(actor, task, authz.ActionRead) {
		return nil, ErrPermissionDenied
	}

	return task, nil
}

func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	actor uuid.UUID,
	taskID uuid.UUID,
	expectedVersion int64,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, NewTaskServiceError("update_task", "failed to load task", err)
	}

	if !authz.CanPerform(actor, task, authz.ActionUpdate) {
		return nil, ErrPermissionDenied
	}

	// Reassignment is reserved to the owner; an assignee may update the
	// task's contents but not hand it to someone else.
	if patch.AssigneeID != nil && actor != task.OwnerID {
		return nil, ErrPermissionDenied
	}

	// The caller may pin the version it last read; a mismatch fails fast
	// before touching the database. The store's optimistic check guards the
	// write either way.
	if expectedVersion > 0 && task.Version != expectedVersion {
		return nil, ErrConflict
	}

	if err := task.Apply(patch); err != nil {
		return nil, NewTaskServiceError("update_task", "invalid patch", err)
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, NewTaskServiceError("update_task", "failed to save task", err)
	}

	log.Debug("task updated", "task_id", task.ID, "version", task.Version)
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(
	ctx context.Context,
	actor uuid.UUID,
	taskID uuid.UUID,
) error {
	log := logger.FromContext(ctx)

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return NewTaskServiceError("delete_task", "failed to load task", err)
	}

	if !authz.CanPerform(actor, task, authz.ActionDelete) {
		return ErrPermissionDenied
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	// Pending reminders for a deleted task must not fire. A failure here is
	// logged rather than returned: the delete itself already succeeded, and
	// the worker tolerates jobs whose task has vanished.
	if err := s.reminders.RemoveForTask(ctx, taskID); err != nil {
		log.Warn("failed to remove pending reminders for deleted task",
			"error", err,
			"task_id", taskID)
	}

	log.Debug("task deleted", "task_id", taskID, "actor_id", actor)
	return nil
}
