// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/service"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	queryEngine *service.QueryEngine
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(
	taskService service.TaskService,
	queryEngine *service.QueryEngine,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		queryEngine: queryEngine,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), actor, service.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", actor.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// GetTask handles GET /tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), actor, taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PATCH /tasks/{id} requests.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, taskID, ok := requireActorAndTaskID(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), actor, taskID, req.Version, domain.TaskPatch{
		OwnerID:      req.OwnerID,
		AssigneeID:   req.AssigneeID,
		Title:        req.Title,
		Description:  req.Description,
		Complete:     req.Complete,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task updated",
		slog.String("task_id", taskID.String()),
		slog.Int64("version", task.Version))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /tasks/{id} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, taskID, ok := requireActorAndTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), actor, taskID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task deleted", slog.String("task_id", taskID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListTasks handles GET /tasks requests. Filtering, search, ordering and
// pagination are controlled through query parameters; results are always
// scoped to the authenticated user's own tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	opts, err := parseQueryOptions(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	result, err := h.queryEngine.Query(r.Context(), actor, opts)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	tasks := make([]TaskResponse, len(result.Tasks))
	for i, task := range result.Tasks {
		tasks[i] = taskToResponse(task)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{
		Tasks:      tasks,
		Total:      result.Total,
		Incomplete: result.Incomplete,
		Offset:     opts.Offset,
		Limit:      opts.Limit,
	})
}

// parseQueryOptions translates URL query parameters into QueryOptions.
func parseQueryOptions(r *http.Request) (service.QueryOptions, error) {
	var opts service.QueryOptions
	q := r.URL.Query()

	opts.Search = q.Get("search")
	opts.Ordering = service.Ordering(q.Get("ordering"))

	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return opts, domain.NewValidationError("completed", "must be a boolean", domain.ErrValidation)
		}
		opts.Filters.Completed = &completed
	}
	if v := q.Get("priority"); v != "" {
		priority, err := strconv.Atoi(v)
		if err != nil {
			return opts, domain.NewValidationError("priority", "must be an integer", domain.ErrValidation)
		}
		opts.Filters.Priority = &priority
	}
	if v := q.Get("due_before"); v != "" {
		due, err := parseQueryTime(v)
		if err != nil {
			return opts, domain.NewValidationError("due_before", "must be a timestamp", domain.ErrValidation)
		}
		opts.Filters.DueBefore = &due
	}
	if v := q.Get("due_after"); v != "" {
		due, err := parseQueryTime(v)
		if err != nil {
			return opts, domain.NewValidationError("due_after", "must be a timestamp", domain.ErrValidation)
		}
		opts.Filters.DueAfter = &due
	}
	if v := q.Get("tag"); v != "" {
		tagID, err := uuid.Parse(v)
		if err != nil {
			return opts, domain.NewValidationError("tag", "has invalid format", domain.ErrInvalidID)
		}
		opts.Filters.TagID = &tagID
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return opts, domain.NewValidationError("offset", "must be a non-negative integer", domain.ErrValidation)
		}
		opts.Offset = offset
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return opts, domain.NewValidationError("limit", "must be a non-negative integer", domain.ErrValidation)
		}
		opts.Limit = limit
	}

	return opts, nil
}

// parseQueryTime accepts RFC 3339 timestamps and bare dates.
func parseQueryTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
