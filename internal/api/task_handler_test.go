package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

// stubTaskService returns canned responses for handler tests.
type stubTaskService struct {
	task *domain.Task
	err  error

	deletedID uuid.UUID
}

var _ service.TaskService = (*stubTaskService)(nil)

func (s *stubTaskService) CreateTask(ctx context.Context, actor uuid.UUID, params service.CreateTaskParams) (*domain.Task, error) {
	return s.task, s.err
}

func (s *stubTaskService) GetTask(ctx context.Context, actor uuid.UUID, taskID uuid.UUID) (*domain.Task, error) {
	return s.task, s.err
}

func (s *stubTaskService) UpdateTask(ctx context.Context, actor uuid.UUID, taskID uuid.UUID, expectedVersion int64, patch domain.TaskPatch) (*domain.Task, error) {
	return s.task, s.err
}

func (s *stubTaskService) DeleteTask(ctx context.Context, actor uuid.UUID, taskID uuid.UUID) error {
	s.deletedID = taskID
	return s.err
}

// stubTaskStore backs the query engine in list tests.
type stubTaskStore struct {
	tasks []*domain.Task
	err   error
}

var _ store.TaskStore = (*stubTaskStore)(nil)

func (s *stubTaskStore) Create(ctx context.Context, task *domain.Task) error  { return nil }
func (s *stubTaskStore) Update(ctx context.Context, task *domain.Task) error  { return nil }
func (s *stubTaskStore) Delete(ctx context.Context, id uuid.UUID) error       { return nil }
func (s *stubTaskStore) WithTx(tx *sql.Tx) store.TaskStore                    { return s }
func (s *stubTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return nil, store.ErrTaskNotFound
}

func (s *stubTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	return s.tasks, s.err
}

func (s *stubTaskStore) ListDueBefore(ctx context.Context, cutoff time.Time) ([]*domain.Task, error) {
	return nil, nil
}

func newTestHandler(t *testing.T, svc service.TaskService, tasks []*domain.Task) *TaskHandler {
	t.Helper()
	engine, err := service.NewQueryEngine(&stubTaskStore{tasks: tasks}, testLogger())
	require.NoError(t, err)
	return NewTaskHandler(svc, engine, testLogger())
}

// authedRequest builds a request carrying the given user ID, as the auth
// middleware would.
func authedRequest(t *testing.T, method, target string, body []byte, userID uuid.UUID) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	return req.WithContext(ctx)
}

// withChiParam installs a chi route context carrying URL parameters.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func mustNewTask(t *testing.T, owner uuid.UUID, title string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(owner, title, "")
	require.NoError(t, err)
	return task
}

func TestCreateTaskHandler(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	task := mustNewTask(t, owner, "Write docs")

	t.Run("returns 201 with the created task", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{task: task}, nil)

		body, _ := json.Marshal(CreateTaskRequest{Title: "Write docs"})
		req := authedRequest(t, http.MethodPost, "/api/tasks", body, owner)
		rr := httptest.NewRecorder()

		handler.CreateTask(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var resp TaskResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, task.ID, resp.ID)
		assert.Equal(t, owner, resp.OwnerID)
	})

	t.Run("returns 401 without an authenticated user", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{task: task}, nil)

		body, _ := json.Marshal(CreateTaskRequest{Title: "Write docs"})
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		handler.CreateTask(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("returns 400 for a missing title", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{task: task}, nil)

		body, _ := json.Marshal(CreateTaskRequest{})
		req := authedRequest(t, http.MethodPost, "/api/tasks", body, owner)
		rr := httptest.NewRecorder()

		handler.CreateTask(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("returns 400 for malformed JSON", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{task: task}, nil)

		req := authedRequest(t, http.MethodPost, "/api/tasks", []byte("{not json"), owner)
		rr := httptest.NewRecorder()

		handler.CreateTask(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetTaskHandler(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	task := mustNewTask(t, owner, "Read RFC")

	t.Run("returns the task", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{task: task}, nil)

		req := authedRequest(t, http.MethodGet, "/api/tasks/"+task.ID.String(), nil, owner)
		req = withChiParam(req, "id", task.ID.String())
		rr := httptest.NewRecorder()

		handler.GetTask(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("maps not found to 404", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{err: service.ErrTaskNotFound}, nil)

		req := authedRequest(t, http.MethodGet, "/api/tasks/"+uuid.NewString(), nil, owner)
		req = withChiParam(req, "id", uuid.NewString())
		rr := httptest.NewRecorder()

		handler.GetTask(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("maps permission denied to 403", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{err: service.ErrPermissionDenied}, nil)

		req := authedRequest(t, http.MethodGet, "/api/tasks/"+task.ID.String(), nil, owner)
		req = withChiParam(req, "id", task.ID.String())
		rr := httptest.NewRecorder()

		handler.GetTask(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("rejects a malformed task ID", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{task: task}, nil)

		req := authedRequest(t, http.MethodGet, "/api/tasks/not-a-uuid", nil, owner)
		req = withChiParam(req, "id", "not-a-uuid")
		rr := httptest.NewRecorder()

		handler.GetTask(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestUpdateTaskHandler(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	task := mustNewTask(t, owner, "Refine backlog")

	t.Run("maps a version conflict to 409", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{err: service.ErrConflict}, nil)

		body, _ := json.Marshal(UpdateTaskRequest{Version: 1})
		req := authedRequest(t, http.MethodPatch, "/api/tasks/"+task.ID.String(), body, owner)
		req = withChiParam(req, "id", task.ID.String())
		rr := httptest.NewRecorder()

		handler.UpdateTask(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("maps an owner change to 400", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{err: domain.ErrOwnerImmutable}, nil)

		body, _ := json.Marshal(UpdateTaskRequest{Version: 1})
		req := authedRequest(t, http.MethodPatch, "/api/tasks/"+task.ID.String(), body, owner)
		req = withChiParam(req, "id", task.ID.String())
		rr := httptest.NewRecorder()

		handler.UpdateTask(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDeleteTaskHandler(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	task := mustNewTask(t, owner, "Cancel subscription")

	t.Run("returns 204 on success", func(t *testing.T) {
		t.Parallel()
		svc := &stubTaskService{}
		handler := newTestHandler(t, svc, nil)

		req := authedRequest(t, http.MethodDelete, "/api/tasks/"+task.ID.String(), nil, owner)
		req = withChiParam(req, "id", task.ID.String())
		rr := httptest.NewRecorder()

		handler.DeleteTask(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, task.ID, svc.deletedID)
	})

	t.Run("maps permission denied to 403", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{err: service.ErrPermissionDenied}, nil)

		req := authedRequest(t, http.MethodDelete, "/api/tasks/"+task.ID.String(), nil, owner)
		req = withChiParam(req, "id", task.ID.String())
		rr := httptest.NewRecorder()

		handler.DeleteTask(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestListTasksHandler(t *testing.T) {
	t.Parallel()
	owner := uuid.New()

	done := mustNewTask(t, owner, "Done task")
	done.Complete = true
	open := mustNewTask(t, owner, "Open task")

	t.Run("returns the owner's tasks with totals", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{}, []*domain.Task{done, open})

		req := authedRequest(t, http.MethodGet, "/api/tasks", nil, owner)
		rr := httptest.NewRecorder()

		handler.ListTasks(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp TaskListResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Total)
		assert.Equal(t, 1, resp.Incomplete)
		require.Len(t, resp.Tasks, 2)
		assert.Equal(t, "Open task", resp.Tasks[0].Title)
	})

	t.Run("honors the completed filter", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{}, []*domain.Task{done, open})

		req := authedRequest(t, http.MethodGet, "/api/tasks?completed=true", nil, owner)
		rr := httptest.NewRecorder()

		handler.ListTasks(rr, req)

		var resp TaskListResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		require.Len(t, resp.Tasks, 1)
		assert.Equal(t, "Done task", resp.Tasks[0].Title)
	})

	t.Run("rejects malformed query parameters", func(t *testing.T) {
		t.Parallel()
		handler := newTestHandler(t, &stubTaskService{}, nil)

		req := authedRequest(t, http.MethodGet, "/api/tasks?completed=banana", nil, owner)
		rr := httptest.NewRecorder()

		handler.ListTasks(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestParseQueryOptions(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet,
		"/api/tasks?search=milk&completed=false&priority=2&due_before=2024-06-01&offset=10&limit=5&ordering=due_date", nil)

	opts, err := parseQueryOptions(req)
	require.NoError(t, err)

	assert.Equal(t, "milk", opts.Search)
	require.NotNil(t, opts.Filters.Completed)
	assert.False(t, *opts.Filters.Completed)
	require.NotNil(t, opts.Filters.Priority)
	assert.Equal(t, 2, *opts.Filters.Priority)
	require.NotNil(t, opts.Filters.DueBefore)
	assert.Equal(t, 10, opts.Offset)
	assert.Equal(t, 5, opts.Limit)
	assert.Equal(t, service.OrderingDueDate, opts.Ordering)
}
