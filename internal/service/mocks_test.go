package service

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// fakeTaskStore is an in-memory store.TaskStore for service tests.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	// createErr, getErr, updateErr and deleteErr force failures when set.
	createErr error
	getErr    error
	updateErr error
	deleteErr error
}

var _ store.TaskStore = (*fakeTaskStore)(nil)

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *task
	f.tasks[task.ID] = &cp
	return nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *task
	return &cp, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if current.Version != task.Version {
		return store.ErrConflict
	}
	cp := *task
	cp.Version++
	f.tasks[task.ID] = &cp
	task.Version = cp.Version
	return nil
}

func (f *fakeTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, task := range f.tasks {
		if task.OwnerID == ownerID {
			cp := *task
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) ListDueBefore(ctx context.Context, cutoff time.Time) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, task := range f.tasks {
		if task.Complete || task.DueDate == nil || task.DueDate.After(cutoff) {
			continue
		}
		cp := *task
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

// put inserts a task directly, bypassing Create-side effects.
func (f *fakeTaskStore) put(task *domain.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *task
	f.tasks[task.ID] = &cp
}

// fakeReminderCleanup records RemoveForTask calls.
type fakeReminderCleanup struct {
	mu      sync.Mutex
	removed []uuid.UUID
	err     error
}

func (f *fakeReminderCleanup) RemoveForTask(ctx context.Context, taskID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, taskID)
	return f.err
}

func (f *fakeReminderCleanup) removedTasks() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uuid.UUID, len(f.removed))
	copy(out, f.removed)
	return out
}

// fakeTagStore is an in-memory store.TagStore.
type fakeTagStore struct {
	mu   sync.Mutex
	tags map[uuid.UUID]*domain.Tag
}

var _ store.TagStore = (*fakeTagStore)(nil)

func newFakeTagStore() *fakeTagStore {
	return &fakeTagStore{tags: make(map[uuid.UUID]*domain.Tag)}
}

func (f *fakeTagStore) Create(ctx context.Context, tag *domain.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *tag
	f.tags[tag.ID] = &cp
	return nil
}

func (f *fakeTagStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tag, ok := f.tags[id]
	if !ok {
		return nil, store.ErrTagNotFound
	}
	cp := *tag
	return &cp, nil
}

func (f *fakeTagStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tags[id]; !ok {
		return store.ErrTagNotFound
	}
	delete(f.tags, id)
	return nil
}

func (f *fakeTagStore) WithTx(tx *sql.Tx) store.TagStore { return f }

// fakeCommentStore is an in-memory store.CommentStore.
type fakeCommentStore struct {
	mu       sync.Mutex
	comments map[uuid.UUID]*domain.Comment
}

var _ store.CommentStore = (*fakeCommentStore)(nil)

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[uuid.UUID]*domain.Comment)}
}

func (f *fakeCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *comment
	f.comments[comment.ID] = &cp
	return nil
}

func (f *fakeCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[id]
	if !ok {
		return nil, store.ErrCommentNotFound
	}
	cp := *comment
	return &cp, nil
}

func (f *fakeCommentStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return store.ErrCommentNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentStore) WithTx(tx *sql.Tx) store.CommentStore { return f }

// fakeAttachmentStore is an in-memory store.AttachmentStore.
type fakeAttachmentStore struct {
	mu          sync.Mutex
	attachments map[uuid.UUID]*domain.Attachment
}

var _ store.AttachmentStore = (*fakeAttachmentStore)(nil)

func newFakeAttachmentStore() *fakeAttachmentStore {
	return &fakeAttachmentStore{attachments: make(map[uuid.UUID]*domain.Attachment)}
}

func (f *fakeAttachmentStore) Create(ctx context.Context, attachment *domain.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *attachment
	f.attachments[attachment.ID] = &cp
	return nil
}

func (f *fakeAttachmentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attachment, ok := f.attachments[id]
	if !ok {
		return nil, store.ErrAttachmentNotFound
	}
	cp := *attachment
	return &cp, nil
}

func (f *fakeAttachmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.attachments[id]; !ok {
		return store.ErrAttachmentNotFound
	}
	delete(f.attachments, id)
	return nil
}

func (f *fakeAttachmentStore) WithTx(tx *sql.Tx) store.AttachmentStore { return f }
