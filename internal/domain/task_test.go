package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewTask(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ownerID := uuid.New()

	task, err := NewTask(ownerID, "Buy groceries", "milk, eggs, bread")

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if task.OwnerID != ownerID {
		t.Errorf("Expected owner ID %s, got %s", ownerID, task.OwnerID)
	}

	if task.AssigneeID != ownerID {
		t.Errorf("Expected assignee to default to owner %s, got %s", ownerID, task.AssigneeID)
	}

	if task.Complete {
		t.Error("Expected new task to be incomplete")
	}

	if task.Priority != DefaultPriority {
		t.Errorf("Expected default priority %d, got %d", DefaultPriority, task.Priority)
	}

	if task.DueDate != nil {
		t.Error("Expected new task to have no due date")
	}

	if task.Version != 1 {
		t.Errorf("Expected initial version 1, got %d", task.Version)
	}

	if task.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Test invalid ownerID
	_, err = NewTask(uuid.Nil, "title", "")
	if err != ErrEmptyTaskOwnerID {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskOwnerID, err)
	}

	// Test empty title
	_, err = NewTask(ownerID, "", "")
	if err != ErrEmptyTaskTitle {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskTitle, err)
	}
}

func TestTaskValidate(t *testing.T) {
	t.Parallel() // Enable parallel execution
	validTask := Task{
		ID:       uuid.New(),
		OwnerID:  uuid.New(),
		Title:    "Test task",
		Priority: 1,
	}

	if err := validTask.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalidTask := validTask
	invalidTask.ID = uuid.Nil
	if err := invalidTask.Validate(); err != ErrEmptyTaskID {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskID, err)
	}

	invalidTask = validTask
	invalidTask.OwnerID = uuid.Nil
	if err := invalidTask.Validate(); err != ErrEmptyTaskOwnerID {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskOwnerID, err)
	}

	invalidTask = validTask
	invalidTask.Title = ""
	if err := invalidTask.Validate(); err != ErrEmptyTaskTitle {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskTitle, err)
	}

	invalidTask = validTask
	invalidTask.Priority = -1
	if err := invalidTask.Validate(); err != ErrInvalidPriority {
		t.Errorf("Expected error %v, got %v", ErrInvalidPriority, err)
	}
}

func TestTaskApplyPatch(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ownerID := uuid.New()
	task, err := NewTask(ownerID, "Original", "original description")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	newTitle := "Updated"
	complete := true
	priority := 3
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	err = task.Apply(TaskPatch{
		Title:    &newTitle,
		Complete: &complete,
		Priority: &priority,
		DueDate:  &due,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.Title != newTitle {
		t.Errorf("Expected title %q, got %q", newTitle, task.Title)
	}
	if !task.Complete {
		t.Error("Expected task to be complete")
	}
	if task.Priority != priority {
		t.Errorf("Expected priority %d, got %d", priority, task.Priority)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Errorf("Expected due date %v, got %v", due, task.DueDate)
	}

	// Clearing the due date
	err = task.Apply(TaskPatch{ClearDueDate: true})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.DueDate != nil {
		t.Errorf("Expected due date cleared, got %v", task.DueDate)
	}
}

func TestTaskApplyRejectsOwnerChange(t *testing.T) {
	t.Parallel() // Enable parallel execution
	ownerID := uuid.New()
	task, err := NewTask(ownerID, "Immutable owner", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	otherID := uuid.New()
	newTitle := "should not stick"
	err = task.Apply(TaskPatch{OwnerID: &otherID, Title: &newTitle})
	if !errors.Is(err, ErrOwnerImmutable) {
		t.Errorf("Expected error %v, got %v", ErrOwnerImmutable, err)
	}

	// The failed patch must leave the task untouched
	if task.Title != "Immutable owner" {
		t.Errorf("Expected title to remain unchanged, got %q", task.Title)
	}
	if task.OwnerID != ownerID {
		t.Errorf("Expected owner to remain %s, got %s", ownerID, task.OwnerID)
	}

	// Re-stating the current owner is a no-op, not an error
	err = task.Apply(TaskPatch{OwnerID: &ownerID})
	if err != nil {
		t.Errorf("Expected no error when patch restates current owner, got %v", err)
	}
}

func TestTaskApplyRollsBackOnValidationError(t *testing.T) {
	t.Parallel() // Enable parallel execution
	task, err := NewTask(uuid.New(), "Valid", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	empty := ""
	badPriority := -5
	err = task.Apply(TaskPatch{Title: &empty, Priority: &badPriority})
	if err != ErrEmptyTaskTitle {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskTitle, err)
	}

	if task.Title != "Valid" || task.Priority != DefaultPriority {
		t.Error("Expected failed patch to leave task unmodified")
	}
}

func TestTaskLinkUnlink(t *testing.T) {
	t.Parallel() // Enable parallel execution
	task, err := NewTask(uuid.New(), "Linked", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	tagID := uuid.New()
	task.LinkTag(tagID)
	task.LinkTag(tagID) // duplicate link is a no-op
	if len(task.TagIDs) != 1 {
		t.Errorf("Expected 1 tag ID, got %d", len(task.TagIDs))
	}

	task.UnlinkTag(tagID)
	if len(task.TagIDs) != 0 {
		t.Errorf("Expected 0 tag IDs, got %d", len(task.TagIDs))
	}

	// Unlinking an absent ID is a no-op
	task.UnlinkTag(uuid.New())
	if len(task.TagIDs) != 0 {
		t.Errorf("Expected 0 tag IDs, got %d", len(task.TagIDs))
	}

	commentID := uuid.New()
	task.LinkComment(commentID)
	if len(task.CommentIDs) != 1 {
		t.Errorf("Expected 1 comment ID, got %d", len(task.CommentIDs))
	}

	attachmentID := uuid.New()
	task.LinkAttachment(attachmentID)
	if len(task.AttachmentIDs) != 1 {
		t.Errorf("Expected 1 attachment ID, got %d", len(task.AttachmentIDs))
	}
}
