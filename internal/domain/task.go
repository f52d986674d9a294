package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Task. All wrap ErrValidation so callers can
// match the whole family with a single errors.Is check.
var (
	ErrEmptyTaskID      = fmt.Errorf("%w: task ID cannot be empty", ErrValidation)
	ErrEmptyTaskOwnerID = fmt.Errorf("%w: task owner ID cannot be empty", ErrValidation)
	ErrEmptyTaskTitle   = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrInvalidPriority  = fmt.Errorf("%w: task priority cannot be negative", ErrValidation)
)

// Task represents a unit of work owned by a user. The owner is fixed at
// creation; the assignee may be changed by the owner. Tags, comments and
// attachments are independent entities referenced by ID, never embedded.
type Task struct {
	ID            uuid.UUID   `json:"id"`
	OwnerID       uuid.UUID   `json:"owner_id"`
	AssigneeID    uuid.UUID   `json:"assignee_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	Complete      bool        `json:"complete"`
	Priority      int         `json:"priority"`
	DueDate       *time.Time  `json:"due_date,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Version       int64       `json:"version"`
	TagIDs        []uuid.UUID `json:"tag_ids,omitempty"`
	CommentIDs    []uuid.UUID `json:"comment_ids,omitempty"`
	AttachmentIDs []uuid.UUID `json:"attachment_ids,omitempty"`
}

// DefaultPriority is assigned to tasks created without an explicit priority.
// Lower values are more urgent.
const DefaultPriority = 1

// NewTask creates a new Task owned by the given user. The assignee defaults
// to the owner. Returns an error if validation fails.
func NewTask(ownerID uuid.UUID, title, description string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		AssigneeID:  ownerID,
		Title:       title,
		Description: description,
		Complete:    false,
		Priority:    DefaultPriority,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.OwnerID == uuid.Nil {
		return ErrEmptyTaskOwnerID
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if t.Priority < 0 {
		return ErrInvalidPriority
	}

	return nil
}

// TaskPatch describes a partial update to a task. Nil fields are left
// unchanged. OwnerID is present only so that attempts to change it can be
// rejected explicitly rather than silently ignored.
type TaskPatch struct {
	OwnerID      *uuid.UUID
	AssigneeID   *uuid.UUID
	Title        *string
	Description  *string
	Complete     *bool
	Priority     *int
	DueDate      *time.Time
	ClearDueDate bool
}

// Apply merges the patch into the task and updates the UpdatedAt timestamp.
// Returns ErrOwnerImmutable if the patch tries to set a different owner, or
// a validation error if the resulting task is invalid. The task is left
// unmodified on error.
func (t *Task) Apply(patch TaskPatch) error {
	if patch.OwnerID != nil && *patch.OwnerID != t.OwnerID {
		return ErrOwnerImmutable
	}

	updated := *t
	if patch.AssigneeID != nil {
		updated.AssigneeID = *patch.AssigneeID
	}
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Complete != nil {
		updated.Complete = *patch.Complete
	}
	if patch.Priority != nil {
		updated.Priority = *patch.Priority
	}
	if patch.ClearDueDate {
		updated.DueDate = nil
	} else if patch.DueDate != nil {
		due := *patch.DueDate
		updated.DueDate = &due
	}

	if err := updated.Validate(); err != nil {
		return err
	}

	updated.UpdatedAt = time.Now().UTC()
	*t = updated
	return nil
}

// LinkTag adds a tag reference if not already present.
func (t *Task) LinkTag(tagID uuid.UUID) {
	t.TagIDs = appendUnique(t.TagIDs, tagID)
}

// UnlinkTag removes a tag reference if present.
func (t *Task) UnlinkTag(tagID uuid.UUID) {
	t.TagIDs = removeID(t.TagIDs, tagID)
}

// LinkComment adds a comment reference if not already present.
func (t *Task) LinkComment(commentID uuid.UUID) {
	t.CommentIDs = appendUnique(t.CommentIDs, commentID)
}

// UnlinkComment removes a comment reference if present.
func (t *Task) UnlinkComment(commentID uuid.UUID) {
	t.CommentIDs = removeID(t.CommentIDs, commentID)
}

// LinkAttachment adds an attachment reference if not already present.
func (t *Task) LinkAttachment(attachmentID uuid.UUID) {
	t.AttachmentIDs = appendUnique(t.AttachmentIDs, attachmentID)
}

// UnlinkAttachment removes an attachment reference if present.
func (t *Task) UnlinkAttachment(attachmentID uuid.UUID) {
	t.AttachmentIDs = removeID(t.AttachmentIDs, attachmentID)
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
