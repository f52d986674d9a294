package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/remind"
)

// Common request/response structures

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description" validate:"max=4000"`
	Priority    *int       `json:"priority"    validate:"omitempty,gte=0"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
}

// UpdateTaskRequest defines the payload for partially updating a task.
// Absent fields are left unchanged. Version must carry the version the
// client last read; the update is rejected with 409 if the task has moved on.
type UpdateTaskRequest struct {
	Title        *string    `json:"title"       validate:"omitempty,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=4000"`
	Complete     *bool      `json:"complete"`
	Priority     *int       `json:"priority"    validate:"omitempty,gte=0"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
	AssigneeID   *uuid.UUID `json:"assignee_id"`
	OwnerID      *uuid.UUID `json:"owner_id"`
	Version      int64      `json:"version"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
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

// TaskListResponse is one page of a task query.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`

	// Total counts every task matching the query, not just this page.
	Total int `json:"total"`

	// Incomplete counts the matching tasks not yet complete.
	Incomplete int `json:"incomplete"`

	Offset int `json:"offset"`
	Limit  int `json:"limit,omitempty"`
}

// AddTagRequest defines the payload for tagging a task.
type AddTagRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// TagResponse represents the response data for a tag.
type TagResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// AddCommentRequest defines the payload for commenting on a task.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// CommentResponse represents the response data for a comment.
type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// AddAttachmentRequest defines the payload for attaching a file reference
// to a task.
type AddAttachmentRequest struct {
	Path string `json:"path" validate:"required,max=1024"`
}

// AttachmentResponse represents the response data for an attachment.
type AttachmentResponse struct {
	ID   uuid.UUID `json:"id"`
	Path string    `json:"path"`
}

// DeadJobResponse represents a dead-lettered reminder job for operator
// inspection.
type DeadJobResponse struct {
	ID         uuid.UUID `json:"id"`
	TaskID     uuid.UUID `json:"task_id"`
	Recipient  uuid.UUID `json:"recipient"`
	Subject    string    `json:"subject"`
	Attempts   int       `json:"attempts"`
	Reason     string    `json:"reason"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	DiedAt     time.Time `json:"died_at"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:            task.ID,
		OwnerID:       task.OwnerID,
		AssigneeID:    task.AssigneeID,
		Title:         task.Title,
		Description:   task.Description,
		Complete:      task.Complete,
		Priority:      task.Priority,
		DueDate:       task.DueDate,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
		Version:       task.Version,
		TagIDs:        task.TagIDs,
		CommentIDs:    task.CommentIDs,
		AttachmentIDs: task.AttachmentIDs,
	}
}

func deadJobToResponse(job remind.DeadJob) DeadJobResponse {
	return DeadJobResponse{
		ID:         job.Job.ID,
		TaskID:     job.Job.TaskID,
		Recipient:  job.Job.Recipient,
		Subject:    job.Job.Subject,
		Attempts:   job.Job.Attempts,
		Reason:     job.Reason,
		EnqueuedAt: job.Job.EnqueuedAt,
		DiedAt:     job.DiedAt,
	}
}
