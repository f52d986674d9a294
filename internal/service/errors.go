// Package service provides application-level services for managing tasks,
// their related entities, and owner-scoped queries.
package service

import (
	"errors"
	"fmt"

	"github.com/taskdeck/taskdeck-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent expected conditions that callers check with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrTaskNotFound indicates that the task does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTagNotFound indicates that the tag does not exist.
	ErrTagNotFound = errors.New("tag not found")

	// ErrCommentNotFound indicates that the comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrAttachmentNotFound indicates that the attachment does not exist.
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrPermissionDenied indicates the acting user is not allowed to perform
	// the requested operation on the resource.
	// API layer should map this to HTTP 403 Forbidden.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConflict indicates a concurrent modification was detected and the
	// update was not applied. Callers should re-read and retry.
	// API layer should map this to HTTP 409 Conflict.
	ErrConflict = errors.New("task was modified concurrently")
)

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "update_task")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
// Known sentinel errors (service-level or store-level) pass through unwrapped
// so that callers can match them with errors.Is.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	// Service-defined sentinels are returned directly.
	for _, sentinel := range []error{
		ErrTaskNotFound,
		ErrTagNotFound,
		ErrCommentNotFound,
		ErrAttachmentNotFound,
		ErrPermissionDenied,
		ErrConflict,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	// Store-level sentinels map to their service-level equivalents.
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, store.ErrTagNotFound):
		return ErrTagNotFound
	case errors.Is(err, store.ErrCommentNotFound):
		return ErrCommentNotFound
	case errors.Is(err, store.ErrAttachmentNotFound):
		return ErrAttachmentNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrConflict
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
