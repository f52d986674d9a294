// Package authz contains the access-control policy for tasks. The policy is
// a pure decision function so that it can change without touching storage
// code; callers in the service layer consult it before every mutating store
// call.
package authz

import (
	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// Action identifies an operation an actor wants to perform on a task.
type Action string

// Actions recognized by the policy.
const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// CanPerform reports whether the actor may perform the action on the task.
// Policy: the owner may do everything; the assignee may read and update but
// not delete; anyone else is denied. The function has no side effects and
// never consults external state.
func CanPerform(actor uuid.UUID, task *domain.Task, action Action) bool {
	if task == nil || actor == uuid.Nil {
		return false
	}

	if actor == task.OwnerID {
		switch action {
		case ActionRead, ActionUpdate, ActionDelete:
			return true
		}
		return false
	}

	if actor == task.AssigneeID {
		switch action {
		case ActionRead, ActionUpdate:
			return true
		}
		return false
	}

	return false
}
