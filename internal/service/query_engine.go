package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// Ordering selects the sort applied to query results.
type Ordering string

const (
	// OrderingDefault sorts incomplete tasks before complete ones, breaking
	// ties by priority ascending, then due date ascending with tasks lacking
	// a due date last.
	OrderingDefault Ordering = "default"

	// OrderingDueDate sorts by due date ascending, tasks without one last.
	OrderingDueDate Ordering = "due_date"

	// OrderingPriority sorts by priority ascending.
	OrderingPriority Ordering = "priority"

	// OrderingCreated sorts by creation time, newest first.
	OrderingCreated Ordering = "created"
)

// QueryFilters narrows a task query. Nil fields are not applied.
type QueryFilters struct {
	Completed *bool
	Priority  *int
	DueBefore *time.Time
	DueAfter  *time.Time
	TagID     *uuid.UUID
}

// QueryOptions describes one owner-scoped task query.
type QueryOptions struct {
	Filters QueryFilters

	// Search matches case-insensitively against title or description
	// as a substring.
	Search string

	Ordering Ordering

	// Offset and Limit paginate the sorted result. Limit <= 0 returns
	// everything from Offset on.
	Offset int
	Limit  int
}

// QueryResult is one page of a task query plus totals over the whole
// filtered set, computed before pagination.
type QueryResult struct {
	Tasks []*domain.Task

	// Total counts all tasks matching the filters and search.
	Total int

	// Incomplete counts the matching tasks not yet complete.
	Incomplete int
}

// QueryEngine answers owner-scoped task queries. Results only ever contain
// tasks owned by the acting user.
type QueryEngine struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewQueryEngine creates a QueryEngine backed by the given task store.
func NewQueryEngine(tasks store.TaskStore, log *slog.Logger) (*QueryEngine, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &QueryEngine{
		tasks:  tasks,
		logger: log.With("component", "query_engine"),
	}, nil
}

// Query lists the acting user's tasks matching opts.
func (e *QueryEngine) Query(
	ctx context.Context,
	actor uuid.UUID,
	opts QueryOptions,
) (*QueryResult, error) {
	tasks, err := e.tasks.ListByOwner(ctx, actor)
	if err != nil {
		return nil, NewTaskServiceError("query_tasks", "failed to list tasks", err)
	}

	filtered := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchesFilters(t, opts.Filters) && matchesSearch(t, opts.Search) {
			filtered = append(filtered, t)
		}
	}

	sortTasks(filtered, opts.Ordering)

	result := &QueryResult{Total: len(filtered)}
	for _, t := range filtered {
		if !t.Complete {
			result.Incomplete++
		}
	}

	result.Tasks = paginate(filtered, opts.Offset, opts.Limit)
	return result, nil
}

func matchesFilters(t *domain.Task, f QueryFilters) bool {
	if f.Completed != nil && t.Complete != *f.Completed {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.DueBefore != nil {
		if t.DueDate == nil || !t.DueDate.Before(*f.DueBefore) {
			return false
		}
	}
	if f.DueAfter != nil {
		if t.DueDate == nil || !t.DueDate.After(*f.DueAfter) {
			return false
		}
	}
	if f.TagID != nil && !hasTag(t, *f.TagID) {
		return false
	}
	return true
}

func hasTag(t *domain.Task, tagID uuid.UUID) bool {
	for _, id := range t.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

func matchesSearch(t *domain.Task, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}

func sortTasks(tasks []*domain.Task, ordering Ordering) {
	var less func(a, b *domain.Task) bool
	switch ordering {
	case OrderingDueDate:
		less = dueDateLess
	case OrderingPriority:
		less = func(a, b *domain.Task) bool { return a.Priority < b.Priority }
	case OrderingCreated:
		less = func(a, b *domain.Task) bool { return a.CreatedAt.After(b.CreatedAt) }
	default:
		less = defaultLess
	}
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
}

func defaultLess(a, b *domain.Task) bool {
	if a.Complete != b.Complete {
		return !a.Complete
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return dueDateLess(a, b)
}

func dueDateLess(a, b *domain.Task) bool {
	switch {
	case a.DueDate == nil:
		return false
	case b.DueDate == nil:
		return true
	default:
		return a.DueDate.Before(*b.DueDate)
	}
}

func paginate(tasks []*domain.Task, offset, limit int) []*domain.Task {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(tasks) {
		return []*domain.Task{}
	}
	page := tasks[offset:]
	if limit > 0 && limit < len(page) {
		page = page[:limit]
	}
	return page
}
