package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/authz"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// RelatedService manages the entities attached to a task: tags, comments,
// and attachments. Every operation requires update rights on the task.
type RelatedService interface {
	// AddTag creates a tag and links it to the task.
	AddTag(ctx context.Context, actor uuid.UUID, taskID uuid.UUID, name string) (*domain.Tag, error)

	// RemoveTag unlinks and deletes a tag from the task.
	RemoveTag(ctx context.Context, actor uuid.UUID, taskID uuid.UUID, tagID uuid.UUID) error

	// AddComment creates a comment and links it to the task.
	AddComment(ctx context.Context, actor uuid.UUID, taskID uuid.UUID, text string) (*domain.Comment, error)

	// RemoveComment unlinks and deletes a comment from the task.
	RemoveComment(ctx context.Context, actor uuid.UUID, taskID uuid.UUID, commentID uuid.UUID) error

	// AddAttachment records an attachment and links it to the task.
	AddAttachment(ctx context.Context, actor uuid.UUID, taskID uuid.UUID, path string) (*domain.Attachment, error)

	// RemoveAttachment unlinks and deletes an attachment from the task.
	RemoveAttachment(ctx context.Context, actor uuid.UUID, taskID uuid.UUID, attachmentID uuid.UUID) error
}

// txStores bundles the store handles an operation runs against. Inside a
// transaction every handle is bound to the same *sql.Tx.
type txStores struct {
	tasks       store.TaskStore
	tags        store.TagStore
	comments    store.CommentStore
	attachments store.AttachmentStore
}

type relatedServiceImpl struct {
	db          *sql.DB
	tasks       store.TaskStore
	tags        store.TagStore
	comments    store.CommentStore
	attachments store.AttachmentStore
	logger      *slog.Logger
}

var _ RelatedService = (*relatedServiceImpl)(nil)

// NewRelatedService creates a new RelatedService. The db handle may be nil,
// in which case operations run without a surrounding transaction.
// It returns an error if any of the required store dependencies are nil.
func NewRelatedService(
	db *sql.DB,
	tasks store.TaskStore,
	tags store.TagStore,
	comments store.CommentStore,
	attachments store.AttachmentStore,
	log *slog.Logger,
) (RelatedService, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if tags == nil {
		return nil, fmt.Errorf("tag store cannot be nil")
	}
	if comments == nil {
		return nil, fmt.Errorf("comment store cannot be nil")
	}
	if attachments == nil {
		return nil, fmt.Errorf("attachment store cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &relatedServiceImpl{
		db:          db,
		tasks:       tasks,
		tags:        tags,
		comments:    comments,
		attachments: attachments,
		logger:      log.With("component", "related_service"),
	}, nil
}

// inTx runs fn with transaction-bound stores so the entity row and the task
// link row commit or roll back together.
func (s *relatedServiceImpl) inTx(
	ctx context.Context,
	fn func(st txStores) error,
) error {
	if s.db == nil {
		return fn(txStores{
			tasks:       s.tasks,
			tags:        s.tags,
			comments:    s.comments,
			attachments: s.attachments,
		})
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(txStores{
			tasks:       s.tasks.WithTx(tx),
			tags:        s.tags.WithTx(tx),
			comments:    s.comments.WithTx(tx),
			attachments: s.attachments.WithTx(tx),
		})
	})
}

// loadForUpdate fetches the task and checks the actor may modify it.
func loadForUpdate(
	ctx context.Context,
	tasks store.TaskStore,
	actor uuid.UUID,
	taskID uuid.UUID,
	operation string,
) (*domain.Task, error) {
	task, err := tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, NewTaskServiceError(operation, "failed to load task", err)
	}
	if !authz.CanPerform(actor, task, authz.ActionUpdate) {
		return nil, ErrPermissionDenied
	}
	return task, nil
}

func (s *relatedServiceImpl) AddTag(
	ctx context.Context,
	actor uuid.UUID,
	taskID uuid.UUID,
	name string,
) (*domain.Tag, error) {
	tag, err := domain.NewTag(name)
	if err != nil {
		return nil, NewTaskServiceError("add_tag", "invalid tag", err)
	}

	err = s.inTx(ctx, func(st txStores) error {
		task, err := loadForUpdate(ctx, st.tasks, actor, taskID, "add_tag")
		if err != nil {
			return err
		}
		if err := st.tags.Create(ctx, tag); err != nil {
			return NewTaskServiceError("add_tag", "failed to save tag", err)
		}
		task.LinkTag(tag.ID)
		if err := st.tasks.Update(ctx, task); err != nil {
			return NewTaskServiceError("add_tag", "failed to link tag", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("tag added", "task_id", taskID, "tag_id", tag.ID)
	return tag, nil
}

func (s *relatedServiceImpl) RemoveTag(
	ctx context.Context,
	actor uuid.UUID,
	taskID uuid.UUID,
	tagID uuid.UUID,
) error {
	return s.inTx(ctx, func(st txStores) error {
		task, err := loadForUpdate(ctx, st.tasks, actor, taskID, "remove_tag")
		if err != nil {
			return err
		}
		if _, err := st.tags.GetByID(ctx, tagID); err != nil {
			return NewTaskServiceError("remove_tag", "failed to load tag", err)
		}
		task.UnlinkTag(tagID)
		if err := st.tasks.Update(ctx, task); err != nil {
			return NewTaskServiceError("remove_tag", "failed to unlink tag", err)
		}
		if err := st.tags.Delete(ctx, tagID); err != nil {
			return NewTaskServiceError("remove_tag", "failed to delete tag", err)
		}
		return nil
	})
}

func (s *relatedServiceImpl) AddComment(
	ctx context.Context,
	actor uuid.UUID,
	taskID uuid.UUID,
	text string,
) (*domain.Comment, error) {
	comment, err := domain.NewComment(text)
	if err != nil {
		return nil, NewTaskServiceError("add_comment", "invalid comment", err)
	}

	err = s.inTx(ctx, func(st txStores) error {
		task, err := loadForUpdate(ctx, st.tasks, actor, taskID, "add_comment")
		if err != nil {
			return err
		}
		if err := st.comments.Create(ctx, comment); err != nil {
			return NewTaskServiceError("add_comment", "failed to save comment", err)
		}
		task.LinkComment(comment.ID)
		if err := st.tasks.Update(ctx, task); err != nil {
			return NewTaskServiceError("add_comment", "failed to link comment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("comment added", "task_id", taskID, "comment_id", comment.ID)
	return comment, nil
}

func (s *relatedServiceImpl) RemoveComment(
	ctx context.Context,
	actor uuid.UUID,
	taskID uuid.UUID,
	commentID uuid.UUID,
) error {
	return s.inTx(ctx, func(st txStores) error {
		task, err := loadForUpdate(ctx, st.tasks, actor, taskID, "remove_comment")
		if err != nil {
			return err
		}
		if _, err := st.comments.GetByID(ctx, commentID); err != nil {
			return NewTaskServiceError("remove_comment", "failed to load comment", err)
		}
		task.UnlinkComment(commentID)
		if err := st.tasks.Update(ctx, task); err != nil {
			return NewTaskServiceError("remove_comment", "failed to unlink comment", err)
		}
		if err := st.comments.Delete(ctx, commentID); err != nil {
			return NewTaskServiceError("remove_comment", "failed to delete comment", err)
		}
		return nil
	})
}

func (s *relatedServiceImpl) AddAttachment(
	ctx context.Context,
	actor uuid.UUID,
	taskID uuid.UUID,
	path string,
) (*domain.Attachment, error) {
	attachment, err := domain.NewAttachment(path)
	if err != nil {
		return nil, NewTaskServiceError("add_attachment", "invalid attachment", err)
	}

	err = s.inTx(ctx, func(st txStores) error {
		task, err := loadForUpdate(ctx, st.tasks, actor, taskID, "add_attachment")
		if err != nil {
			return err
		}
		if err := st.attachments.Create(ctx, attachment); err != nil {
			return NewTaskServiceError("add_attachment", "failed to save attachment", err)
		}
		task.LinkAttachment(attachment.ID)
		if err := st.tasks.Update(ctx, task); err != nil {
			return NewTaskServiceError("add_attachment", "failed to link attachment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("attachment added", "task_id", taskID, "attachment_id", attachment.ID)
	return attachment, nil
}

func (s *relatedServiceImpl) RemoveAttachment(
	ctx context.Context,
	actor uuid.UUID,
	taskID uuid.UUID,
	attachmentID uuid.UUID,
) error {
	return s.inTx(ctx, func(st txStores) error {
		task, err := loadForUpdate(ctx, st.tasks, actor, taskID, "remove_attachment")
		if err != nil {
			return err
		}
		if _, err := st.attachments.GetByID(ctx, attachmentID); err != nil {
			return NewTaskServiceError("remove_attachment", "failed to load attachment", err)
		}
		task.UnlinkAttachment(attachmentID)
		if err := st.tasks.Update(ctx, task); err != nil {
			return NewTaskServiceError("remove_attachment", "failed to unlink attachment", err)
		}
		if err := st.attachments.Delete(ctx, attachmentID); err != nil {
			return NewTaskServiceError("remove_attachment", "failed to delete attachment", err)
		}
		return nil
	})
}
