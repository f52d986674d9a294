package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Validation errors for the entities tasks reference. All wrap ErrValidation.
var (
	ErrEmptyTagName        = fmt.Errorf("%w: tag name cannot be empty", ErrValidation)
	ErrEmptyCommentText    = fmt.Errorf("%w: comment text cannot be empty", ErrValidation)
	ErrEmptyAttachmentPath = fmt.Errorf("%w: attachment path cannot be empty", ErrValidation)
)

// Tag is a label that tasks reference by ID. Tags have their own lifecycle;
// deleting a task never deletes its tags.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NewTag creates a new Tag with the given name.
func NewTag(name string) (*Tag, error) {
	tag := &Tag{
		ID:   uuid.New(),
		Name: name,
	}
	if err := tag.Validate(); err != nil {
		return nil, err
	}
	return tag, nil
}

// Validate checks if the Tag has valid data.
func (t *Tag) Validate() error {
	if t.ID == uuid.Nil {
		return ErrInvalidID
	}
	if t.Name == "" {
		return ErrEmptyTagName
	}
	return nil
}

// Comment is a note that tasks reference by ID.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment creates a new Comment with the given text.
func NewComment(text string) (*Comment, error) {
	comment := &Comment{
		ID:        uuid.New(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	return comment, nil
}

// Validate checks if the Comment has valid data.
func (c *Comment) Validate() error {
	if c.ID == uuid.Nil {
		return ErrInvalidID
	}
	if c.Text == "" {
		return ErrEmptyCommentText
	}
	return nil
}

// Attachment is a stored file that tasks reference by ID. Only the path is
// tracked here; the file bytes live in external storage.
type Attachment struct {
	ID   uuid.UUID `json:"id"`
	Path string    `json:"path"`
}

// NewAttachment creates a new Attachment pointing at the given path.
func NewAttachment(path string) (*Attachment, error) {
	attachment := &Attachment{
		ID:   uuid.New(),
		Path: path,
	}
	if err := attachment.Validate(); err != nil {
		return nil, err
	}
	return attachment, nil
}

// Validate checks if the Attachment has valid data.
func (a *Attachment) Validate() error {
	if a.ID == uuid.Nil {
		return ErrInvalidID
	}
	if a.Path == "" {
		return ErrEmptyAttachmentPath
	}
	return nil
}
