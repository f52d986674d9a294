package api

import (
	"log/slog"
	"net/http"

	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/service"
)

// RelatedHandler handles the HTTP surface for tags, comments and attachments
// hanging off a task.
type RelatedHandler struct {
	relatedService service.RelatedService
	logger         *slog.Logger
}

// NewRelatedHandler creates a new RelatedHandler.
func NewRelatedHandler(relatedService service.RelatedService, logger *slog.Logger) *RelatedHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for RelatedHandler")
	}

	return &RelatedHandler{
		relatedService: relatedService,
		logger:         logger.With(slog.String("component", "related_handler")),
	}
}

// AddTag handles POST /tasks/{id}/tags requests.
func (h *RelatedHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, taskID, ok := requireActorAndTaskID(w, r)
	if !ok {
		return
	}

	var req AddTagRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	tag, err := h.relatedService.AddTag(r.Context(), actor, taskID, req.Name)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("tag added",
		slog.String("task_id", taskID.String()),
		slog.String("tag_id", tag.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, TagResponse{ID: tag.ID, Name: tag.Name})
}

// RemoveTag handles DELETE /tasks/{id}/tags/{tagID} requests.
func (h *RelatedHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndTaskID(w, r)
	if !ok {
		return
	}

	tagID, err := getPathUUID(r, "tagID")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if err := h.relatedService.RemoveTag(r.Context(), actor, taskID, tagID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddComment handles POST /tasks/{id}/comments requests.
func (h *RelatedHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, taskID, ok := requireActorAndTaskID(w, r)
	if !ok {
		return
	}

	var req AddCommentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	comment, err := h.relatedService.AddComment(r.Context(), actor, taskID, req.Text)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("comment added",
		slog.String("task_id", taskID.String()),
		slog.String("comment_id", comment.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, CommentResponse{
		ID:        comment.ID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	})
}

// RemoveComment handles DELETE /tasks/{id}/comments/{commentID} requests.
func (h *RelatedHandler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndTaskID(w, r)
	if !ok {
		return
	}

	commentID, err := getPathUUID(r, "commentID")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if err := h.relatedService.RemoveComment(r.Context(), actor, taskID, commentID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddAttachment handles POST /tasks/{id}/attachments requests. Only the
// file reference is recorded; blob storage is out of scope here.
func (h *RelatedHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, taskID, ok := requireActorAndTaskID(w, r)
	if !ok {
		return
	}

	var req AddAttachmentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	attachment, err := h.relatedService.AddAttachment(r.Context(), actor, taskID, req.Path)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("attachment added",
		slog.String("task_id", taskID.String()),
		slog.String("attachment_id", attachment.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, AttachmentResponse{
		ID:   attachment.ID,
		Path: attachment.Path,
	})
}

// RemoveAttachment handles DELETE /tasks/{id}/attachments/{attachmentID} requests.
func (h *RelatedHandler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndTaskID(w, r)
	if !ok {
		return
	}

	attachmentID, err := getPathUUID(r, "attachmentID")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if err := h.relatedService.RemoveAttachment(r.Context(), actor, taskID, attachmentID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
