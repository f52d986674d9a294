package api

import (
	"log/slog"
	"net/http"

	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/remind"
)

// AdminHandler exposes operator endpoints: health and the reminder
// dead-letter list.
type AdminHandler struct {
	queue  remind.Queue
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(queue remind.Queue, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AdminHandler")
	}

	return &AdminHandler{
		queue:  queue,
		logger: logger.With(slog.String("component", "admin_handler")),
	}
}

// Health handles GET /health requests.
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// ListDeadJobs handles GET /admin/reminders/dead requests. Jobs land here
// after exhausting their delivery attempts or failing permanently; the list
// is for operator inspection.
func (h *AdminHandler) ListDeadJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.queue.DeadJobs(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to list dead reminder jobs", err)
		return
	}

	out := make([]DeadJobResponse, len(jobs))
	for i, job := range jobs {
		out[i] = deadJobToResponse(job)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}
