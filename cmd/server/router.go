package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taskdeck/taskdeck-api/internal/api"
	apiMiddleware "github.com/taskdeck/taskdeck-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	taskHandler := api.NewTaskHandler(app.taskService, app.queryEngine, app.logger)
	relatedHandler := api.NewRelatedHandler(app.relatedService, app.logger)
	adminHandler := api.NewAdminHandler(app.reminderQueue, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Task endpoints
			r.Get("/tasks", taskHandler.ListTasks)
			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Patch("/tasks/{id}", taskHandler.UpdateTask)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)

			// Related entity endpoints
			r.Post("/tasks/{id}/tags", relatedHandler.AddTag)
			r.Delete("/tasks/{id}/tags/{tagID}", relatedHandler.RemoveTag)
			r.Post("/tasks/{id}/comments", relatedHandler.AddComment)
			r.Delete("/tasks/{id}/comments/{commentID}", relatedHandler.RemoveComment)
			r.Post("/tasks/{id}/attachments", relatedHandler.AddAttachment)
			r.Delete("/tasks/{id}/attachments/{attachmentID}", relatedHandler.RemoveAttachment)

			// Operator endpoints
			r.Get("/admin/reminders/dead", adminHandler.ListDeadJobs)
		})
	})

	// Health check endpoint (public)
	r.Get("/health", adminHandler.Health)

	return r
}
