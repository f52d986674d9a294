package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/taskdeck/taskdeck-api/internal/config"
	"github.com/taskdeck/taskdeck-api/internal/platform/postgres"
	"github.com/taskdeck/taskdeck-api/internal/remind"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// application holds the wired-up components of the server: stores, services
// and the reminder pipeline. It owns their lifecycles.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore       store.TaskStore
	tagStore        store.TagStore
	commentStore    store.CommentStore
	attachmentStore store.AttachmentStore

	reminderQueue remind.Queue
	scanner       *remind.Scanner
	workerPool    *remind.WorkerPool

	jwtService     auth.JWTService
	taskService    service.TaskService
	relatedService service.RelatedService
	queryEngine    *service.QueryEngine
}

// newApplication wires up all application components from configuration and
// an open database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	taskStore := postgres.NewPostgresTaskStore(db, logger)
	tagStore := postgres.NewPostgresTagStore(db, logger)
	commentStore := postgres.NewPostgresCommentStore(db, logger)
	attachmentStore := postgres.NewPostgresAttachmentStore(db, logger)

	reminderQueue := postgres.NewPostgresReminderQueue(db, cfg.Reminder.MaxAttempts, logger)

	scanner := remind.NewScanner(taskStore, reminderQueue, remind.ScannerConfig{
		Interval: cfg.Reminder.ScanInterval,
		Horizon:  cfg.Reminder.Horizon,
	}, logger)

	notifier := remind.NewLogNotifier(logger)
	workerPool := remind.NewWorkerPool(reminderQueue, notifier, remind.WorkerPoolConfig{
		WorkerCount:   cfg.Reminder.WorkerCount,
		LeaseDuration: cfg.Reminder.LeaseDuration,
		PollInterval:  cfg.Reminder.PollInterval,
		NotifyTimeout: cfg.Reminder.NotifyTimeout,
	}, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	taskService, err := service.NewTaskService(taskStore, reminderQueue, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	relatedService, err := service.NewRelatedService(
		db, taskStore, tagStore, commentStore, attachmentStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create related service: %w", err)
	}

	queryEngine, err := service.NewQueryEngine(taskStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create query engine: %w", err)
	}

	return &application{
		config:          cfg,
		logger:          logger,
		db:              db,
		taskStore:       taskStore,
		tagStore:        tagStore,
		commentStore:    commentStore,
		attachmentStore: attachmentStore,
		reminderQueue:   reminderQueue,
		scanner:         scanner,
		workerPool:      workerPool,
		jwtService:      jwtService,
		taskService:     taskService,
		relatedService:  relatedService,
		queryEngine:     queryEngine,
	}, nil
}

// Run starts the reminder pipeline and the HTTP server, blocking until the
// context is cancelled or the server fails.
func (app *application) Run(ctx context.Context) error {
	app.scanner.Start()
	app.workerPool.Start()

	err := app.startHTTPServer(ctx, app.setupRouter())

	app.cleanup()
	return err
}

// cleanup stops the background pipeline. The worker pool drains in-flight
// deliveries before returning.
func (app *application) cleanup() {
	app.scanner.Stop()
	app.workerPool.Stop()
	app.logger.Info("Background reminder pipeline stopped")
}
