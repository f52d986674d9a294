package remind

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/store"
)

// ScannerConfig holds configuration for the reminder scanner.
type ScannerConfig struct {
	// Interval between scan ticks.
	Interval time.Duration

	// Horizon is how far ahead of now a due date must fall for a task to
	// get a reminder enqueued.
	Horizon time.Duration
}

// DefaultScannerConfig returns a ScannerConfig with reasonable defaults.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		Interval: time.Hour,
		Horizon:  24 * time.Hour,
	}
}

// Scanner is the reminder producer. On each tick it reads incomplete tasks
// due within the horizon and enqueues a reminder job for each, relying on
// the queue's dedup key to make re-scans idempotent. Only one scan is in
// flight at a time; a tick that fires mid-scan is skipped, not queued.
type Scanner struct {
	tasks    store.TaskStore
	queue    Queue
	config   ScannerConfig
	logger   *slog.Logger
	scanning atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewScanner creates a Scanner over the given task store and queue.
func NewScanner(tasks store.TaskStore, queue Queue, config ScannerConfig, logger *slog.Logger) *Scanner {
	if config.Interval <= 0 {
		config.Interval = DefaultScannerConfig().Interval
	}
	if config.Horizon <= 0 {
		config.Horizon = DefaultScannerConfig().Horizon
	}

	return &Scanner{
		tasks:  tasks,
		queue:  queue,
		config: config,
		logger: logger.With("component", "reminder_scanner"),
	}
}

// Start launches the periodic scan loop. An immediate first scan runs so
// that a restart does not wait a full interval to catch up.
func (s *Scanner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if _, err := s.ScanOnce(ctx); err != nil {
			s.logger.Error("initial scan failed", "error", err)
		}

		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.ScanOnce(ctx); err != nil {
					s.logger.Error("scan failed", "error", err)
				}
			}
		}
	}()
}

// Stop halts the scan loop and waits for an in-flight scan to finish.
func (s *Scanner) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// ScanOnce performs a single scan tick and returns how many jobs were newly
// enqueued. A concurrent tick is skipped and reports zero. The failure of
// one task's enqueue never blocks the remaining tasks in the tick; failures
// are logged and the tick continues.
func (s *Scanner) ScanOnce(ctx context.Context) (int, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		s.logger.Warn("scan already in flight, skipping tick")
		return 0, nil
	}
	defer s.scanning.Store(false)

	cutoff := time.Now().UTC().Add(s.config.Horizon)
	tasks, err := s.tasks.ListDueBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list due tasks: %w", err)
	}

	enqueued := 0
	failures := 0
	for _, task := range tasks {
		if task.Complete || task.DueDate == nil {
			// ListDueBefore should filter these, but a stale read model
			// must not turn into a reminder for a finished task.
			continue
		}

		job := Job{
			DedupKey:  DedupKey(task.ID, *task.DueDate),
			TaskID:    task.ID,
			Recipient: task.OwnerID,
			Subject:   fmt.Sprintf("Reminder: %q is due soon", task.Title),
			Body: fmt.Sprintf("Your task %q is due on %s.",
				task.Title, task.DueDate.UTC().Format("2006-01-02")),
		}

		added, err := s.queue.EnqueueIfAbsent(ctx, job)
		if err != nil {
			failures++
			s.logger.Error("failed to enqueue reminder",
				"task_id", task.ID,
				"dedup_key", job.DedupKey,
				"error", err)
			continue
		}
		if added {
			enqueued++
		}
	}

	s.logger.Info("scan tick complete",
		"due_tasks", len(tasks),
		"enqueued", enqueued,
		"failures", failures)

	return enqueued, nil
}
