package remind

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WorkerPoolConfig holds configuration options for the worker pool.
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start.
	// If zero or negative, defaults to 1.
	WorkerCount int

	// LeaseDuration is how long a worker owns a leased job. Must exceed
	// NotifyTimeout with margin so a slow send does not lose its lease.
	LeaseDuration time.Duration

	// PollInterval is how long a worker sleeps when the queue is empty.
	PollInterval time.Duration

	// NotifyTimeout bounds a single Notifier.Send call. A send that runs
	// past it counts as a transient failure.
	NotifyTimeout time.Duration

	// ReapInterval is how often expired leases are returned to pending.
	// If zero, defaults to half the lease duration.
	ReapInterval time.Duration
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount:   2,
		LeaseDuration: 30 * time.Second,
		PollInterval:  time.Second,
		NotifyTimeout: 10 * time.Second,
	}
}

// WorkerPool runs a fixed set of workers that lease reminder jobs, invoke
// the notifier, and ack or nack. It also drives the queue's lease reaper so
// that jobs abandoned by a crashed or stopped worker are redelivered.
type WorkerPool struct {
	queue    Queue
	notifier Notifier
	config   WorkerPoolConfig
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWorkerPool creates a new worker pool with the specified configuration.
func NewWorkerPool(queue Queue, notifier Notifier, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	defaults := DefaultWorkerPoolConfig()
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if config.LeaseDuration <= 0 {
		config.LeaseDuration = defaults.LeaseDuration
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = defaults.NotifyTimeout
	}
	if config.ReapInterval <= 0 {
		config.ReapInterval = config.LeaseDuration / 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		queue:    queue,
		notifier: notifier,
		config:   config,
		logger:   logger.With("component", "reminder_worker_pool"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker goroutines and the lease reaper.
func (p *WorkerPool) Start() {
	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.wg.Add(1)
	go p.reaper()
}

// Stop shuts the pool down. Workers finish the job they hold; a lease that
// cannot be completed expires naturally and the job is redelivered on the
// next start, so no job is lost on shutdown.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
}

// worker leases and processes jobs until the pool is stopped.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker_id", id)
	logger.Debug("starting worker")

	for {
		select {
		case <-p.ctx.Done():
			logger.Debug("stopping worker")
			return
		default:
		}

		job, token, err := p.queue.Lease(p.ctx, p.config.LeaseDuration)
		if err != nil {
			if !errors.Is(err, ErrQueueEmpty) {
				logger.Error("failed to lease job", "error", err)
			}
			p.sleep(p.config.PollInterval)
			continue
		}

		p.process(logger, job, token)
	}
}

// process delivers one leased job and settles its lease.
func (p *WorkerPool) process(logger *slog.Logger, job *Job, token uuid.UUID) {
	logger = logger.With(
		"job_id", job.ID,
		"task_id", job.TaskID,
		"attempt", job.Attempts)

	// The send deliberately does not inherit the pool context: stopping the
	// pool lets the in-flight delivery finish rather than cancelling it.
	ctx, cancel := context.WithTimeout(context.Background(), p.config.NotifyTimeout)
	defer cancel()

	err := p.notifier.Send(ctx, job.Recipient, job.Subject, job.Body)
	if err == nil {
		logger.Info("reminder delivered")
		if ackErr := p.queue.Ack(context.Background(), token); ackErr != nil {
			// The lease expired mid-send; the job will be redelivered and
			// at-least-once absorbs the duplicate.
			logger.Warn("failed to ack delivered job", "error", ackErr)
		}
		return
	}

	if IsPermanentNotifyError(err) {
		logger.Error("permanent delivery failure, dead-lettering", "error", err)
		if deadErr := p.queue.MarkDead(context.Background(), token, err.Error()); deadErr != nil {
			logger.Warn("failed to dead-letter job", "error", deadErr)
		}
		return
	}

	logger.Warn("transient delivery failure, requeueing", "error", err)
	if nackErr := p.queue.Nack(context.Background(), token); nackErr != nil {
		logger.Warn("failed to nack job", "error", nackErr)
	}
}

// reaper periodically returns expired leases to the pending state.
func (p *WorkerPool) reaper() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			reaped, err := p.queue.ReapExpired(context.Background())
			if err != nil {
				p.logger.Error("failed to reap expired leases", "error", err)
				continue
			}
			if reaped > 0 {
				p.logger.Info("returned expired leases to pending", "count", reaped)
			}
		}
	}
}

// sleep waits for the given duration or until the pool is stopped.
func (p *WorkerPool) sleep(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-p.ctx.Done():
	case <-timer.C:
	}
}
