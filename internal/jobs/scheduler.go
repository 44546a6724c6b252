// Package jobs runs periodic database maintenance next to the HTTP server.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each job once at start and then on its interval. It
// implements cartridge.BackgroundWorker.
type Scheduler struct {
	logger *slog.Logger
	jobs   []Job

	mu        sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool

	// one job at a time keeps SQLite write contention low
	runMu sync.Mutex
}

func NewScheduler(logger *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{logger: logger, jobs: jobs}
}

// executeJobSafely runs a job, recovering panics and logging errors.
func (s *Scheduler) executeJobSafely(ctx context.Context, job Job) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", job.Name),
				slog.Any("panic", r))
		}
	}()

	if err := job.Run(ctx); err != nil {
		s.logger.Error("Error executing job", slog.String("job", job.Name), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.isRunning = true

	for _, job := range s.jobs {
		s.logger.Info("Starting background job", slog.String("job", job.Name), slog.Duration("interval", job.Interval))
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
	return nil
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.executeJobSafely(ctx, job)
	for {
		select {
		case <-ticker.C:
			s.executeJobSafely(ctx, job)
		case <-ctx.Done():
			s.logger.Info("Background job stopped", slog.String("job", job.Name))
			return
		}
	}
}

// Stop halts all background jobs and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.isRunning = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunOnce executes every job a single time, in order, without starting the
// scheduler.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, job := range s.jobs {
		s.executeJobSafely(ctx, job)
	}
}
