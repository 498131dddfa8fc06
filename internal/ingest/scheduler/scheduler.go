// Package scheduler triggers ingestion runs on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job represents a scheduled task.
type Job struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Scheduler runs jobs at a fixed interval. Ticks that arrive while jobs are
// still running are dropped.
type Scheduler struct {
	jobs    []Job
	logger  *slog.Logger
	done    chan struct{}
	mu      sync.Mutex // guards stopped and running.Add
	stopped bool
	running sync.WaitGroup
}

// NewScheduler creates a new scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		logger: slog.Default().With("component", "scheduler"),
		done:   make(chan struct{}),
	}
}

// Add registers a job with the scheduler.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// RunOnce executes every registered job once, in order. A failing job is
// logged and does not stop the ones after it; the first error is returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var first error
	for _, job := range s.jobs {
		s.logger.Info("running job", "name", job.Name)
		start := time.Now()
		if err := job.Fn(ctx); err != nil {
			s.logger.Error("job failed", "name", job.Name, "error", err, "duration", time.Since(start))
			if first == nil {
				first = err
			}
			continue
		}
		s.logger.Info("job completed", "name", job.Name, "duration", time.Since(start))
	}
	return first
}

// Start runs the jobs immediately and then every interval until ctx is done
// or Stop is called. It blocks. Start after Stop returns at once.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.running.Add(1)
	s.mu.Unlock()
	defer s.running.Done()

	s.logger.Info("scheduler started", "interval", interval, "jobs", len(s.jobs))

	_ = s.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-s.done:
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}

// Stop stops the scheduler and waits for a job run in progress to finish.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.done)
	}
	s.mu.Unlock()
	s.running.Wait()
}
