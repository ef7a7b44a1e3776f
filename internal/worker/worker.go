package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.JobScheduler = (*Worker)(nil)
	_ driven.JobScheduler = (*InlineScheduler)(nil)
)

// DefaultReleaseTimeout bounds how long Stop waits for running jobs
const DefaultReleaseTimeout = 30 * time.Second

// Worker runs ingestion jobs on an ants goroutine pool, detached from the
// request that scheduled them.
type Worker struct {
	pool   *ants.Pool
	runner *Runner
	logger *slog.Logger

	releaseTimeout time.Duration

	// ctx is the parent of every job; cancelled when Stop gives up waiting
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	running bool
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	Runner *Runner
	Logger *slog.Logger

	// Concurrency bounds running jobs; 0 means unbounded.
	// When bounded, Schedule blocks until a slot frees up.
	Concurrency int

	// ReleaseTimeout bounds how long Stop waits for running jobs
	ReleaseTimeout time.Duration
}

// NewWorker creates a worker pool and starts accepting jobs.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	size := cfg.Concurrency
	if size <= 0 {
		size = -1 // unbounded
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	releaseTimeout := cfg.ReleaseTimeout
	if releaseTimeout <= 0 {
		releaseTimeout = DefaultReleaseTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger.Info("worker starting", "concurrency", cfg.Concurrency)

	return &Worker{
		pool:           pool,
		runner:         cfg.Runner,
		logger:         logger,
		releaseTimeout: releaseTimeout,
		ctx:            ctx,
		cancel:         cancel,
		running:        true,
	}, nil
}

// Schedule hands the job to the pool and returns once a worker accepted it.
func (w *Worker) Schedule(ctx context.Context, job *domain.IngestionJob, data []byte) error {
	err := w.pool.Submit(func() {
		w.runner.Run(w.ctx, job, data)
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return fmt.Errorf("%w: worker stopped", domain.ErrServiceUnavailable)
	}
	return err
}

// Stop stops accepting jobs and waits for running ones up to the release timeout.
// Jobs still running after that have their context cancelled.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	if err := w.pool.ReleaseTimeout(w.releaseTimeout); err != nil {
		w.logger.Warn("worker stop timed out, cancelling running jobs",
			"running", w.pool.Running(),
			"error", err,
		)
	}
	w.cancel()

	w.logger.Info("worker stopped")
}

// Health returns health status of the worker.
type Health struct {
	Running bool `json:"running"`
	Active  int  `json:"active_jobs"`
}

// Health returns the health status of the worker.
func (w *Worker) Health() Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	return Health{
		Running: running,
		Active:  w.pool.Running(),
	}
}

// Check reports the pool as a readiness dependency: a stopped worker
// cannot accept uploads.
func (w *Worker) Check(ctx context.Context) error {
	h := w.Health()
	if !h.Running {
		return fmt.Errorf("%w: worker stopped", domain.ErrServiceUnavailable)
	}
	return nil
}

// InlineScheduler runs each job synchronously in the caller's goroutine.
// Used by one-off CLI ingestion.
type InlineScheduler struct {
	Runner *Runner
}

// Schedule runs the job to completion before returning.
func (s *InlineScheduler) Schedule(ctx context.Context, job *domain.IngestionJob, data []byte) error {
	s.Runner.Run(ctx, job, data)
	return nil
}
