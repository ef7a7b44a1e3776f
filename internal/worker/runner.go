package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// DefaultLockTTL bounds how long one ingestion may hold its document lock
const DefaultLockTTL = 10 * time.Minute

// Ingester runs the ingestion pipeline for one job.
type Ingester interface {
	Ingest(ctx context.Context, job *domain.IngestionJob, data []byte) (int, error)
}

// Runner executes one ingestion job at most once: it holds the
// ingest:<document_id> lock and skips jobs that already left the queue.
type Runner struct {
	ingester Ingester
	jobs     driven.JobStore
	lock     driven.DistributedLock
	lockTTL  time.Duration
	logger   *slog.Logger
}

// RunnerConfig holds configuration for the runner.
type RunnerConfig struct {
	Ingester Ingester
	Jobs     driven.JobStore
	Lock     driven.DistributedLock
	LockTTL  time.Duration
	Logger   *slog.Logger
}

// NewRunner creates a job runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Runner{
		ingester: cfg.Ingester,
		jobs:     cfg.Jobs,
		lock:     cfg.Lock,
		lockTTL:  ttl,
		logger:   logger.With("component", "ingest_worker"),
	}
}

// LockName returns the distributed lock guarding a document's ingestion
func LockName(documentID string) string {
	return "ingest:" + documentID
}

// Run processes the job and records its outcome. Failures are logged and
// stored on the job; they are never returned.
func (r *Runner) Run(ctx context.Context, job *domain.IngestionJob, data []byte) {
	// The scheduler's caller keeps its own pointer.
	cp := *job
	job = &cp

	logger := r.logger.With("job_id", job.ID, "document_id", job.DocumentID)
	start := time.Now()
	name := LockName(job.DocumentID)

	acquired, err := r.lock.Acquire(ctx, name, r.lockTTL)
	if err != nil {
		logger.Error("failed to acquire ingestion lock", "error", err)
		r.finish(ctx, job, 0, err, start, logger)
		return
	}
	if !acquired {
		logger.Info("document already being ingested, skipping")
		return
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx), name); err != nil {
			logger.Warn("failed to release ingestion lock", "error", err)
		}
	}()

	current, err := r.jobs.Get(ctx, job.ID)
	if err == nil && current.Status != domain.JobStatusQueued {
		logger.Info("job no longer queued, skipping", "status", current.Status)
		return
	}

	job.MarkRunning()
	if err := r.jobs.Save(ctx, job); err != nil {
		logger.Warn("failed to record job start", "error", err)
	}
	logger.Info("ingestion started", "filename", job.Filename, "bytes", len(data))

	chunks, err := r.ingester.Ingest(ctx, job, data)
	r.finish(ctx, job, chunks, err, start, logger)
}

func (r *Runner) finish(ctx context.Context, job *domain.IngestionJob, chunks int, err error, start time.Time, logger *slog.Logger) {
	elapsed := time.Since(start)
	if err != nil {
		job.MarkFailed(err.Error())
		logger.Error("ingestion failed", "elapsed", elapsed, "error", err)
	} else {
		job.MarkSucceeded(chunks)
		logger.Info("ingestion succeeded", "chunks", chunks, "elapsed", elapsed)
	}

	if saveErr := r.jobs.Save(context.WithoutCancel(ctx), job); saveErr != nil {
		logger.Error("failed to record job outcome", "error", saveErr)
	}
}
