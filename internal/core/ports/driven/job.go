package driven

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// JobStore persists ingestion job records so their status is observable
type JobStore interface {
	// Save creates or updates a job
	Save(ctx context.Context, job *domain.IngestionJob) error

	// Get retrieves a job by ID
	Get(ctx context.Context, id string) (*domain.IngestionJob, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error
}

// JobScheduler runs ingestion jobs detached from the request that created them
type JobScheduler interface {
	// Schedule hands the job and the raw file to a background worker.
	// It returns once the job is accepted, not when it finishes.
	Schedule(ctx context.Context, job *domain.IngestionJob, data []byte) error
}
