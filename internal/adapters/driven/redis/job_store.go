package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.JobStore = (*JobStore)(nil)

const jobPrefix = keyPrefix + "job:"

// DefaultJobRetention is how long finished job records stay readable.
const DefaultJobRetention = 7 * 24 * time.Hour

// JobStore implements driven.JobStore storing each job as a JSON string.
type JobStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewJobStore creates a Redis-backed JobStore.
// Terminal jobs expire after retention; zero keeps them forever.
func NewJobStore(client *redis.Client, retention time.Duration) *JobStore {
	return &JobStore{client: client, retention: retention}
}

// Save creates or updates a job.
func (s *JobStore) Save(ctx context.Context, job *domain.IngestionJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	var ttl time.Duration
	if job.Status.IsTerminal() {
		ttl = s.retention
	}
	if err := s.client.Set(ctx, jobPrefix+job.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *JobStore) Get(ctx context.Context, id string) (*domain.IngestionJob, error) {
	data, err := s.client.Get(ctx, jobPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}

	var job domain.IngestionJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

// Ping checks if Redis is reachable.
func (s *JobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
