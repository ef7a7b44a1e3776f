package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.JobStore = (*JobStore)(nil)

// JobStore keeps ingestion jobs in memory.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.IngestionJob
}

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*domain.IngestionJob)}
}

func (s *JobStore) Save(ctx context.Context, job *domain.IngestionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *job
	s.jobs[job.ID] = &c
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*domain.IngestionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *job
	return &c, nil
}

func (s *JobStore) Ping(ctx context.Context) error {
	return nil
}
