package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// MockJobStore is a mock implementation of JobStore for testing
type MockJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.IngestionJob

	// SaveErr, when set, is returned by Save
	SaveErr error
}

// NewMockJobStore creates a new MockJobStore
func NewMockJobStore() *MockJobStore {
	return &MockJobStore{jobs: make(map[string]*domain.IngestionJob)}
}

func (m *MockJobStore) Save(ctx context.Context, job *domain.IngestionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *MockJobStore) Get(ctx context.Context, id string) (*domain.IngestionJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *MockJobStore) Ping(ctx context.Context) error {
	return nil
}

// MockJobScheduler records scheduled jobs without running them.
// Set RunFn to execute jobs inline instead.
type MockJobScheduler struct {
	mu        sync.Mutex
	Scheduled []*domain.IngestionJob
	Err       error
	RunFn     func(ctx context.Context, job *domain.IngestionJob, data []byte)
}

// NewMockJobScheduler creates a new MockJobScheduler
func NewMockJobScheduler() *MockJobScheduler {
	return &MockJobScheduler{}
}

func (m *MockJobScheduler) Schedule(ctx context.Context, job *domain.IngestionJob, data []byte) error {
	m.mu.Lock()
	if m.Err != nil {
		m.mu.Unlock()
		return m.Err
	}
	m.Scheduled = append(m.Scheduled, job)
	run := m.RunFn
	m.mu.Unlock()

	if run != nil {
		run(ctx, job, data)
	}
	return nil
}

// Count returns the number of scheduled jobs
func (m *MockJobScheduler) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Scheduled)
}
