package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// MockChatSessionStore is a mock implementation of ChatSessionStore for testing
type MockChatSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
}

// NewMockChatSessionStore creates a new MockChatSessionStore
func NewMockChatSessionStore() *MockChatSessionStore {
	return &MockChatSessionStore{
		sessions: make(map[string]*domain.ChatSession),
	}
}

func (m *MockChatSessionStore) Create(ctx context.Context, session *domain.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *MockChatSessionStore) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockChatSessionStore) ListByUser(ctx context.Context, userID string) ([]*domain.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.ChatSession
	for _, s := range m.sessions {
		if s.UserID == userID {
			cp := *s
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (m *MockChatSessionStore) UpdateTitle(ctx context.Context, id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Title = title
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockChatSessionStore) Touch(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MockChatSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
