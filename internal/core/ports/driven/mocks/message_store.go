package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// MockMessageStore is a mock implementation of MessageStore for testing
type MockMessageStore struct {
	mu       sync.Mutex
	messages []*domain.StoredMessage

	// Err, when set, is returned by every operation
	Err error
}

// NewMockMessageStore creates a new MockMessageStore
func NewMockMessageStore() *MockMessageStore {
	return &MockMessageStore{}
}

func (m *MockMessageStore) Insert(ctx context.Context, msg *domain.StoredMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *MockMessageStore) ListBySession(ctx context.Context, sessionID string, limit int, order domain.SortOrder) ([]*domain.StoredMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var result []*domain.StoredMessage
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			result = append(result, msg)
		}
	}
	if order == domain.SortDesc {
		for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
			result[i], result[j] = result[j], result[i]
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockMessageStore) FirstUserMessage(ctx context.Context, sessionID string) (*domain.StoredMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, msg := range m.messages {
		if msg.SessionID == sessionID && msg.Role == domain.RoleUser {
			return msg, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockMessageStore) DeleteBySession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.SessionID != sessionID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

func (m *MockMessageStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

// Messages returns all stored messages of a session in insertion order
func (m *MockMessageStore) Messages(sessionID string) []*domain.StoredMessage {
	msgs, _ := m.ListBySession(context.Background(), sessionID, 0, domain.SortAsc)
	return msgs
}
