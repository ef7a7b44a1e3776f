package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// MockSessionContextStore is a mock implementation of SessionContextStore for testing.
// It keeps at most MaxLen turns per session and never expires them.
type MockSessionContextStore struct {
	mu       sync.Mutex
	windows  map[string][]domain.ConversationTurn
	MaxLen   int
	appended int

	// Err, when set, is returned by every operation to simulate an unreachable store
	Err error
}

// NewMockSessionContextStore creates a new MockSessionContextStore
func NewMockSessionContextStore(maxLen int) *MockSessionContextStore {
	return &MockSessionContextStore{
		windows: make(map[string][]domain.ConversationTurn),
		MaxLen:  maxLen,
	}
}

func (m *MockSessionContextStore) Append(ctx context.Context, sessionID string, turn domain.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.appended++
	window := append(m.windows[sessionID], turn)
	if m.MaxLen > 0 && len(window) > m.MaxLen {
		window = window[len(window)-m.MaxLen:]
	}
	m.windows[sessionID] = window
	return nil
}

func (m *MockSessionContextStore) Window(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]domain.ConversationTurn{}, m.windows[sessionID]...), nil
}

func (m *MockSessionContextStore) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.windows, sessionID)
	return nil
}

func (m *MockSessionContextStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

// Appended returns the number of successful appends
func (m *MockSessionContextStore) Appended() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appended
}
