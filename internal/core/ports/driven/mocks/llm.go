package mocks

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// ErrMockStream is the default mid-stream failure of MockLLMService.
var ErrMockStream = errors.New("mock provider failure")

// MockLLMService is a scripted LLMService for testing.
// StreamComplete replays Fragments, then ends with FailWith if set, else io.EOF.
type MockLLMService struct {
	mu sync.Mutex

	Fragments []string
	FailWith  error // returned by Recv after all fragments
	OpenErr   error // returned by StreamComplete

	// CompleteFn answers Complete; defaults to returning CompleteText
	CompleteFn   func(prompt string) (string, error)
	CompleteText string

	prompts []string
	closed  int
}

// NewMockLLMService creates a mock that streams the given fragments successfully
func NewMockLLMService(fragments ...string) *MockLLMService {
	return &MockLLMService{Fragments: fragments}
}

func (m *MockLLMService) StreamComplete(ctx context.Context, prompt string) (driven.TokenStream, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	openErr := m.OpenErr
	fragments := append([]string(nil), m.Fragments...)
	failWith := m.FailWith
	m.mu.Unlock()

	if openErr != nil {
		return nil, openErr
	}
	return &mockTokenStream{ctx: ctx, fragments: fragments, failWith: failWith, parent: m}, nil
}

func (m *MockLLMService) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFn != nil {
		return m.CompleteFn(prompt)
	}
	return m.CompleteText, nil
}

func (m *MockLLMService) Model() string {
	return "mock-llm"
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockLLMService) Close() error {
	return nil
}

// Prompts returns every prompt received, in call order
func (m *MockLLMService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// StreamsClosed returns how many token streams were closed
func (m *MockLLMService) StreamsClosed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type mockTokenStream struct {
	ctx       context.Context
	fragments []string
	failWith  error
	pos       int
	closed    bool
	parent    *MockLLMService
}

func (s *mockTokenStream) Recv() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.pos < len(s.fragments) {
		f := s.fragments[s.pos]
		s.pos++
		return f, nil
	}
	if s.failWith != nil {
		return "", s.failWith
	}
	return "", io.EOF
}

func (s *mockTokenStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.parent.mu.Lock()
	s.parent.closed++
	s.parent.mu.Unlock()
	return nil
}
