package mocks

import (
	"context"
	"fmt"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// MockParser treats the file bytes as plain text, one segment per call.
type MockParser struct {
	Exts []string
	Err  error
}

// NewMockParser creates a MockParser for the given extensions
func NewMockParser(exts ...string) *MockParser {
	return &MockParser{Exts: exts}
}

func (m *MockParser) Parse(ctx context.Context, data []byte) (*domain.ParsedDocument, error) {
	if m.Err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailed, m.Err)
	}
	return &domain.ParsedDocument{Segments: []domain.Segment{{Text: string(data), Page: 1}}}, nil
}

func (m *MockParser) Extensions() []string {
	return m.Exts
}
