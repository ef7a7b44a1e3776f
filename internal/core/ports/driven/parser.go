package driven

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// Parser extracts text from one file format.
type Parser interface {
	// Parse extracts text segments in document order.
	// Failures wrap domain.ErrParseFailed.
	Parse(ctx context.Context, data []byte) (*domain.ParsedDocument, error)

	// Extensions returns the lower-cased extensions this parser handles, e.g. ".pdf"
	Extensions() []string
}

// ParserRegistry selects a parser by file extension.
type ParserRegistry interface {
	// Get returns the parser for a filename's extension, case-insensitively.
	// Returns nil if no parser handles it.
	Get(filename string) Parser

	// Register registers a parser for all of its extensions.
	Register(parser Parser)

	// List returns all registered extensions, sorted.
	List() []string
}
