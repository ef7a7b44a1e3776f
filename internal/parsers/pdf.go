package parsers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Parser = (*PDFParser)(nil)

// PDFParser extracts plain text per page using langchaingo's PDF loader.
type PDFParser struct{}

// NewPDFParser creates a new PDF parser.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Extensions returns the extensions this parser handles.
func (p *PDFParser) Extensions() []string {
	return []string{".pdf"}
}

// Parse returns one segment per page, numbered from 1.
func (p *PDFParser) Parse(ctx context.Context, data []byte) (doc *domain.ParsedDocument, err error) {
	// The underlying reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: pdf: %v", domain.ErrParseFailed, r)
		}
	}()

	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)))
	pages, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", domain.ErrParseFailed, err)
	}

	doc = &domain.ParsedDocument{Segments: make([]domain.Segment, 0, len(pages))}
	for i, page := range pages {
		number := i + 1
		if n, ok := page.Metadata["page"].(int); ok {
			number = n
		}
		doc.Segments = append(doc.Segments, domain.Segment{
			Text: strings.TrimSpace(page.PageContent),
			Page: number,
		})
	}
	return requireText(doc, "pdf")
}

// requireText rejects documents without extractable text.
func requireText(doc *domain.ParsedDocument, format string) (*domain.ParsedDocument, error) {
	if strings.TrimSpace(doc.Text()) == "" {
		return nil, fmt.Errorf("%w: %s: no extractable text", domain.ErrParseFailed, format)
	}
	return doc, nil
}
