package parsers

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Parser = (*DOCXParser)(nil)

// DOCXParser extracts paragraph text from word/document.xml.
type DOCXParser struct{}

// NewDOCXParser creates a new DOCX parser.
func NewDOCXParser() *DOCXParser {
	return &DOCXParser{}
}

// Extensions returns the extensions this parser handles.
func (p *DOCXParser) Extensions() []string {
	return []string{".docx"}
}

// Parse returns one segment per non-empty paragraph. Headings become the
// section of the paragraphs that follow them.
func (p *DOCXParser) Parse(ctx context.Context, data []byte) (*domain.ParsedDocument, error) {
	reader, err := openArchive(data, "docx")
	if err != nil {
		return nil, err
	}

	for _, f := range reader.File {
		if f.Name != "word/document.xml" {
			continue
		}
		content, err := readPart(f)
		if err != nil {
			return nil, fmt.Errorf("%w: docx: %v", domain.ErrParseFailed, err)
		}
		paragraphs, err := readParagraphs(content)
		if err != nil {
			return nil, fmt.Errorf("%w: docx: %v", domain.ErrParseFailed, err)
		}

		doc := &domain.ParsedDocument{}
		section := ""
		for _, para := range paragraphs {
			if para.Text == "" {
				continue
			}
			if isHeading(para.Style) {
				section = para.Text
			}
			doc.Segments = append(doc.Segments, domain.Segment{Text: para.Text, Section: section})
		}
		return requireText(doc, "docx")
	}
	return nil, fmt.Errorf("%w: docx: missing word/document.xml", domain.ErrParseFailed)
}

func isHeading(style string) bool {
	style = strings.ToLower(style)
	return strings.HasPrefix(style, "heading") || style == "title"
}
