package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Document is an uploaded file whose text has been extracted.
// It is created after a successful parse and never modified afterwards.
type Document struct {
	ID          string    `json:"document_id"`
	SessionID   string    `json:"session_id"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash"`
	ParsedText  string    `json:"parsed_text,omitempty"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Extension returns the lower-cased file extension including the dot.
func (d *Document) Extension() string {
	return FileExtension(d.Filename)
}

// FileExtension returns the lower-cased extension of a filename including the dot.
func FileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Chunk is a bounded slice of a document's text, embedded and indexed independently.
type Chunk struct {
	ID         string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	SessionID  string    `json:"session_id"`
	Ordinal    int       `json:"ordinal"` // zero-based, assigned at chunk time
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding,omitempty"`

	// Page is the 1-based page the chunk starts on; 0 when the format has no pages.
	Page int `json:"page,omitempty"`

	// Section names the slide or heading the chunk starts in; empty when unknown.
	Section string `json:"section,omitempty"`

	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChunkID builds the identifier of the chunk at ordinal within a document.
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, ordinal)
}

// RankedChunk is a chunk returned by a similarity search.
type RankedChunk struct {
	Chunk *Chunk  `json:"chunk"`
	Score float64 `json:"score"`
}

// ChunkFilter restricts a similarity search.
// SessionID is a hard filter: chunks of other sessions are never returned.
type ChunkFilter struct {
	SessionID  string
	DocumentID string
}

// Matches reports whether the chunk satisfies the filter.
func (f ChunkFilter) Matches(c *Chunk) bool {
	if c == nil {
		return false
	}
	if f.SessionID != "" && c.SessionID != f.SessionID {
		return false
	}
	if f.DocumentID != "" && c.DocumentID != f.DocumentID {
		return false
	}
	return true
}

// Segment is one unit of extracted text: a pdf page, a docx paragraph, a pptx slide.
type Segment struct {
	Text    string
	Page    int
	Section string
}

// ParsedDocument is the output of a file parser, in document order.
type ParsedDocument struct {
	Segments []Segment
}

// segmentSeparator joins segments in the concatenated text.
const segmentSeparator = "\n\n"

// Text concatenates non-empty segments in order.
func (p *ParsedDocument) Text() string {
	var b strings.Builder
	for _, seg := range p.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(segmentSeparator)
		}
		b.WriteString(text)
	}
	return b.String()
}

// Locate returns the page and section of the segment containing the byte offset
// of the concatenated text returned by Text.
func (p *ParsedDocument) Locate(offset int) (page int, section string) {
	pos := 0
	for _, seg := range p.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if pos > 0 {
			pos += len(segmentSeparator)
		}
		end := pos + len(text)
		if offset < end {
			return seg.Page, seg.Section
		}
		pos = end
		page, section = seg.Page, seg.Section
	}
	return page, section
}
