package domain

import "testing"

func TestFileExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"report.pdf", ".pdf"},
		{"Slides.PPTX", ".pptx"},
		{"notes.final.docx", ".docx"},
		{"README", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := FileExtension(tt.filename); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestChunkID(t *testing.T) {
	if got := ChunkID("doc-1", 3); got != "doc-1_chunk_3" {
		t.Errorf("unexpected chunk ID %q", got)
	}
}

func TestChunkFilter_Matches(t *testing.T) {
	chunk := &Chunk{DocumentID: "doc-1", SessionID: "s1"}

	if !(ChunkFilter{SessionID: "s1"}).Matches(chunk) {
		t.Error("expected session filter to match")
	}
	if (ChunkFilter{SessionID: "s2"}).Matches(chunk) {
		t.Error("expected other session to be rejected")
	}
	if (ChunkFilter{SessionID: "s1", DocumentID: "doc-2"}).Matches(chunk) {
		t.Error("expected other document to be rejected")
	}
	if (ChunkFilter{}).Matches(nil) {
		t.Error("expected nil chunk to be rejected")
	}
}

func TestParsedDocument_Text(t *testing.T) {
	doc := &ParsedDocument{Segments: []Segment{
		{Text: "  First page. ", Page: 1},
		{Text: "   ", Page: 2},
		{Text: "Third page.", Page: 3},
	}}

	want := "First page.\n\nThird page."
	if got := doc.Text(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParsedDocument_Locate(t *testing.T) {
	doc := &ParsedDocument{Segments: []Segment{
		{Text: "Alpha", Page: 1, Section: "Intro"},
		{Text: "Beta", Page: 2, Section: "Body"},
	}}
	// "Alpha\n\nBeta": Alpha is [0,5), Beta is [7,11)

	tests := []struct {
		offset      int
		wantPage    int
		wantSection string
	}{
		{0, 1, "Intro"},
		{4, 1, "Intro"},
		{7, 2, "Body"},
		{10, 2, "Body"},
		{50, 2, "Body"},
	}

	for _, tt := range tests {
		page, section := doc.Locate(tt.offset)
		if page != tt.wantPage || section != tt.wantSection {
			t.Errorf("offset %d: expected (%d, %q), got (%d, %q)",
				tt.offset, tt.wantPage, tt.wantSection, page, section)
		}
	}
}
