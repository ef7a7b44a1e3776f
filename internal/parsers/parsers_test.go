package parsers

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// createArchive builds an in-memory zip with the given parts.
func createArchive(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const docxTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>%s</w:body>
</w:document>`

func slideXML(paragraphs ...string) string {
	var body string
	for _, p := range paragraphs {
		body += `<a:p><a:r><a:t>` + p + `</a:t></a:r></a:p>`
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree><p:sp><p:txBody>` + body + `</p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`
}

func TestRegistry_Get(t *testing.T) {
	r := DefaultRegistry()

	assert.IsType(t, &PDFParser{}, r.Get("report.pdf"))
	assert.IsType(t, &DOCXParser{}, r.Get("notes.DOCX"))
	assert.IsType(t, &PPTXParser{}, r.Get("deck.PpTx"))
	assert.Nil(t, r.Get("notes.txt"))
	assert.Nil(t, r.Get("no-extension"))
	assert.True(t, r.Supports("a.pdf"))
	assert.False(t, r.Supports("a.doc"))
}

func TestRegistry_List(t *testing.T) {
	assert.Equal(t, []string{".docx", ".pdf", ".pptx"}, DefaultRegistry().List())
}

func TestRegistry_RegisterNormalisesExtensions(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeParser{exts: []string{"MD"}})
	assert.NotNil(t, r.Get("readme.md"))
}

type fakeParser struct{ exts []string }

func (f fakeParser) Parse(context.Context, []byte) (*domain.ParsedDocument, error) { return nil, nil }
func (f fakeParser) Extensions() []string                                          { return f.exts }

func TestDOCXParser_Parse(t *testing.T) {
	body := `<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Refunds</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Refunds are issued </w:t></w:r><w:r><w:t>within 30 days.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Contact support.</w:t></w:r></w:p>`
	data := createArchive(t, map[string]string{"word/document.xml": fmt.Sprintf(docxTemplate, body)})

	doc, err := NewDOCXParser().Parse(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, doc.Segments, 3)

	assert.Equal(t, "Refunds", doc.Segments[0].Text)
	assert.Equal(t, "Refunds are issued within 30 days.", doc.Segments[1].Text)
	assert.Equal(t, "Refunds", doc.Segments[1].Section)
	assert.Equal(t, 0, doc.Segments[1].Page)
	assert.Equal(t, "Refunds\n\nRefunds are issued within 30 days.\n\nContact support.", doc.Text())
}

func TestDOCXParser_Errors(t *testing.T) {
	ctx := context.Background()
	p := NewDOCXParser()

	_, err := p.Parse(ctx, []byte("not a zip"))
	assert.ErrorIs(t, err, domain.ErrParseFailed)

	_, err = p.Parse(ctx, createArchive(t, map[string]string{"other.xml": "<x/>"}))
	assert.ErrorIs(t, err, domain.ErrParseFailed)

	empty := createArchive(t, map[string]string{"word/document.xml": fmt.Sprintf(docxTemplate, "<w:p></w:p>")})
	_, err = p.Parse(ctx, empty)
	assert.ErrorIs(t, err, domain.ErrParseFailed)
}

func TestPPTXParser_Parse_SlideOrder(t *testing.T) {
	parts := map[string]string{
		"ppt/slides/slide1.xml":  slideXML("Welcome", "Agenda"),
		"ppt/slides/slide2.xml":  slideXML("Second"),
		"ppt/slides/slide10.xml": slideXML("Tenth"),
	}
	parts["ppt/slides/_rels/slide1.xml.rels"] = "<Relationships/>"
	for i := 3; i <= 9; i++ {
		parts[fmt.Sprintf("ppt/slides/slide%d.xml", i)] = slideXML(fmt.Sprintf("Slide body %d", i))
	}

	doc, err := NewPPTXParser().Parse(context.Background(), createArchive(t, parts))
	require.NoError(t, err)
	require.Len(t, doc.Segments, 10)

	assert.Equal(t, "Welcome\nAgenda", doc.Segments[0].Text)
	assert.Equal(t, "Slide 1", doc.Segments[0].Section)
	assert.Equal(t, "Second", doc.Segments[1].Text)
	assert.Equal(t, "Tenth", doc.Segments[9].Text)
	assert.Equal(t, 10, doc.Segments[9].Page)
}

func TestPPTXParser_Parse_PresentationOrder(t *testing.T) {
	// slide3 was moved to the front of the deck and slide2 is no longer part of it.
	parts := map[string]string{
		"ppt/presentation.xml": `<?xml version="1.0" encoding="UTF-8"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<p:sldIdLst><p:sldId id="258" r:id="rId4"/><p:sldId id="256" r:id="rId2"/></p:sldIdLst>
</p:presentation>`,
		"ppt/_rels/presentation.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide2.xml"/>
<Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="/ppt/slides/slide3.xml"/>
</Relationships>`,
		"ppt/slides/slide1.xml": slideXML("Originally first"),
		"ppt/slides/slide2.xml": slideXML("Not listed"),
		"ppt/slides/slide3.xml": slideXML("Opening"),
	}

	doc, err := NewPPTXParser().Parse(context.Background(), createArchive(t, parts))
	require.NoError(t, err)
	require.Len(t, doc.Segments, 2)

	assert.Equal(t, "Opening", doc.Segments[0].Text)
	assert.Equal(t, "Slide 1", doc.Segments[0].Section)
	assert.Equal(t, "Originally first", doc.Segments[1].Text)
	assert.Equal(t, 2, doc.Segments[1].Page)
}

func TestPPTXParser_Errors(t *testing.T) {
	ctx := context.Background()
	p := NewPPTXParser()

	_, err := p.Parse(ctx, createArchive(t, map[string]string{"ppt/presentation.xml": "<p/>"}))
	assert.ErrorIs(t, err, domain.ErrParseFailed)

	_, err = p.Parse(ctx, createArchive(t, map[string]string{"ppt/slides/slide1.xml": slideXML()}))
	assert.ErrorIs(t, err, domain.ErrParseFailed)

	_, err = p.Parse(ctx, createArchive(t, map[string]string{"ppt/slides/slide1.xml": "<unclosed"}))
	assert.ErrorIs(t, err, domain.ErrParseFailed)
}

func TestPDFParser_InvalidData(t *testing.T) {
	_, err := NewPDFParser().Parse(context.Background(), []byte("definitely not a pdf"))
	assert.ErrorIs(t, err, domain.ErrParseFailed)
}

func TestSlideNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"ppt/slides/slide1.xml", 1, true},
		{"ppt/slides/slide12.xml", 12, true},
		{"ppt/slides/_rels/slide1.xml.rels", 0, false},
		{"ppt/slideLayouts/slideLayout1.xml", 0, false},
		{"ppt/slides/slideX.xml", 0, false},
	}
	for _, tt := range tests {
		n, ok := slideNumber(tt.name)
		assert.Equal(t, tt.want, n, tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
	}
}
