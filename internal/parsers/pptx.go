package parsers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Parser = (*PPTXParser)(nil)

// PPTXParser extracts shape text slide by slide.
type PPTXParser struct{}

// NewPPTXParser creates a new PPTX parser.
func NewPPTXParser() *PPTXParser {
	return &PPTXParser{}
}

// Extensions returns the extensions this parser handles.
func (p *PPTXParser) Extensions() []string {
	return []string{".pptx"}
}

const (
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
)

type slidePart struct {
	number int
	file   *zip.File
}

// Parse returns one segment per slide in presentation order, labelled "Slide N".
// Paragraphs within a slide are joined by newlines.
func (p *PPTXParser) Parse(ctx context.Context, data []byte) (*domain.ParsedDocument, error) {
	reader, err := openArchive(data, "pptx")
	if err != nil {
		return nil, err
	}

	files := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		files[f.Name] = f
	}
	slides := presentationSlides(files)
	if len(slides) == 0 {
		slides = numberedSlides(reader.File)
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: pptx: no slides", domain.ErrParseFailed)
	}

	doc := &domain.ParsedDocument{Segments: make([]domain.Segment, 0, len(slides))}
	for _, s := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := readPart(s.file)
		if err != nil {
			return nil, fmt.Errorf("%w: pptx: slide %d: %v", domain.ErrParseFailed, s.number, err)
		}
		paragraphs, err := readParagraphs(content)
		if err != nil {
			return nil, fmt.Errorf("%w: pptx: slide %d: %v", domain.ErrParseFailed, s.number, err)
		}

		lines := make([]string, 0, len(paragraphs))
		for _, para := range paragraphs {
			if para.Text != "" {
				lines = append(lines, para.Text)
			}
		}
		doc.Segments = append(doc.Segments, domain.Segment{
			Text:    strings.Join(lines, "\n"),
			Page:    s.number,
			Section: "Slide " + strconv.Itoa(s.number),
		})
	}
	return requireText(doc, "pptx")
}

// presentationSlides resolves the slide list of ppt/presentation.xml through
// its relationships. Returns nil when either part is missing or unreadable.
func presentationSlides(files map[string]*zip.File) []slidePart {
	presentation, ok := files[presentationPart]
	if !ok {
		return nil
	}
	rels, ok := files[presentationRels]
	if !ok {
		return nil
	}

	content, err := readPart(presentation)
	if err != nil {
		return nil
	}
	ids, err := slideRelationshipIDs(content)
	if err != nil {
		return nil
	}
	content, err = readPart(rels)
	if err != nil {
		return nil
	}
	targets, err := relationshipTargets(content)
	if err != nil {
		return nil
	}

	var slides []slidePart
	for _, id := range ids {
		f, ok := files[targets[id]]
		if !ok {
			continue
		}
		slides = append(slides, slidePart{number: len(slides) + 1, file: f})
	}
	return slides
}

// slideRelationshipIDs returns the r:id of each <sldId> in document order.
func slideRelationshipIDs(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var ids []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "sldId" {
			continue
		}
		// The plain id attribute is the slide ID; the namespaced one is the relationship.
		for _, attr := range start.Attr {
			if attr.Name.Local == "id" && attr.Name.Space != "" {
				ids = append(ids, attr.Value)
			}
		}
	}
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// relationshipTargets maps relationship IDs to archive paths. Targets are
// relative to ppt/ unless they start with a slash.
func relationshipTargets(data []byte) (map[string]string, error) {
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		if strings.HasPrefix(r.Target, "/") {
			targets[r.ID] = strings.TrimPrefix(path.Clean(r.Target), "/")
		} else {
			targets[r.ID] = path.Join("ppt", r.Target)
		}
	}
	return targets, nil
}

// numberedSlides orders slide parts by the number in their file name, for
// packages without a readable presentation part.
func numberedSlides(files []*zip.File) []slidePart {
	var slides []slidePart
	for _, f := range files {
		if n, ok := slideNumber(f.Name); ok {
			slides = append(slides, slidePart{number: n, file: f})
		}
	}
	// slide10.xml sorts after slide9.xml
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })
	return slides
}

// slideNumber parses "ppt/slides/slideN.xml".
func slideNumber(name string) (int, bool) {
	const prefix, suffix = "ppt/slides/slide", ".xml"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
