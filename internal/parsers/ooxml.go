package parsers

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// maxPartSize bounds a single decompressed XML part.
const maxPartSize = 64 << 20

// openArchive opens an Office Open XML package.
func openArchive(data []byte, format string) (*zip.Reader, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrParseFailed, format, err)
	}
	return reader, nil
}

// readPart returns the contents of a file inside the archive.
func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxPartSize))
}

// xmlParagraph is the text of one <p> element and its style name, if any.
type xmlParagraph struct {
	Text  string
	Style string
}

// readParagraphs streams an XML part and collects the text runs (<t>) of each
// paragraph (<p>). Both WordprocessingML and DrawingML use these local names.
func readParagraphs(data []byte) ([]xmlParagraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		paragraphs []xmlParagraph
		current    strings.Builder
		style      string
		inText     bool
		depth      int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				depth++
				if depth == 1 {
					current.Reset()
					style = ""
				}
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				current.WriteByte('\n')
			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						style = attr.Value
					}
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, xmlParagraph{
						Text:  strings.TrimSpace(current.String()),
						Style: style,
					})
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}
