// Package parsers extracts text from uploaded files.
package parsers

import (
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry implements ParserRegistry with lookup by file extension.
// A later registration for the same extension replaces the earlier one.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]driven.Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]driven.Parser),
	}
}

// Register registers a parser for each of its extensions.
func (r *Registry) Register(parser driven.Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range parser.Extensions() {
		r.parsers[normaliseExt(ext)] = parser
	}
}

// Get returns the parser for the filename's extension, or nil.
func (r *Registry) Get(filename string) driven.Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.parsers[domain.FileExtension(filename)]
}

// List returns all registered extensions, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a parser is registered for the filename.
func (r *Registry) Supports(filename string) bool {
	return r.Get(filename) != nil
}

func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// DefaultRegistry creates a registry with the pdf, docx and pptx parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPDFParser())
	r.Register(NewDOCXParser())
	r.Register(NewPPTXParser())
	return r
}
