package postprocessors

import (
	"sort"
	"sync"

	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline implements PostProcessorPipeline.
// It chains multiple post-processors in order, starting with a Chunker.
type Pipeline struct {
	mu         sync.Mutex
	processors []driven.PostProcessor
	sorted     bool
}

// NewPipeline creates a new post-processor pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.PostProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order to the document text.
// Positions of the returned chunks are renumbered from 0 because later
// stages may drop chunks.
func (p *Pipeline) Process(content string) []driven.Chunk {
	processors := p.ordered()

	chunks := []driven.Chunk{{
		Content:     content,
		StartOffset: 0,
		EndOffset:   len(content),
	}}
	for _, proc := range processors {
		chunks = proc.Process(chunks)
	}

	for i := range chunks {
		chunks[i].Position = i
	}
	return chunks
}

func (p *Pipeline) ordered() []driven.PostProcessor {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	return append([]driven.PostProcessor(nil), p.processors...)
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	processors := p.ordered()
	names := make([]string, len(processors))
	for i, proc := range processors {
		names[i] = proc.Name()
	}
	return names
}

// DefaultPipeline creates the ingestion pipeline for the given chunk config.
// Repeated passages are kept; add a Deduplicator to drop them.
func DefaultPipeline(config ChunkConfig) *Pipeline {
	p := NewPipeline()
	p.Add(NewChunker(config))
	p.Add(NewWhitespaceNormalizer())
	return p
}
