package postprocessors

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// ChunkConfig configures the chunker behavior.
// Sizes are counted in characters (runes), offsets are reported in bytes.
type ChunkConfig struct {
	// MaxChunkSize is the maximum characters per chunk
	MaxChunkSize int

	// Overlap is the character overlap between chunks
	Overlap int

	// PreserveSentences tries to break at sentence boundaries
	PreserveSentences bool

	// PreserveParagraphs tries to break at paragraph boundaries
	PreserveParagraphs bool
}

// DefaultChunkConfig returns the ingestion defaults: 512 characters with 100 shared.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChunkSize:       512,
		Overlap:            100,
		PreserveSentences:  true,
		PreserveParagraphs: true,
	}
}

// breakLookback is how far back from a window's end a break point is searched.
const breakLookback = 100

var sentenceEnders = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

// Chunker splits content into overlapping windows.
// Output is a pure function of (content, config).
type Chunker struct {
	config ChunkConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Chunker)(nil)

// NewChunker creates a new chunker with the given config.
// An overlap not smaller than the chunk size is clamped so windows always advance.
func NewChunker(config ChunkConfig) *Chunker {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultChunkConfig().MaxChunkSize
	}
	if config.Overlap < 0 {
		config.Overlap = 0
	}
	if config.Overlap >= config.MaxChunkSize {
		config.Overlap = config.MaxChunkSize - 1
	}
	return &Chunker{config: config}
}

// Process splits every input chunk into windows.
func (c *Chunker) Process(chunks []driven.Chunk) []driven.Chunk {
	var result []driven.Chunk
	for _, chunk := range chunks {
		result = append(result, c.split(chunk.Content, chunk.StartOffset)...)
	}
	for i := range result {
		result[i].Position = i
	}
	return result
}

// Name returns the processor name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Order returns 0 - chunker should be first.
func (c *Chunker) Order() int {
	return 0
}

func (c *Chunker) split(content string, baseOffset int) []driven.Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	// byteAt[i] is the byte offset of rune i; byteAt[len(runes)] == len(content)
	runes := []rune(content)
	byteAt := make([]int, len(runes)+1)
	pos := 0
	for i, r := range runes {
		byteAt[i] = pos
		pos += utf8.RuneLen(r)
	}
	byteAt[len(runes)] = pos

	var chunks []driven.Chunk
	start := 0
	for start < len(runes) {
		end := start + c.config.MaxChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if bp := c.findBreakPoint(runes, start, end); bp > 0 {
			end = bp
		}

		chunks = append(chunks, driven.Chunk{
			Content:     string(runes[start:end]),
			StartOffset: baseOffset + byteAt[start],
			EndOffset:   baseOffset + byteAt[end],
		})

		if end >= len(runes) {
			break
		}
		start = end - c.config.Overlap
	}
	return chunks
}

// findBreakPoint returns the rune index just after the best boundary in the
// tail of [start, maxEnd), or 0 when there is none. A break point always
// leaves the next window starting after start.
func (c *Chunker) findBreakPoint(runes []rune, start, maxEnd int) int {
	searchStart := maxEnd - breakLookback
	if floor := start + c.config.Overlap + 1; searchStart < floor {
		searchStart = floor
	}
	if searchStart >= maxEnd {
		return 0
	}

	region := string(runes[searchStart:maxEnd])
	at := func(byteIdx int) int {
		return searchStart + utf8.RuneCountInString(region[:byteIdx])
	}

	if c.config.PreserveParagraphs {
		if idx := strings.LastIndex(region, "\n\n"); idx != -1 {
			return at(idx + 2)
		}
	}

	if c.config.PreserveSentences {
		best := -1
		for _, ender := range sentenceEnders {
			if idx := strings.LastIndex(region, ender); idx != -1 && idx+len(ender) > best {
				best = idx + len(ender)
			}
		}
		if best > 0 {
			return at(best)
		}
	}

	if idx := strings.LastIndex(region, " "); idx != -1 {
		return at(idx + 1)
	}
	return 0
}
