package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// Prompt text and section fallbacks.
const (
	promptPreamble = "You are an AI assistant answering user questions using retrieved document context."
	promptClosing  = "Answer the question using ONLY the information provided above.\n" +
		"If the answer is not contained in the context, say so explicitly."

	NoPriorConversation = "No prior conversation."
	NoSummaryRequired   = "Conversation ongoing. No summary required."
	NoRecentMessages    = "No recent messages."
	NoRelevantDocuments = "No relevant documents found."

	summaryPrefix = "Earlier discussion topics: "
	summaryTurns  = 3
)

// ContextAssembler renders the prompt sent to the language model.
// Output is a pure function of its inputs.
type ContextAssembler struct {
	maxRecent int
	maxChunks int
}

// NewContextAssembler creates an assembler quoting at most maxRecent turns and maxChunks chunks.
func NewContextAssembler(maxRecent, maxChunks int) *ContextAssembler {
	defaults := domain.DefaultRAGConfig()
	if maxRecent <= 0 {
		maxRecent = defaults.MaxRecentMessages
	}
	if maxChunks <= 0 {
		maxChunks = defaults.MaxChunks
	}
	return &ContextAssembler{maxRecent: maxRecent, maxChunks: maxChunks}
}

// Assemble builds the prompt from the question, the retrieved chunks (best first)
// and the conversation turns (oldest first).
func (a *ContextAssembler) Assemble(query string, chunks []*domain.RankedChunk, turns []domain.ConversationTurn) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	writeSection(&b, "Conversation Summary:", a.Summary(turns))
	writeSection(&b, "Recent Conversation:", a.recent(turns))
	writeSection(&b, "Retrieved Document Context:", a.retrieved(chunks))
	writeSection(&b, "User Question:", query)
	b.WriteString("\n\n")
	b.WriteString(promptClosing)
	return b.String()
}

// Summary condenses the turns older than the recent window.
func (a *ContextAssembler) Summary(turns []domain.ConversationTurn) string {
	if len(turns) == 0 {
		return NoPriorConversation
	}
	if len(turns) <= a.maxRecent {
		return NoSummaryRequired
	}
	older := turns[:len(turns)-a.maxRecent]
	if len(older) > summaryTurns {
		older = older[len(older)-summaryTurns:]
	}
	parts := make([]string, len(older))
	for i, t := range older {
		parts[i] = t.Format()
	}
	return summaryPrefix + strings.Join(parts, " | ")
}

func (a *ContextAssembler) recent(turns []domain.ConversationTurn) string {
	if len(turns) > a.maxRecent {
		turns = turns[len(turns)-a.maxRecent:]
	}
	if len(turns) == 0 {
		return NoRecentMessages
	}
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.Format()
	}
	return strings.Join(lines, "\n")
}

func (a *ContextAssembler) retrieved(chunks []*domain.RankedChunk) string {
	if len(chunks) > a.maxChunks {
		chunks = chunks[:a.maxChunks]
	}
	if len(chunks) == 0 {
		return NoRelevantDocuments
	}
	sources := make([]string, len(chunks))
	for i, rc := range chunks {
		sources[i] = fmt.Sprintf("[Source %d]\n%s", i+1, rc.Chunk.Text)
	}
	return strings.Join(sources, "\n\n")
}

func writeSection(b *strings.Builder, heading, body string) {
	b.WriteString("\n\n")
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(body)
}
