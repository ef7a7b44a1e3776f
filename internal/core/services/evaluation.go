package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/runtime"
)

// Ensure evaluationService implements EvaluationService
var _ driving.EvaluationService = (*evaluationService)(nil)

// MaxQuestions caps a single QA generation request
const MaxQuestions = 50

const (
	questionPrompt = "You are generating evaluation questions for a Retrieval-Augmented Generation (RAG) system.\n\n" +
		"From the document below, generate %d clear, factual, non-overlapping questions " +
		"that can be answered directly using the document content.\n\n" +
		"Return ONLY a numbered list of questions.\n\n" +
		"Document:\n%s"

	answerPrompt = "Answer the following question using ONLY the information present in the document context.\n" +
		"Do not add external knowledge.\n\n" +
		"Question:\n%s\n\n" +
		"Document Context:\n%s"
)

type evaluationService struct {
	documents driven.DocumentStore
	services  *runtime.Services
	logger    *slog.Logger
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(documents driven.DocumentStore, services *runtime.Services, logger *slog.Logger) driving.EvaluationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &evaluationService{
		documents: documents,
		services:  services,
		logger:    logger.With("component", "evaluation"),
	}
}

func (s *evaluationService) GenerateQA(ctx context.Context, documentID string, n int) ([]domain.QAPair, error) {
	if n <= 0 {
		n = domain.DefaultQuestions
	}
	if n > MaxQuestions {
		return nil, fmt.Errorf("%w: at most %d questions", domain.ErrInvalidInput, MaxQuestions)
	}

	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.ParsedText) == "" {
		return nil, fmt.Errorf("%w: document has no parsed text", domain.ErrInvalidInput)
	}

	llm := s.services.LLMService()
	if llm == nil {
		return nil, fmt.Errorf("%w: no language model configured", domain.ErrServiceUnavailable)
	}

	excerpt := domain.Truncate(doc.ParsedText, domain.QAContextChars)
	raw, err := llm.Complete(ctx, fmt.Sprintf(questionPrompt, n, excerpt))
	if err != nil {
		return nil, classify(domain.ErrServiceUnavailable, err)
	}

	questions := ParseQuestions(raw)
	if len(questions) > n {
		questions = questions[:n]
	}

	contexts := domain.ContextSlices(doc.ParsedText)
	pairs := make([]domain.QAPair, 0, len(questions))
	for _, q := range questions {
		answer, err := llm.Complete(ctx, fmt.Sprintf(answerPrompt, q, excerpt))
		if err != nil {
			return nil, classify(domain.ErrServiceUnavailable, err)
		}
		pairs = append(pairs, domain.QAPair{
			Question: q,
			Answer:   strings.TrimSpace(answer),
			Contexts: contexts,
		})
	}

	s.logger.Info("qa pairs generated", "document_id", documentID, "pairs", len(pairs))
	return pairs, nil
}

var listMarker = regexp.MustCompile(`^(?:\d+[.)]|[-*•])\s+`)

// ParseQuestions extracts questions from a numbered or bulleted list,
// dropping the list markers. When the response contains list items, any
// other line is treated as commentary; otherwise lines opening with "sure"
// or "here" are dropped.
func ParseQuestions(raw string) []string {
	var items, plain []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if loc := listMarker.FindStringIndex(line); loc != nil {
			if q := strings.TrimSpace(line[loc[1]:]); q != "" {
				items = append(items, q)
			}
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "sure") || strings.HasPrefix(lower, "here") {
			continue
		}
		plain = append(plain, line)
	}
	if len(items) > 0 {
		return items
	}
	return plain
}
