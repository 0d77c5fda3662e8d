package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

const (
	// NoContextFallback replaces the context when retrieval yields no text.
	NoContextFallback = "No relevant context found."
	// AnswerSystemPrompt is the system message of every question-answering request.
	AnswerSystemPrompt = "You are a helpful assistant."
)

// QAPipeline answers a question from the chunks retrieved for it.
type QAPipeline struct {
	retrieval *RetrievalPipeline
	llm       interfaces.LLM
	topK      int
	maxTokens int
	log       *logger.Logger
}

// NewQAPipeline creates a new QAPipeline.
func NewQAPipeline(retrieval *RetrievalPipeline, llm interfaces.LLM, topK, maxTokens int, log *logger.Logger) *QAPipeline {
	return &QAPipeline{
		retrieval: retrieval,
		llm:       llm,
		topK:      topK,
		maxTokens: maxTokens,
		log:       log,
	}
}

// Answer retrieves context for query, asks the LLM and returns its trimmed reply.
func (p *QAPipeline) Answer(ctx context.Context, query string) (string, error) {
	matches, err := p.retrieval.Retrieve(ctx, query, p.topK)
	if err != nil {
		return "", err
	}

	contextText := BuildContext(matches)
	if contextText == NoContextFallback {
		p.log.Info("no context retrieved, answering from fallback context")
	}

	answer, err := p.llm.Complete(ctx, models.ChatRequest{
		System:    AnswerSystemPrompt,
		User:      BuildAnswerPrompt(contextText, query),
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		p.log.Errorf("LLM failed to generate answer: %v", err)
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// BuildContext joins the text of every match with blank lines. Matches without
// text contribute an empty entry; when there is no text at all the fallback is used.
func BuildContext(matches []models.QueryResult) string {
	texts := make([]string, len(matches))
	hasText := false
	for i, m := range matches {
		texts[i] = m.Text()
		if texts[i] != "" {
			hasText = true
		}
	}
	if !hasText {
		return NoContextFallback
	}
	return strings.Join(texts, "\n\n")
}

// BuildAnswerPrompt renders the user message for a question-answering request.
func BuildAnswerPrompt(contextText, query string) string {
	return fmt.Sprintf(
		"You are a helpful assistant. Use the following context to answer the question.\n\n"+
			"Context:\n%s\n\nQuestion: %s\nAnswer:",
		contextText, query,
	)
}
