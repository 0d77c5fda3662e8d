package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

// MindMapSystemPrompt is the system message of every mind-map request.
const MindMapSystemPrompt = "You are an expert mind map generator."

// MindMapPipeline turns a free-text query into mind-map nodes.
type MindMapPipeline struct {
	llm       interfaces.LLM
	maxTokens int
	log       *logger.Logger
}

// NewMindMapPipeline creates a new MindMapPipeline.
func NewMindMapPipeline(llm interfaces.LLM, maxTokens int, log *logger.Logger) *MindMapPipeline {
	return &MindMapPipeline{llm: llm, maxTokens: maxTokens, log: log}
}

// Generate asks the LLM for mind-map nodes and returns its reply as raw JSON.
// The reply is only checked for JSON syntax; a surrounding Markdown code fence
// is removed first. Invalid JSON yields ragerr.ErrMalformedOutput.
func (p *MindMapPipeline) Generate(ctx context.Context, query string) (json.RawMessage, error) {
	reply, err := p.llm.Complete(ctx, models.ChatRequest{
		System:    MindMapSystemPrompt,
		User:      BuildMindMapPrompt(query),
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		p.log.Errorf("LLM failed to generate mind map: %v", err)
		return nil, err
	}

	content := stripCodeFence(strings.TrimSpace(reply))
	if !json.Valid([]byte(content)) {
		p.log.WithField("reply_len", len(reply)).Warn("LLM returned invalid JSON for mind map")
		return nil, ragerr.ErrMalformedOutput
	}
	return json.RawMessage(content), nil
}

// BuildMindMapPrompt renders the user message for a mind-map request.
func BuildMindMapPrompt(query string) string {
	return "You are a helpful assistant that creates mind map nodes from the user's query. " +
		"Generate output strictly in JSON array format where each node has the following schema:\n\n" +
		"{ \n" +
		"  id: string,\n" +
		"  label: string,\n" +
		"  children: string[],\n" +
		"  explanation?: string,\n" +
		"  metadata?: { color: string, icon: string },\n" +
		"  parent_id?: string\n" +
		"}\n\n" +
		"User query: \"" + query + "\"\n\n" +
		"Please respond ONLY with valid JSON."
}

// stripCodeFence removes a ```json ... ``` wrapper if the whole reply is fenced.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := s[3 : len(s)-3]
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		if !strings.ContainsAny(inner[:nl], "{[") {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}
