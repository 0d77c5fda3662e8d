package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
)

// Gemini 是一个实现了 LLM 接口的结构体，用于与 Gemini API 交互。
type Gemini struct {
	client *genai.Client // GenAI 客户端，需要在退出时关闭。
	model  string        // 要使用的 Gemini 模型名称。
}

// NewGemini 创建一个新的 Gemini 客户端。
//
// 参数:
//
//	ctx: 上下文，用于控制客户端的生命周期。
//	model: 要使用的 Gemini 模型名称。
//	apiKey: Gemini API 密钥。
//
// 返回值:
//
//	*Gemini: 新创建的 Gemini 客户端实例。
//	error: 如果无法创建 GenAI 客户端，则返回错误。
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete 向 Gemini API 发送单轮请求并返回文本回复。
// 每次调用都创建新的 GenerativeModel，避免在并发请求之间共享 system 指令。
func (g *Gemini) Complete(ctx context.Context, req models.ChatRequest) (string, error) {
	gm := g.client.GenerativeModel(g.model)
	if req.System != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	resp, err := gm.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", upstreamError(fmt.Errorf("gemini generate content: %w", err))
	}
	text, ok := candidateText(resp)
	if !ok {
		return "", upstreamError(fmt.Errorf("gemini returned no candidates"))
	}
	return text, nil
}

// Close 关闭底层的 GenAI 客户端。
func (g *Gemini) Close() error {
	return g.client.Close()
}

// candidateText 拼接第一个候选回复中的所有文本片段。
func candidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), true
}
