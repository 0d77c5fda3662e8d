package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	olla "github.com/ollama/ollama/api"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
)

// Ollama 是一个用于 Ollama API 的 LLM 客户端。
type Ollama struct {
	client *olla.Client // Ollama 客户端实例。
	model  string       // 要使用的模型名称。
}

// NewOllama 创建一个新的 Ollama 客户端。
//
// 参数:
//
//	model: 要使用的模型名称。
//	baseURL: Ollama 服务的基准 URL。如果为空，则默认为 "http://localhost:11434"。
//
// 返回值:
//
//	*Ollama: 新创建的 Ollama 客户端实例。
//	error: 如果基准 URL 无效，则返回错误。
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	hc := &http.Client{
		Timeout: 120 * time.Second,
	}
	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

// Complete 使用 /api/chat 以非流式方式生成回复。
func (o *Ollama) Complete(ctx context.Context, req models.ChatRequest) (string, error) {
	var messages []olla.Message
	if req.System != "" {
		messages = append(messages, olla.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, olla.Message{Role: "user", Content: req.User})

	chatReq := &olla.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   &[]bool{false}[0], // 设置为非流式传输。
	}
	if req.MaxTokens > 0 {
		chatReq.Options = map[string]any{"num_predict": req.MaxTokens}
	}

	var result *olla.ChatResponse
	err := o.client.Chat(ctx, chatReq, func(resp olla.ChatResponse) error {
		result = &resp
		return nil
	})
	if err != nil {
		return "", upstreamError(fmt.Errorf("ollama chat: %w", err))
	}
	if result == nil {
		return "", upstreamError(fmt.Errorf("ollama chat returned no response"))
	}
	return result.Message.Content, nil
}
