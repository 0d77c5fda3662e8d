package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaModel 是一个用于 Ollama API 的 Embedding 模型客户端。
type OllamaModel struct {
	client    *ollama.Client // Ollama 客户端实例。
	model     string         // 要使用的模型名称。
	maxTokens int            // 输入截断长度，对应 num_ctx。
}

// NewOllamaModel 创建一个新的 OllamaModel 客户端。
//
// 参数:
//
//	model: 要使用的模型名称，例如 "all-minilm"（384 维）。
//	baseURL: Ollama 服务的基准 URL。如果为空，则默认为 "http://localhost:11434"。
//	maxTokens: 输入截断长度，<= 0 时使用模型默认值。
//
// 返回值:
//
//	*OllamaModel: 新创建的 OllamaModel 客户端实例。
//	error: 如果基准 URL 无效，则返回错误。
func NewOllamaModel(model, baseURL string, maxTokens int) (*OllamaModel, error) {
	// 如果 baseURL 为空，则使用默认地址。
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	// 将字符串 URL 转换为 *url.URL。
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	// 创建一个带有超时设置的 HTTP 客户端。
	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &OllamaModel{client: ollama.NewClient(parsedURL, hc), model: model, maxTokens: maxTokens}, nil
}

// Embed 为单个文本生成嵌入向量。
func (m *OllamaModel) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := m.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	// 返回第一个嵌入向量（单个文本输入）。
	if len(embeddings) == 0 {
		return nil, upstreamError(fmt.Errorf("no embeddings returned"))
	}
	return embeddings[0], nil
}

// EmbedBatch 使用 Ollama 的批量嵌入功能为一批文本生成嵌入向量。
func (m *OllamaModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	embeddings, err := m.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, upstreamError(fmt.Errorf("got %d embeddings for %d inputs", len(embeddings), len(texts)))
	}
	return embeddings, nil
}

func (m *OllamaModel) embed(ctx context.Context, input any) ([][]float32, error) {
	truncate := true
	req := &ollama.EmbedRequest{
		Model:    m.model,
		Input:    input,
		Truncate: &truncate,
	}
	if m.maxTokens > 0 {
		req.Options = map[string]any{"num_ctx": m.maxTokens}
	}

	resp, err := m.client.Embed(ctx, req)
	if err != nil {
		return nil, upstreamError(fmt.Errorf("failed to get embeddings from ollama: %w", err))
	}
	return resp.Embeddings, nil
}
