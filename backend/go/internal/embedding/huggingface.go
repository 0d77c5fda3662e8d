package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HuggingFaceModel 是一个用于 Hugging Face Inference API 的 Embedding 模型客户端。
// feature-extraction 接口对句向量模型返回池化后的向量，对其它模型返回 token 级向量，
// 后者在本地做均值池化。
type HuggingFaceModel struct {
	client  *http.Client // HTTP 客户端实例。
	model   string       // 要使用的模型名称。
	apiKey  string       // Hugging Face API 密钥。
	baseURL string       // Hugging Face Inference API 的基准 URL。
}

// NewHuggingFaceModel 创建一个新的 HuggingFaceModel 客户端。
//
// 参数:
//
//	apiKey: Hugging Face 的 API 密钥。
//	modelName: 要使用的模型名称，例如 "sentence-transformers/all-MiniLM-L6-v2"。
//	baseURL: Hugging Face Inference API 的基准 URL。如果为空，则默认为 "https://api-inference.huggingface.co/pipeline/feature-extraction/"。
//
// 返回值:
//
//	*HuggingFaceModel: 新创建的 HuggingFaceModel 客户端实例。
//	error: 如果创建客户端失败，则返回错误。
func NewHuggingFaceModel(apiKey, modelName, baseURL string) (*HuggingFaceModel, error) {
	// 如果 baseURL 为空，则使用默认地址。
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co/pipeline/feature-extraction/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &HuggingFaceModel{
		client:  &http.Client{},
		model:   modelName,
		apiKey:  apiKey,
		baseURL: baseURL,
	}, nil
}

// Embed 使用 Hugging Face Inference API 为单个文本生成嵌入向量。
func (m *HuggingFaceModel) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch 使用 Hugging Face Inference API 为一批文本生成嵌入向量。
func (m *HuggingFaceModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	payload := map[string]interface{}{
		"inputs":  texts,
		"options": map[string]bool{"wait_for_model": true}, // 等待模型加载。
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+m.model, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, upstreamError(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, upstreamError(&httpStatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	// 每个输入对应一个 JSON 数组：池化向量 [dim] 或 token 级向量 [tokens][dim]。
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, upstreamError(fmt.Errorf("failed to decode response: %w", err))
	}
	if len(raw) != len(texts) {
		return nil, upstreamError(fmt.Errorf("got %d embeddings for %d inputs", len(raw), len(texts)))
	}

	embeddings := make([][]float32, len(raw))
	for i, r := range raw {
		if embeddings[i], err = decodeFeatures(r); err != nil {
			return nil, upstreamError(fmt.Errorf("input %d: %w", i, err))
		}
	}
	return embeddings, nil
}

// decodeFeatures 解析单个输入的特征，token 级输出做均值池化。
func decodeFeatures(r json.RawMessage) ([]float32, error) {
	var pooled []float32
	if err := json.Unmarshal(r, &pooled); err == nil {
		return pooled, nil
	}
	var tokens [][]float32
	if err := json.Unmarshal(r, &tokens); err != nil {
		return nil, fmt.Errorf("unexpected feature shape: %w", err)
	}
	return MeanPool(tokens, nil)
}
