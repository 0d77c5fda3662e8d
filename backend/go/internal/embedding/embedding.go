package embedding

import (
	"fmt"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/config"
)

// NewEmdModel 根据配置创建 Embedding 模型实例。
// 返回的模型会对输出做 L2 归一化并检查维度，保证写入向量库的向量与索引一致。
//
// 参数:
//
//	cfg: Embedding 配置，包括提供商、模型、API 密钥、基础 URL、维度、截断长度和缓存容量。
//
// 返回值:
//
//	Embedding: 新创建的 Embedding 模型实例。
//	error: 如果提供商不支持或模型初始化失败，则返回错误。
func NewEmdModel(cfg config.EmbeddingConfig) (Embedding, error) {
	var (
		base Embedding
		err  error
	)
	switch ModelType(cfg.Provider) {
	case OpenAI:
		base, err = NewOpenAIModel(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Dimension)
	case HuggingFace:
		base, err = NewHuggingFaceModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case Ollama:
		base, err = NewOllamaModel(cfg.Model, cfg.BaseURL, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider) // 如果提供商不支持，返回错误。
	}
	if err != nil {
		return nil, err
	}
	normalized := NewNormalized(base, cfg.Dimension)
	if cfg.CacheSize > 0 {
		return NewCached(normalized, cfg.CacheSize, cfg.CacheTTL)
	}
	return normalized, nil
}
