package llm

import (
	"context"
	"fmt"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/config"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
)

// LLM 定义了所有大型语言模型客户端必须实现的通用接口。
// 每次调用都是独立的单轮对话：一条 system 消息和一条 user 消息。
type LLM interface {
	Complete(ctx context.Context, req models.ChatRequest) (string, error)
}

// NewClient 是一个工厂函数，根据提供的配置创建并返回一个实现了 LLM 接口的客户端。
// "openai" 覆盖所有 OpenAI 兼容接口，默认指向 Groq。
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL)
	case "gemini":
		return NewGemini(ctx, cfg.Model, cfg.APIKey)
	case "ollama":
		return NewOllama(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
