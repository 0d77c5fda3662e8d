package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/util"
)

// Cached 用 LRU 缓存包装 Embedding，相同文本只请求一次模型。
// 返回的向量是缓存内容的副本，调用方可以自由修改。
type Cached struct {
	inner Embedding
	cache *util.LRU[string, []float32]
}

// NewCached 创建一个最多缓存 size 个向量的包装。
func NewCached(inner Embedding, size int, ttl time.Duration) (*Cached, error) {
	cache, err := util.NewLRU[string, []float32](size, ttl)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Embed 优先返回缓存中的向量。
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return clone(v), nil
	}
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Put(text, clone(v))
	return v, nil
}

// EmbedBatch 只为未命中缓存的文本调用一次 EmbedBatch。
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missing []string
		missIdx []int
	)
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = clone(v)
			continue
		}
		missing = append(missing, t)
		missIdx = append(missIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vs, err := c.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vs) != len(missing) {
		return nil, fmt.Errorf("embedding: got %d vectors for %d texts", len(vs), len(missing))
	}
	for j, v := range vs {
		out[missIdx[j]] = v
		c.cache.Put(missing[j], clone(v))
	}
	return out, nil
}

func clone(v []float32) []float32 {
	return append([]float32(nil), v...)
}

var _ Embedding = (*Cached)(nil)
