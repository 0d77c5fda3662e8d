package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
)

// minMaskSum 防止全零掩码时除以零。
const minMaskSum = 1e-9

// MeanPool 对 token 级向量按注意力掩码求平均。
// mask 为 nil 时视为所有 token 都有效；mask 长度必须与 tokens 一致。
func MeanPool(tokens [][]float32, mask []int) ([]float32, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("mean pool: no token embeddings")
	}
	if mask != nil && len(mask) != len(tokens) {
		return nil, fmt.Errorf("mean pool: mask length %d does not match %d tokens", len(mask), len(tokens))
	}

	dim := len(tokens[0])
	sum := make([]float64, dim)
	var weight float64
	for i, tok := range tokens {
		if len(tok) != dim {
			return nil, fmt.Errorf("mean pool: token %d has dimension %d, want %d", i, len(tok), dim)
		}
		m := 1.0
		if mask != nil {
			m = float64(mask[i])
		}
		weight += m
		for j, v := range tok {
			sum[j] += float64(v) * m
		}
	}
	weight = math.Max(weight, minMaskSum)

	out := make([]float32, dim)
	for j := range sum {
		out[j] = float32(sum[j] / weight)
	}
	return out, nil
}

// Normalize 返回 v 的 L2 归一化副本。零向量原样返回。
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Normalized 包装一个 Embedding，对输出做 L2 归一化并检查维度。
type Normalized struct {
	inner Embedding
	dim   int
}

// NewNormalized 创建归一化包装。dim <= 0 时不检查维度。
func NewNormalized(inner Embedding, dim int) *Normalized {
	return &Normalized{inner: inner, dim: dim}
}

// Embed 为单个文本生成归一化的嵌入向量。
func (n *Normalized) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := n.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return n.finish(v)
}

// EmbedBatch 为一批文本生成归一化的嵌入向量。
func (n *Normalized) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vs, err := n.inner.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vs) != len(texts) {
		return nil, fmt.Errorf("embedding: got %d vectors for %d texts", len(vs), len(texts))
	}
	out := make([][]float32, len(vs))
	for i, v := range vs {
		if out[i], err = n.finish(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (n *Normalized) finish(v []float32) ([]float32, error) {
	if n.dim > 0 && len(v) != n.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ragerr.ErrDimensionMismatch, len(v), n.dim)
	}
	return Normalize(v), nil
}

var _ Embedding = (*Normalized)(nil)
