package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func l2(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestMeanPool(t *testing.T) {
	tokens := [][]float32{{1, 2}, {3, 4}, {100, 100}}

	got, err := MeanPool(tokens, []int{1, 1, 0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{2, 3}, got, 1e-6)

	got, err = MeanPool(tokens[:2], nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{2, 3}, got, 1e-6)
}

func TestMeanPool_ZeroMaskDoesNotDivideByZero(t *testing.T) {
	got, err := MeanPool([][]float32{{1, 1}}, []int{0})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, got)
}

func TestMeanPool_Errors(t *testing.T) {
	_, err := MeanPool(nil, nil)
	assert.Error(t, err)

	_, err = MeanPool([][]float32{{1}, {2}}, []int{1})
	assert.Error(t, err)

	_, err = MeanPool([][]float32{{1, 2}, {3}}, nil)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, v, 1e-6)
	assert.InDelta(t, 1.0, l2(v), 1e-6)

	zero := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)
}

type stubEmbedding struct {
	vec []float32
	err error
}

func (s stubEmbedding) Embed(context.Context, string) ([]float32, error) { return s.vec, s.err }

func (s stubEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}

func TestNormalized(t *testing.T) {
	raw := make([]float32, 384)
	for i := range raw {
		raw[i] = float32(i%7) + 0.5
	}
	n := NewNormalized(stubEmbedding{vec: raw}, 384)

	v, err := n.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, 384)
	assert.InDelta(t, 1.0, l2(v), 1e-5)

	batch, err := n.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, v, batch[1])
}

func TestNormalized_DimensionMismatch(t *testing.T) {
	n := NewNormalized(stubEmbedding{vec: []float32{1, 2, 3}}, 384)
	_, err := n.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ragerr.ErrDimensionMismatch)
}

func TestNormalized_PassesErrors(t *testing.T) {
	boom := errors.New("boom")
	n := NewNormalized(stubEmbedding{err: boom}, 384)
	_, err := n.EmbedBatch(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)
}
