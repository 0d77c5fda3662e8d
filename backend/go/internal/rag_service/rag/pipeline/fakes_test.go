package pipeline

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
)

const testDim = 8

// hashEmbedder derives a deterministic vector from the text.
type hashEmbedder struct {
	mu         sync.Mutex
	embedCalls int
	batchCalls int
	err        error
}

func (e *hashEmbedder) vector(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum64()
	v := make([]float32, testDim)
	for i := range v {
		v[i] = float32((sum>>(uint(i)*8))&0xff) + 1
	}
	return v
}

func (e *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.embedCalls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

// scriptedLLM returns a fixed reply and records the requests it receives.
type scriptedLLM struct {
	reply    string
	err      error
	requests []models.ChatRequest
}

func (l *scriptedLLM) Complete(_ context.Context, req models.ChatRequest) (string, error) {
	l.requests = append(l.requests, req)
	return l.reply, l.err
}

// countingStore wraps upsert calls so tests can assert batching.
type countingStore struct {
	upserts [][]models.VectorRecord
	results []models.QueryResult
	err     error
}

func (s *countingStore) Upsert(_ context.Context, records []models.VectorRecord) error {
	s.upserts = append(s.upserts, records)
	return s.err
}

func (s *countingStore) Query(context.Context, []float32, int, bool) ([]models.QueryResult, error) {
	return s.results, s.err
}
