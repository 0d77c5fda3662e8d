package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
)

// InMemoryStore is a thread-safe, in-memory implementation of the VectorStore interface.
// It scores every stored vector on each query and is meant for development and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	dim     int
	records map[string]models.VectorRecord
}

// NewInMemoryStore creates a new instance of InMemoryStore. dim <= 0 disables the dimension check.
func NewInMemoryStore(dim int) *InMemoryStore {
	return &InMemoryStore{
		dim:     dim,
		records: make(map[string]models.VectorRecord),
	}
}

// Upsert stores records, overwriting any with the same id.
func (s *InMemoryStore) Upsert(ctx context.Context, records []models.VectorRecord) error {
	for _, r := range records {
		if s.dim > 0 && len(r.Vector) != s.dim {
			return fmt.Errorf("%w: record %s has %d dimensions, want %d", ragerr.ErrDimensionMismatch, r.ID, len(r.Vector), s.dim)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ID] = models.VectorRecord{
			ID:       r.ID,
			Vector:   append([]float32(nil), r.Vector...),
			Metadata: copyMetadata(r.Metadata),
		}
	}
	return nil
}

// Query returns the topK most cosine-similar records, best first. Ties are broken by id.
func (s *InMemoryStore) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]models.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	results := make([]models.QueryResult, 0, len(s.records))
	for id, r := range s.records {
		res := models.QueryResult{ID: id, Score: cosine(vector, r.Vector), Metadata: map[string]interface{}{}}
		if includeMetadata {
			res.Metadata = copyMetadata(r.Metadata)
		}
		results = append(results, res)
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Len returns the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func copyMetadata(md map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

// compile-time check to ensure InMemoryStore implements the VectorStore interface
var _ interfaces.VectorStore = (*InMemoryStore)(nil)
