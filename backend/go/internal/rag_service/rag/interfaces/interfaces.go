package interfaces

import (
	"context"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
)

// Loader extracts the plain text of a file on disk.
type Loader interface {
	Load(ctx context.Context, path string) (string, error)
}

// Splitter is the interface for splitting extracted text into ordered chunks.
type Splitter interface {
	Split(text string) ([]string, error)
}

// VectorStore is the interface for storing and querying chunk vectors.
// Upsert overwrites records that share an id. Query returns at most topK
// matches ordered by descending cosine similarity; when includeMetadata is
// false, or a record has none, Metadata is an empty map.
type VectorStore interface {
	Upsert(ctx context.Context, records []models.VectorRecord) error
	Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]models.QueryResult, error)
}

// EmbeddingModel is the interface for a text embedding model producing
// fixed-size, L2-normalized vectors.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLM is the interface for a chat model that answers a single-turn request.
type LLM interface {
	Complete(ctx context.Context, req models.ChatRequest) (string, error)
}
