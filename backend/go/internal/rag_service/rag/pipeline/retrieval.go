package pipeline

import (
	"context"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

// RetrievalPipeline retrieves the chunks most similar to a query.
type RetrievalPipeline struct {
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	log         *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline.
func NewRetrievalPipeline(embedder interfaces.EmbeddingModel, vectorStore interfaces.VectorStore, log *logger.Logger) *RetrievalPipeline {
	return &RetrievalPipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		log:         log,
	}
}

// Retrieve embeds the query and returns up to topK matches with metadata, best first.
func (p *RetrievalPipeline) Retrieve(ctx context.Context, query string, topK int) ([]models.QueryResult, error) {
	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		p.log.Errorf("failed to embed query: %v", err)
		return nil, err
	}

	matches, err := p.vectorStore.Query(ctx, vector, topK, true)
	if err != nil {
		p.log.Errorf("failed to query vector store: %v", err)
		return nil, err
	}
	p.log.Debug("retrieved matches from vector store")
	return matches, nil
}
