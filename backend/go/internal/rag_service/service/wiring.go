package service

import (
	"context"
	"fmt"
	"io"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/config"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/database/milvus"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/embedding"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/llm"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/loaders"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/storages/vectorstore"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

// NewFromConfig builds every client named in cfg and returns a ready Server.
// Clients created before a failure are closed again.
func NewFromConfig(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (srv *Server, err error) {
	var closers []io.Closer
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i].Close()
			}
		}
	}()

	if err := loaders.SetDocxLicense(cfg.Documents.UnidocLicenseKey); err != nil {
		log.Warnf("unioffice license rejected, reading docx xml directly: %v", err)
	}

	embedder, err := embedding.NewEmdModel(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("init embedding model: %w", err)
	}

	store, closer, err := NewVectorStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	chat, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}
	if c, ok := chat.(io.Closer); ok {
		closers = append(closers, c)
	}

	return New(Deps{
		Config:      cfg,
		Embedder:    embedder,
		VectorStore: store,
		LLM:         chat,
		Log:         log,
		Closers:     closers,
	})
}

// NewVectorStore builds the configured vector store. The returned closer is nil
// when the store holds no connection.
func NewVectorStore(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (interfaces.VectorStore, io.Closer, error) {
	vs := cfg.VectorStore
	switch vs.Provider {
	case "milvus":
		client, err := milvus.NewClient(ctx, &vs.Milvus, vs.Index, vs.APIKey, log)
		if err != nil {
			return nil, nil, err
		}
		store, err := vectorstore.NewMilvusStore(client, cfg.Embedding.Dimension, log)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client, nil
	case "pinecone":
		store, err := vectorstore.NewPineconeStore(vs.Pinecone.Host, vs.APIKey, vs.Pinecone.Namespace, log)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "memory":
		return vectorstore.NewInMemoryStore(cfg.Embedding.Dimension), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported vector store provider: %s", vs.Provider)
	}
}
