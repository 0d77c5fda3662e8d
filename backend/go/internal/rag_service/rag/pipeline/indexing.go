package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/loaders"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Filename string
	FileType models.FileType
	// IDs are the vector record ids written, in chunk order.
	IDs []string
	// ExtractionErr is set when text extraction failed and the document was
	// ingested as empty text.
	ExtractionErr error
}

// Chunks returns the number of chunks ingested.
func (r IngestResult) Chunks() int { return len(r.IDs) }

// ChunkID builds the deterministic vector id of the i-th chunk of a file.
func ChunkID(filename string, i int) string {
	return fmt.Sprintf("%s_chunk_%d", filename, i)
}

// IndexingOption configures an IndexingPipeline.
type IndexingOption func(*IndexingPipeline)

// WithEmbedBatchSize embeds chunks n at a time through EmbedBatch. n <= 1 embeds one chunk per call.
func WithEmbedBatchSize(n int) IndexingOption {
	return func(p *IndexingPipeline) { p.batchSize = n }
}

// WithStrictExtraction makes extraction failures abort ingestion instead of
// degrading to empty text.
func WithStrictExtraction(strict bool) IndexingOption {
	return func(p *IndexingPipeline) { p.strict = strict }
}

// WithLoaderFactory replaces the loader lookup by file type.
func WithLoaderFactory(f func(models.FileType) (interfaces.Loader, error)) IndexingOption {
	return func(p *IndexingPipeline) { p.loaderFor = f }
}

// IndexingPipeline orchestrates the process of extracting, splitting, embedding, and storing documents.
type IndexingPipeline struct {
	splitter    interfaces.Splitter
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	loaderFor   func(models.FileType) (interfaces.Loader, error)
	batchSize   int
	strict      bool
	log         *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	log *logger.Logger,
	opts ...IndexingOption,
) *IndexingPipeline {
	p := &IndexingPipeline{
		splitter:    splitter,
		embedder:    embedder,
		vectorStore: vectorStore,
		loaderFor:   loaders.ForType,
		batchSize:   1,
		log:         log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest extracts the text of the file at path, chunks and embeds it, and
// upserts every chunk in a single call. Record ids are derived from the file's
// base name, so re-ingesting a file with the same name overwrites its vectors.
//
// Extraction failures do not fail ingestion unless strict extraction is on:
// the document is treated as empty, nothing is upserted and the failure is
// reported in IngestResult.ExtractionErr.
func (p *IndexingPipeline) Ingest(ctx context.Context, path string, fileType models.FileType) (IngestResult, error) {
	filename := filepath.Base(path)
	result := IngestResult{Filename: filename, FileType: fileType}
	log := p.log.WithField("file", filename)

	// 1. Pick the extractor
	loader, err := p.loaderFor(fileType)
	if err != nil {
		return result, err
	}

	// 2. Extract the text
	ex := loaders.Extract(ctx, loader, path)
	if !ex.OK() {
		if p.strict {
			return result, ex.Err
		}
		result.ExtractionErr = ex.Err
		log.WithField("error", ex.Err.Error()).Warn("text extraction failed, ingesting as empty document")
	}

	// 3. Split into chunks
	chunks, err := p.splitter.Split(ex.Text)
	if err != nil {
		return result, err
	}
	if len(chunks) == 0 {
		log.Info("no text to index")
		return result, nil
	}

	// 4. Embed the chunks
	vectors, err := p.embed(ctx, chunks)
	if err != nil {
		log.Errorf("failed to embed chunks: %v", err)
		return result, err
	}

	// 5. Upsert all records at once
	records := make([]models.VectorRecord, len(chunks))
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		ids[i] = ChunkID(filename, i)
		records[i] = models.VectorRecord{
			ID:     ids[i],
			Vector: vectors[i],
			Metadata: map[string]interface{}{
				models.MetadataKeyText:       chunk,
				models.MetadataKeySource:     filename,
				models.MetadataKeyChunkIndex: i,
			},
		}
	}
	if err := p.vectorStore.Upsert(ctx, records); err != nil {
		log.Errorf("failed to upsert vectors: %v", err)
		return result, err
	}

	result.IDs = ids
	log.Infof("indexed %d chunks", len(ids))
	return result, nil
}

func (p *IndexingPipeline) embed(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	if p.batchSize <= 1 {
		for _, c := range chunks {
			v, err := p.embedder.Embed(ctx, c)
			if err != nil {
				return nil, err
			}
			vectors = append(vectors, v)
		}
		return vectors, nil
	}

	for start := 0; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch, err := p.embedder.EmbedBatch(ctx, chunks[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
