package vectorstore

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/database/milvus"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

const (
	// Schema fields for the Milvus collection.
	FieldID         = "id"
	FieldEmbedding  = "embedding"
	FieldText       = models.MetadataKeyText
	FieldSource     = models.MetadataKeySource
	FieldChunkIndex = models.MetadataKeyChunkIndex
)

// milvusAPI is the subset of client.Client the store needs.
type milvusAPI interface {
	Upsert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error)
	Flush(ctx context.Context, collName string, async bool, opts ...client.FlushOption) error
	Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string,
		vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam,
		opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
}

// MilvusStore is an adapter for the Milvus client implementing the VectorStore interface.
// Chunk metadata is stored in scalar columns next to the vector.
type MilvusStore struct {
	log         *logger.Logger
	client      milvusAPI
	collection  string
	vectorField string
	dim         int
	params      entity.SearchParam
}

// NewMilvusStore creates a new MilvusStore adapter over an initialized MilvusClient.
func NewMilvusStore(milvusClient *milvus.MilvusClient, dim int, log *logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	sp, err := milvus.BuildSearchParam(milvusClient.Config.Schema.Index)
	if err != nil {
		return nil, fmt.Errorf("build milvus search params: %w", err)
	}
	vectorField := milvusClient.Config.Schema.VectorField
	if vectorField == "" {
		vectorField = FieldEmbedding
	}
	return newMilvusStore(milvusClient.Client, milvusClient.Collection, vectorField, dim, sp, log), nil
}

func newMilvusStore(api milvusAPI, collection, vectorField string, dim int, sp entity.SearchParam, log *logger.Logger) *MilvusStore {
	return &MilvusStore{
		log:         log,
		client:      api,
		collection:  collection,
		vectorField: vectorField,
		dim:         dim,
		params:      sp,
	}
}

// Upsert writes records into the collection, replacing rows with the same id,
// then asks Milvus to seal the growing segment. A failed flush is only logged.
func (s *MilvusStore) Upsert(ctx context.Context, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	cols, err := recordColumns(records, s.vectorField, s.dim)
	if err != nil {
		return err
	}

	s.log.WithField("collection", s.collection).Infof("upserting %d vectors into milvus", len(records))
	if _, err := s.client.Upsert(ctx, s.collection, "", cols...); err != nil {
		return ragerr.Upstream(ragerr.ServiceVectorStore, 0, fmt.Errorf("milvus upsert: %w", err))
	}
	if err := s.client.Flush(ctx, s.collection, true); err != nil {
		s.log.WithField("collection", s.collection).Warnf("milvus flush failed: %v", err)
	}
	return nil
}

// Query performs a strongly consistent cosine search over the collection.
func (s *MilvusStore) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]models.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	var outputFields []string
	if includeMetadata {
		outputFields = []string{FieldText, FieldSource, FieldChunkIndex}
	}

	res, err := s.client.Search(
		ctx, s.collection, nil, "", outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		s.vectorField, entity.COSINE, topK, s.params,
		client.WithSearchQueryConsistencyLevel(entity.ClStrong),
	)
	if err != nil {
		return nil, ragerr.Upstream(ragerr.ServiceVectorStore, 0, fmt.Errorf("milvus search: %w", err))
	}
	return searchResults(res, s.log), nil
}

// recordColumns converts records into column-oriented data for an upsert.
func recordColumns(records []models.VectorRecord, vectorField string, dim int) ([]entity.Column, error) {
	ids := make([]string, len(records))
	vectors := make([][]float32, len(records))
	texts := make([]string, len(records))
	sources := make([]string, len(records))
	indexes := make([]int64, len(records))

	for i, r := range records {
		if len(r.Vector) != dim {
			return nil, fmt.Errorf("%w: record %s has %d dimensions, want %d", ragerr.ErrDimensionMismatch, r.ID, len(r.Vector), dim)
		}
		ids[i] = r.ID
		vectors[i] = r.Vector
		texts[i], _ = r.Metadata[FieldText].(string)
		sources[i], _ = r.Metadata[FieldSource].(string)
		switch v := r.Metadata[FieldChunkIndex].(type) {
		case int:
			indexes[i] = int64(v)
		case int64:
			indexes[i] = v
		case float64:
			indexes[i] = int64(v)
		}
	}

	return []entity.Column{
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnFloatVector(vectorField, dim, vectors),
		entity.NewColumnVarChar(FieldText, texts),
		entity.NewColumnVarChar(FieldSource, sources),
		entity.NewColumnInt64(FieldChunkIndex, indexes),
	}, nil
}

// searchResults flattens Milvus search results. Rows without output fields get an empty metadata map.
func searchResults(results []client.SearchResult, log *logger.Logger) []models.QueryResult {
	var out []models.QueryResult
	for _, res := range results {
		findColumn := func(name string) entity.Column {
			for _, field := range res.Fields {
				if field.Name() == name {
					return field
				}
			}
			return nil
		}

		idCol, ok := res.IDs.(*entity.ColumnVarChar)
		if !ok {
			log.Warn("search result has no varchar id column, skipping")
			continue
		}
		ids := idCol.Data()

		var texts, sources []string
		var indexes []int64
		if c, ok := findColumn(FieldText).(*entity.ColumnVarChar); ok {
			texts = c.Data()
		}
		if c, ok := findColumn(FieldSource).(*entity.ColumnVarChar); ok {
			sources = c.Data()
		}
		if c, ok := findColumn(FieldChunkIndex).(*entity.ColumnInt64); ok {
			indexes = c.Data()
		}

		for i := 0; i < res.ResultCount && i < len(ids); i++ {
			r := models.QueryResult{ID: ids[i], Metadata: map[string]interface{}{}}
			if i < len(res.Scores) {
				r.Score = res.Scores[i]
			}
			if i < len(texts) {
				r.Metadata[FieldText] = texts[i]
			}
			if i < len(sources) {
				r.Metadata[FieldSource] = sources[i]
			}
			if i < len(indexes) {
				r.Metadata[FieldChunkIndex] = int(indexes[i])
			}
			out = append(out, r)
		}
	}
	return out
}

// compile-time check to ensure MilvusStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MilvusStore)(nil)
