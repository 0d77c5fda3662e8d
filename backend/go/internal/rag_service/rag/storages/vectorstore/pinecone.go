package vectorstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

// pineconeIndex is the subset of pinecone.IndexConnection the store needs.
type pineconeIndex interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	Close() error
}

// PineconeStore talks to a Pinecone index data plane through the Pinecone SDK.
// The index must be created with the cosine metric.
type PineconeStore struct {
	log   *logger.Logger
	index pineconeIndex
}

// NewPineconeStore opens a connection to the index served at host.
// The namespace is bound to the connection; an empty namespace is the default one.
func NewPineconeStore(host, apiKey, namespace string, log *logger.Logger) (*PineconeStore, error) {
	host = strings.TrimRight(strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://"), "/")
	if host == "" {
		return nil, fmt.Errorf("pinecone host is required")
	}
	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create pinecone client: %w", err)
	}
	idx, err := pc.Index(pinecone.NewIndexConnParams{Host: host, Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("connect to pinecone index %s: %w", host, err)
	}
	log.WithField("host", host).Info("connected to pinecone index")
	return newPineconeStore(idx, log), nil
}

func newPineconeStore(idx pineconeIndex, log *logger.Logger) *PineconeStore {
	return &PineconeStore{log: log, index: idx}
}

// Close releases the index connection.
func (s *PineconeStore) Close() error {
	return s.index.Close()
}

// Upsert writes all records in one request.
func (s *PineconeStore) Upsert(ctx context.Context, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([]*pinecone.Vector, len(records))
	for i, r := range records {
		md, err := structpb.NewStruct(r.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata of %s: %w", r.ID, err)
		}
		vectors[i] = &pinecone.Vector{Id: r.ID, Values: r.Vector, Metadata: md}
	}

	s.log.Infof("upserting %d vectors into pinecone", len(records))
	if _, err := s.index.UpsertVectors(ctx, vectors); err != nil {
		return pineconeError("upsert", err)
	}
	return nil
}

// Query runs a similarity search and returns the matches best first.
func (s *PineconeStore) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]models.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	resp, err := s.index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: includeMetadata,
	})
	if err != nil {
		return nil, pineconeError("query", err)
	}

	out := make([]models.QueryResult, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		r := models.QueryResult{ID: m.Vector.Id, Score: m.Score, Metadata: map[string]interface{}{}}
		if includeMetadata && m.Vector.Metadata != nil {
			r.Metadata = m.Vector.Metadata.AsMap()
			// protobuf numbers decode as float64.
			if f, ok := r.Metadata[models.MetadataKeyChunkIndex].(float64); ok {
				r.Metadata[models.MetadataKeyChunkIndex] = int(f)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// pineconeError wraps a data plane failure, translating the gRPC code into an HTTP status.
func pineconeError(op string, err error) error {
	return ragerr.Upstream(ragerr.ServiceVectorStore, grpcHTTPStatus(err), fmt.Errorf("pinecone %s: %w", op, err))
}

func grpcHTTPStatus(err error) int {
	st, ok := status.FromError(err)
	if !ok {
		return 0
	}
	switch st.Code() {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// compile-time check to ensure PineconeStore implements the VectorStore interface
var _ interfaces.VectorStore = (*PineconeStore)(nil)
