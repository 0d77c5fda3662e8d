package vectorstore

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

type fakePineconeIndex struct {
	upserted []*pinecone.Vector
	query    *pinecone.QueryByVectorValuesRequest
	resp     *pinecone.QueryVectorsResponse
	err      error
	closed   bool
}

func (f *fakePineconeIndex) UpsertVectors(_ context.Context, in []*pinecone.Vector) (uint32, error) {
	f.upserted = in
	return uint32(len(in)), f.err
}

func (f *fakePineconeIndex) QueryByVectorValues(_ context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error) {
	f.query = in
	return f.resp, f.err
}

func (f *fakePineconeIndex) Close() error {
	f.closed = true
	return nil
}

func TestPineconeStore_Upsert(t *testing.T) {
	f := &fakePineconeIndex{}
	s := newPineconeStore(f, logger.Discard())

	err := s.Upsert(context.Background(), []models.VectorRecord{
		{ID: "a.txt_chunk_0", Vector: []float32{0.5, 0.5}, Metadata: map[string]interface{}{"text": "hello", "source": "a.txt", "chunk_index": 0}},
	})
	require.NoError(t, err)

	require.Len(t, f.upserted, 1)
	v := f.upserted[0]
	assert.Equal(t, "a.txt_chunk_0", v.Id)
	assert.Equal(t, []float32{0.5, 0.5}, v.Values)
	require.NotNil(t, v.Metadata)
	assert.Equal(t, "hello", v.Metadata.Fields["text"].GetStringValue())
	assert.Equal(t, float64(0), v.Metadata.Fields["chunk_index"].GetNumberValue())
}

func TestPineconeStore_UpsertEmptyIsNoop(t *testing.T) {
	f := &fakePineconeIndex{err: errors.New("should not be called")}
	require.NoError(t, newPineconeStore(f, logger.Discard()).Upsert(context.Background(), nil))
	assert.Nil(t, f.upserted)
}

func TestPineconeStore_Query(t *testing.T) {
	md, err := structpb.NewStruct(map[string]interface{}{"text": "chunk one", "chunk_index": 1})
	require.NoError(t, err)
	f := &fakePineconeIndex{resp: &pinecone.QueryVectorsResponse{Matches: []*pinecone.ScoredVector{
		{Vector: &pinecone.Vector{Id: "a.txt_chunk_1", Metadata: md}, Score: 0.91},
		{Vector: &pinecone.Vector{Id: "b.txt_chunk_0"}, Score: 0.42},
		nil,
	}}}
	s := newPineconeStore(f, logger.Discard())

	res, err := s.Query(context.Background(), []float32{1, 0}, 5, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), f.query.TopK)
	assert.True(t, f.query.IncludeMetadata)
	assert.Equal(t, []float32{1, 0}, f.query.Vector)

	require.Len(t, res, 2)
	assert.Equal(t, "chunk one", res[0].Text())
	assert.Equal(t, 1, res[0].Metadata[models.MetadataKeyChunkIndex])
	assert.InDelta(t, 0.91, res[0].Score, 1e-6)
	assert.NotNil(t, res[1].Metadata)
	assert.Equal(t, "", res[1].Text())
}

func TestPineconeStore_QueryWithoutMetadata(t *testing.T) {
	md, err := structpb.NewStruct(map[string]interface{}{"text": "hidden"})
	require.NoError(t, err)
	f := &fakePineconeIndex{resp: &pinecone.QueryVectorsResponse{Matches: []*pinecone.ScoredVector{
		{Vector: &pinecone.Vector{Id: "a.txt_chunk_0", Metadata: md}, Score: 0.5},
	}}}

	res, err := newPineconeStore(f, logger.Discard()).Query(context.Background(), []float32{1}, 1, false)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Empty(t, res[0].Metadata)
}

func TestPineconeStore_ZeroTopK(t *testing.T) {
	f := &fakePineconeIndex{}
	res, err := newPineconeStore(f, logger.Discard()).Query(context.Background(), []float32{1}, 0, true)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Nil(t, f.query)
}

func TestPineconeStore_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", status.Error(codes.Unauthenticated, "invalid api key"), http.StatusUnauthorized},
		{"not found", status.Error(codes.NotFound, "index not found"), http.StatusNotFound},
		{"rate limited", status.Error(codes.ResourceExhausted, "slow down"), http.StatusTooManyRequests},
		{"plain error", errors.New("connection reset"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newPineconeStore(&fakePineconeIndex{err: tt.err}, logger.Discard())
			_, err := s.Query(context.Background(), []float32{1}, 3, true)

			var up *ragerr.UpstreamError
			require.ErrorAs(t, err, &up)
			assert.Equal(t, ragerr.ServiceVectorStore, up.Service)
			assert.Equal(t, tt.want, up.StatusCode)
		})
	}
}

func TestPineconeStore_Close(t *testing.T) {
	f := &fakePineconeIndex{}
	require.NoError(t, newPineconeStore(f, logger.Discard()).Close())
	assert.True(t, f.closed)
}

func TestNewPineconeStore_RequiresHost(t *testing.T) {
	_, err := NewPineconeStore("", "k", "", logger.Discard())
	assert.Error(t, err)

	_, err = NewPineconeStore("https://", "k", "", logger.Discard())
	assert.Error(t, err)
}
