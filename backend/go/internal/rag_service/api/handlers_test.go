package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/service"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

type fakeService struct {
	uploadErr   error
	uploadedAs  string
	uploadBody  string
	answer      string
	answerErr   error
	lastQuery   string
	matches     []models.QueryResult
	retrieveErr error
	lastTopK    int
	mindMap     json.RawMessage
	mindMapErr  error
	healthErr   error
	panicOnCall bool
}

func (f *fakeService) Upload(_ context.Context, filename string, content io.Reader) (service.UploadResult, error) {
	f.uploadedAs = filename
	b, _ := io.ReadAll(content)
	f.uploadBody = string(b)
	if f.uploadErr != nil {
		return service.UploadResult{}, f.uploadErr
	}
	return service.UploadResult{Document: models.Document{Filename: filename}}, nil
}

func (f *fakeService) Answer(_ context.Context, query string) (string, error) {
	if f.panicOnCall {
		panic("exploded")
	}
	f.lastQuery = query
	return f.answer, f.answerErr
}

func (f *fakeService) Retrieve(_ context.Context, query string, topK int) ([]models.QueryResult, error) {
	f.lastQuery = query
	f.lastTopK = topK
	return f.matches, f.retrieveErr
}

func (f *fakeService) GenerateMindMap(_ context.Context, query string) (json.RawMessage, error) {
	f.lastQuery = query
	return f.mindMap, f.mindMapErr
}

func (f *fakeService) Health(context.Context) error { return f.healthErr }

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(svc RAGService, maxUpload int64) *gin.Engine {
	log := logger.Discard()
	return SetupRouter(NewAPI(svc, log, maxUpload), log)
}

func doJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRoot(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&fakeService{}, 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, RootMessage, decode(t, w)["message"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w := httptest.NewRecorder()
	newRouter(&fakeService{}, 0).ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
}

func TestUpload_Success(t *testing.T) {
	svc := &fakeService{}
	w := httptest.NewRecorder()
	newRouter(svc, 1<<20).ServeHTTP(w, multipartRequest(t, "file", "notes.txt", "hello"))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "File 'notes.txt' processed and embedded successfully", decode(t, w)["message"])
	assert.Equal(t, "notes.txt", svc.uploadedAs)
	assert.Equal(t, "hello", svc.uploadBody)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"unsupported type", ragerr.ErrUnsupportedFileType, http.StatusBadRequest, "Unsupported file type"},
		{"vector store failure", ragerr.Upstream(ragerr.ServiceVectorStore, 503, errors.New("down")), http.StatusInternalServerError, "vector store API error (status 503): down"},
		{"other failure", errors.New("disk full"), http.StatusInternalServerError, "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(&fakeService{uploadErr: tt.err}, 0).ServeHTTP(w, multipartRequest(t, "file", "x.exe", "MZ"))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantMsg, decode(t, w)["error"])
		})
	}
}

func TestUpload_MissingFileField(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(&fakeService{}, 0).ServeHTTP(w, multipartRequest(t, "document", "a.txt", "x"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	svc := &fakeService{}
	w := httptest.NewRecorder()
	newRouter(svc, 64).ServeHTTP(w, multipartRequest(t, "file", "big.txt", strings.Repeat("x", 1024)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, svc.uploadedAs)
}

func TestQuery(t *testing.T) {
	svc := &fakeService{answer: "42"}
	w := doJSON(t, newRouter(svc, 0), "/query/", `{"query":"meaning of life?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", decode(t, w)["answer"])
	assert.Equal(t, "meaning of life?", svc.lastQuery)
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"bad json", `{"query":`, nil, http.StatusBadRequest},
		{"llm rate limited", `{"query":"q"}`, ragerr.Upstream(ragerr.ServiceLLM, 429, errors.New("slow down")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, newRouter(&fakeService{answerErr: tt.err}, 0), "/query/", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, decode(t, w), "error")
		})
	}
}

func TestRetrieve(t *testing.T) {
	svc := &fakeService{matches: []models.QueryResult{{ID: "a.txt_chunk_0", Score: 0.9}}}
	w := doJSON(t, newRouter(svc, 0), "/retrieve/", `{"query":"q","top_k":3}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, svc.lastTopK)
	matches, ok := decode(t, w)["matches"].([]interface{})
	require.True(t, ok)
	assert.Len(t, matches, 1)
}

func TestEmptyQuery_ReachesService(t *testing.T) {
	svc := &fakeService{answer: "Please ask a question.", mindMap: json.RawMessage(`[]`)}
	r := newRouter(svc, 0)

	w := doJSON(t, r, "/query/", `{"query":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Please ask a question.", decode(t, w)["answer"])

	w = doJSON(t, r, "/generate-mindmap/", `{"query":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRetrieve_EmptyQueryIsBadRequest(t *testing.T) {
	w := doJSON(t, newRouter(&fakeService{retrieveErr: ragerr.ErrEmptyQuery}, 0), "/retrieve/", `{"query":" "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "query must not be empty", decode(t, w)["error"])
}

func TestRetrieve_NoMatchesIsEmptyArray(t *testing.T) {
	w := doJSON(t, newRouter(&fakeService{}, 0), "/retrieve/", `{"query":"q"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"matches":[]}`, w.Body.String())
}

func TestMindMap_ReturnsRawArray(t *testing.T) {
	nodes := `[{"id":"root","label":"Cells","children":["nucleus"]},{"id":"nucleus","label":"Nucleus","children":[],"parent_id":"root"}]`
	w := doJSON(t, newRouter(&fakeService{mindMap: json.RawMessage(nodes)}, 0), "/generate-mindmap/", `{"query":"cells"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, nodes, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestMindMap_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"invalid json", ragerr.ErrMalformedOutput, http.StatusInternalServerError, "LLM responded with invalid JSON"},
		{"upstream status forwarded", ragerr.Upstream(ragerr.ServiceLLM, 429, errors.New("rate limit")), http.StatusTooManyRequests, "LLM API error (status 429): rate limit"},
		{"upstream without status", ragerr.Upstream(ragerr.ServiceLLM, 0, errors.New("dial tcp")), http.StatusInternalServerError, "LLM API error: dial tcp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, newRouter(&fakeService{mindMapErr: tt.err}, 0), "/generate-mindmap/", `{"query":"q"}`)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantMsg, decode(t, w)["error"])
		})
	}
}

func TestHealthz(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc, 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	svc.healthErr = fmt.Errorf("milvus health check failed: %w", errors.New("connection refused"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPanicIsRecovered(t *testing.T) {
	w := doJSON(t, newRouter(&fakeService{panicOnCall: true}, 0), "/query/", `{"query":"q"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w)["error"])
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/query/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	newRouter(&fakeService{}, 0).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
