package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/service"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

// RootMessage is the liveness reply of GET /.
const RootMessage = "Document embedding uploader API is running."

// RAGService is the subset of service.Server used by the HTTP handlers.
type RAGService interface {
	Upload(ctx context.Context, filename string, content io.Reader) (service.UploadResult, error)
	Answer(ctx context.Context, query string) (string, error)
	Retrieve(ctx context.Context, query string, topK int) ([]models.QueryResult, error)
	GenerateMindMap(ctx context.Context, query string) (json.RawMessage, error)
	Health(ctx context.Context) error
}

// API provides the HTTP handlers of the RAG service.
type API struct {
	service        RAGService
	logger         *logger.Logger
	maxUploadBytes int64
}

// NewAPI creates a new API handler. maxUploadBytes <= 0 disables the upload size limit.
func NewAPI(svc RAGService, log *logger.Logger, maxUploadBytes int64) *API {
	return &API{service: svc, logger: log, maxUploadBytes: maxUploadBytes}
}

// QueryRequest is the body of /query/, /retrieve/ and /generate-mindmap/.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// RootHandler reports that the service is up.
func (a *API) RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": RootMessage})
}

// HealthHandler checks the vector store connection.
func (a *API) HealthHandler(c *gin.Context) {
	if err := a.service.Health(c.Request.Context()); err != nil {
		a.requestLogger(c).WithError(models.ErrorInfo{Message: err.Error(), Type: "health_check"}).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UploadHandler stores and ingests the multipart field "file".
func (a *API) UploadHandler(c *gin.Context) {
	if a.maxUploadBytes > 0 {
		if c.Request.ContentLength > a.maxUploadBytes {
			a.abort(c, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", a.maxUploadBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.abort(c, http.StatusRequestEntityTooLarge, err)
			return
		}
		a.abort(c, http.StatusBadRequest, errors.New("multipart field 'file' is required"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		a.abort(c, http.StatusBadRequest, err)
		return
	}
	defer f.Close()

	res, err := a.service.Upload(c.Request.Context(), fileHeader.Filename, f)
	if err != nil {
		a.abort(c, ragerr.HTTPStatus(err, false), err)
		return
	}
	if res.Ingest.ExtractionErr != nil {
		a.requestLogger(c).WithError(models.ErrorInfo{
			Message: res.Ingest.ExtractionErr.Error(),
			Type:    "extraction_error",
		}).Warn("upload ingested without text")
	}

	c.JSON(http.StatusOK, gin.H{"message": res.Message()})
}

// QueryHandler answers a question from the indexed documents.
func (a *API) QueryHandler(c *gin.Context) {
	req, ok := a.bindQuery(c)
	if !ok {
		return
	}

	answer, err := a.service.Answer(c.Request.Context(), req.Query)
	if err != nil {
		a.abort(c, ragerr.HTTPStatus(err, false), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// RetrieveHandler returns the matching chunks without calling the LLM.
func (a *API) RetrieveHandler(c *gin.Context) {
	req, ok := a.bindQuery(c)
	if !ok {
		return
	}

	matches, err := a.service.Retrieve(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		a.abort(c, ragerr.HTTPStatus(err, false), err)
		return
	}
	if matches == nil {
		matches = []models.QueryResult{}
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// MindMapHandler returns the generated mind-map nodes as an unwrapped JSON array.
// LLM HTTP failures are reported with the upstream status code.
func (a *API) MindMapHandler(c *gin.Context) {
	req, ok := a.bindQuery(c)
	if !ok {
		return
	}

	raw, err := a.service.GenerateMindMap(c.Request.Context(), req.Query)
	if err != nil {
		a.abort(c, ragerr.HTTPStatus(err, true), err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (a *API) bindQuery(c *gin.Context) (QueryRequest, bool) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.requestLogger(c).WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return req, false
	}
	return req, true
}

func (a *API) abort(c *gin.Context, status int, err error) {
	log := a.requestLogger(c).WithError(models.ErrorInfo{Message: err.Error(), StatusCode: status})
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Warn("request rejected")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (a *API) requestLogger(c *gin.Context) *logger.Logger {
	if l, ok := c.Get(loggerKey); ok {
		if rl, ok := l.(*logger.Logger); ok {
			return rl
		}
	}
	return a.logger
}
