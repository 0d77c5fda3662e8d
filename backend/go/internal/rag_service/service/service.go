package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/config"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/interfaces"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/loaders"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/pipeline"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/rag/splitters"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

// Deps are the long-lived clients the service is built from. They are safe for
// concurrent use and owned by the Server once passed to New.
type Deps struct {
	Config      *config.AppConfig
	Embedder    interfaces.EmbeddingModel
	VectorStore interfaces.VectorStore
	LLM         interfaces.LLM
	Log         *logger.Logger
	// Closers are released by Server.Close in reverse order.
	Closers []io.Closer
}

// Server exposes the document RAG operations: upload, query, retrieve and mind-map generation.
type Server struct {
	cfg       *config.AppConfig
	log       *logger.Logger
	uploadDir string
	store     interfaces.VectorStore
	indexing  *pipeline.IndexingPipeline
	retrieval *pipeline.RetrievalPipeline
	qa        *pipeline.QAPipeline
	mindMap   *pipeline.MindMapPipeline
	closers   []io.Closer
}

// UploadResult describes a stored and ingested upload.
type UploadResult struct {
	Document models.Document
	Ingest   pipeline.IngestResult
}

// Message is the confirmation returned to the uploader.
func (r UploadResult) Message() string {
	return fmt.Sprintf("File '%s' processed and embedded successfully", r.Document.Filename)
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// New wires the pipelines from deps and creates the upload directory.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.Embedder == nil || deps.VectorStore == nil || deps.LLM == nil {
		return nil, errors.New("service: config, embedder, vector store and llm are required")
	}
	log := deps.Log
	if log == nil {
		log = logger.Discard()
	}
	cfg := deps.Config

	splitter, err := splitters.NewCharSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	retrieval := pipeline.NewRetrievalPipeline(deps.Embedder, deps.VectorStore, log)
	return &Server{
		cfg:       cfg,
		log:       log,
		uploadDir: cfg.Server.UploadDir,
		store:     deps.VectorStore,
		indexing: pipeline.NewIndexingPipeline(splitter, deps.Embedder, deps.VectorStore, log,
			pipeline.WithEmbedBatchSize(cfg.Embedding.BatchSize)),
		retrieval: retrieval,
		qa:        pipeline.NewQAPipeline(retrieval, deps.LLM, cfg.Retrieval.TopK, cfg.LLM.AnswerMaxTokens, log),
		mindMap:   pipeline.NewMindMapPipeline(deps.LLM, cfg.LLM.MindMapMaxTokens, log),
		closers:   deps.Closers,
	}, nil
}

// Close releases the clients handed to New.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Health reports whether the vector store and any connection-holding clients are reachable.
func (s *Server) Health(ctx context.Context) error {
	if hc, ok := s.store.(healthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return err
		}
	}
	for _, c := range s.closers {
		if hc, ok := c.(healthChecker); ok {
			if err := hc.HealthCheck(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Upload validates the file name, stores the content in the upload directory and ingests it.
// Unsupported extensions are rejected before anything is written.
func (s *Server) Upload(ctx context.Context, filename string, content io.Reader) (UploadResult, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	fileType, err := loaders.FileTypeFromName(name)
	if err != nil {
		return UploadResult{}, err
	}

	path := filepath.Join(s.uploadDir, name)
	if err := writeFile(path, content); err != nil {
		return UploadResult{}, err
	}

	doc := models.Document{Filename: name, ContentType: fileType, Path: path}
	if mt, err := mimetype.DetectFile(path); err == nil {
		doc.MIMEType = mt.String()
	}
	s.log.WithPayload(map[string]interface{}{
		"file":      doc.Filename,
		"file_type": doc.ContentType,
		"mime_type": doc.MIMEType,
	}).Info("stored upload")

	res, err := s.indexing.Ingest(ctx, path, fileType)
	return UploadResult{Document: doc, Ingest: res}, err
}

// Answer answers a question from the indexed documents.
func (s *Server) Answer(ctx context.Context, query string) (string, error) {
	return s.qa.Answer(ctx, query)
}

// Retrieve returns the best matching chunks for query. topK <= 0 uses the configured default.
// A blank query is rejected; Answer and GenerateMindMap pass blank queries through.
func (s *Server) Retrieve(ctx context.Context, query string, topK int) ([]models.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ragerr.ErrEmptyQuery
	}
	if topK <= 0 {
		topK = s.cfg.Retrieval.TopK
	}
	return s.retrieval.Retrieve(ctx, query, topK)
}

// GenerateMindMap returns the LLM's mind-map nodes for query as raw JSON.
func (s *Server) GenerateMindMap(ctx context.Context, query string) (json.RawMessage, error) {
	return s.mindMap.Generate(ctx, query)
}

func writeFile(path string, content io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return fmt.Errorf("store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	return nil
}
