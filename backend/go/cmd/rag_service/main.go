package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/config"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/api"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/service"
	httpserver "github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/http"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.New("RAGService", "", "").WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to load configuration")
	}

	// 2. Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	serviceLogger := logger.New("RAGService", "", "")
	serviceLogger.WithPayload(map[string]interface{}{
		"version":      cfg.App.Version,
		"environment":  cfg.App.Environment,
		"embedding":    cfg.Embedding.Provider,
		"vector_store": cfg.VectorStore.Provider,
		"index":        cfg.VectorStore.Index,
		"llm":          cfg.LLM.Provider,
	}).Info("Starting RAG Service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Build clients and the service
	ragService, err := service.NewFromConfig(ctx, cfg, serviceLogger)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to initialize RAG service")
	}
	defer func() {
		if err := ragService.Close(); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error releasing clients")
		}
	}()

	// 4. Setup HTTP server
	if cfg.App.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(api.NewAPI(ragService, serviceLogger, cfg.Server.MaxUploadBytes), serviceLogger)
	srv := httpserver.NewServer(cfg.Server, router, httpserver.WithLogger(serviceLogger))

	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("HTTP server failed to start")
	}

	// 5. Serve until SIGINT/SIGTERM
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, ln)
	})
	g.Go(func() error {
		if err := ragService.Health(gctx); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error(), Type: "health_check"}).Warn("Vector store is not reachable yet")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("HTTP server stopped with error")
		stop()
		_ = ragService.Close()
		os.Exit(1)
	}

	serviceLogger.Info("Server gracefully stopped")
}
