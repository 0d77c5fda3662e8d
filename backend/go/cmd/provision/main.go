// Command provision creates the Milvus collection and index used by the RAG service.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/config"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/database/milvus"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	timeout := flag.Duration("timeout", 2*time.Minute, "time allowed for provisioning")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.New("Provision", "", "").WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to load configuration")
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	log := logger.New("Provision", "", "")

	if cfg.VectorStore.Provider != "milvus" {
		log.Infof("vector store provider is %q, nothing to provision", cfg.VectorStore.Provider)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := milvus.NewClient(ctx, &cfg.VectorStore.Milvus, cfg.VectorStore.Index, cfg.VectorStore.APIKey, log)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Milvus")
	}
	defer client.Close()

	if err := client.EnsureCollection(ctx); err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to provision collection")
	}
	log.WithPayload(map[string]interface{}{
		"collection": client.Collection,
		"dimension":  cfg.Embedding.Dimension,
		"metric":     cfg.VectorStore.Milvus.Schema.Index.MetricType,
		"index_type": cfg.VectorStore.Milvus.Schema.Index.IndexType,
	}).Info("Collection is ready")
}
