package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("VECTOR_STORE_INDEX", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultIndexName, cfg.VectorStore.Index)
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, 384, cfg.Embedding.Dimension)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, DefaultLLMBaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, "llama3-70b-8192", cfg.LLM.Model)
	assert.Equal(t, "COSINE", cfg.VectorStore.Milvus.Schema.Index.MetricType)
}

func TestLoadConfig_YAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
chunking:
  size: 200
  overlap: 20
vectorStore:
  provider: memory
  index: from-yaml
llm:
  provider: ollama
  model: llama3
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("VECTOR_STORE_INDEX", "from-env")
	t.Setenv("VECTOR_STORE_API_KEY", "vs-key")
	t.Setenv("LLM_API_KEY", "llm-key")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Chunking.Size)
	assert.Equal(t, 20, cfg.Chunking.Overlap)
	assert.Equal(t, "memory", cfg.VectorStore.Provider)
	assert.Equal(t, "from-env", cfg.VectorStore.Index)
	assert.Equal(t, "vs-key", cfg.VectorStore.APIKey)
	assert.Equal(t, "llm-key", cfg.LLM.APIKey)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunking: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestApplyEnv_IgnoresBlankValues(t *testing.T) {
	cfg := Default()
	env := map[string]string{"VECTOR_STORE_INDEX": "   ", "UNIDOC_LICENSE_KEY": "lic"}
	ApplyEnv(cfg, func(k string) string { return env[k] })

	assert.Equal(t, DefaultIndexName, cfg.VectorStore.Index)
	assert.Equal(t, "lic", cfg.Documents.UnidocLicenseKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"defaults", func(*AppConfig) {}, false},
		{"overlap equals size", func(c *AppConfig) { c.Chunking.Overlap = c.Chunking.Size }, true},
		{"negative overlap", func(c *AppConfig) { c.Chunking.Overlap = -1 }, true},
		{"zero size", func(c *AppConfig) { c.Chunking.Size = 0 }, true},
		{"unknown embedding provider", func(c *AppConfig) { c.Embedding.Provider = "word2vec" }, true},
		{"unknown store", func(c *AppConfig) { c.VectorStore.Provider = "faiss" }, true},
		{"unknown llm", func(c *AppConfig) { c.LLM.Provider = "claude" }, true},
		{"milvus l2 metric", func(c *AppConfig) { c.VectorStore.Milvus.Schema.Index.MetricType = "L2" }, true},
		{"memory store ignores milvus metric", func(c *AppConfig) {
			c.VectorStore.Provider = "memory"
			c.VectorStore.Milvus.Schema.Index.MetricType = "L2"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
