package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 默认值。与原始服务保持一致：500 字符的分块、100 字符的重叠、384 维向量、top-5 检索。
const (
	DefaultIndexName        = "studybuddy-notes"
	DefaultChunkSize        = 500
	DefaultChunkOverlap     = 100
	DefaultEmbeddingDim     = 384
	DefaultEmbeddingTokens  = 512
	DefaultTopK             = 5
	DefaultLLMBaseURL       = "https://api.groq.com/openai/v1"
	DefaultLLMModel         = "llama3-70b-8192"
	DefaultAnswerMaxTokens  = 512
	DefaultMindMapMaxTokens = 1024
	DefaultHTTPAddress      = ":8000"
	DefaultUploadDir        = "uploads"
	DefaultMaxUploadBytes   = 32 << 20
)

// ErrInvalidConfig 表示配置校验失败。
var ErrInvalidConfig = errors.New("invalid configuration")

// FieldConfig 定义了 Milvus 集合中字段的配置。
type FieldConfig struct {
	Name         string `yaml:"name"`                // 字段名称
	DataType     string `yaml:"dataType"`            // 字段数据类型 (例如: "Int64", "VarChar", "FloatVector")
	IsPrimaryKey bool   `yaml:"isPrimaryKey"`        // 是否为主键
	Dim          int    `yaml:"dim,omitempty"`       // 向量维度 (仅适用于向量类型)
	MaxLength    int    `yaml:"maxLength,omitempty"` // 最大长度 (仅适用于VarChar类型)
}

// IndexConfig 定义了 Milvus 集合中索引的配置。
type IndexConfig struct {
	FieldName   string                 `yaml:"fieldName"`   // 要创建索引的字段名称
	IndexType   string                 `yaml:"indexType"`   // 索引类型 (例如: "HNSW", "IVF_FLAT", "AUTOINDEX")
	MetricType  string                 `yaml:"metricType"`  // 相似度度量类型，必须为 "COSINE"
	Params      map[string]interface{} `yaml:"params"`      // 索引参数 (例如: {"M": 16})
	SearchEf    int                    `yaml:"searchEf"`    // HNSW 检索参数 ef
	SearchProbe int                    `yaml:"searchProbe"` // IVF 检索参数 nprobe
}

// SchemaConfig 定义了 Milvus 集合的 Schema 配置。
type SchemaConfig struct {
	Description string        `yaml:"description"` // 集合描述
	VectorField string        `yaml:"vectorField"` // 向量字段名称
	Fields      []FieldConfig `yaml:"fields"`      // 字段配置列表
	Index       IndexConfig   `yaml:"index"`       // 索引配置
}

// MilvusConfig 定义了 Milvus 数据库的连接和 Schema 配置。
type MilvusConfig struct {
	Address string       `yaml:"address"` // Milvus 服务地址
	DBName  string       `yaml:"dbName"`  // 数据库名称，可为空
	Schema  SchemaConfig `yaml:"schema"`  // Milvus 集合 Schema 配置
}

// PineconeConfig 定义了 Pinecone 数据面的连接配置。
type PineconeConfig struct {
	Host      string `yaml:"host"`      // 索引的数据面地址，例如 https://studybuddy-notes-xxxx.svc.pinecone.io
	Namespace string `yaml:"namespace"` // 命名空间，可为空
}

// VectorStoreConfig 选择并配置向量数据库。
type VectorStoreConfig struct {
	Provider string         `yaml:"provider"` // "milvus", "pinecone" 或 "memory"
	Index    string         `yaml:"index"`    // 索引/集合名称
	APIKey   string         `yaml:"apiKey"`   // 访问密钥
	Milvus   MilvusConfig   `yaml:"milvus"`
	Pinecone PineconeConfig `yaml:"pinecone"`
}

// EmbeddingConfig 包含了 Embedding 模型的配置。
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"`  // "ollama", "openai" 或 "huggingface"
	Model     string        `yaml:"model"`     // 模型名称
	BaseURL   string        `yaml:"baseURL"`   // 服务地址，可为空
	APIKey    string        `yaml:"apiKey"`    // API 密钥
	Dimension int           `yaml:"dimension"` // 向量维度，必须与索引一致
	MaxTokens int           `yaml:"maxTokens"` // 输入截断长度（token）
	BatchSize int           `yaml:"batchSize"` // 大于 1 时按批次调用 EmbedBatch
	CacheSize int           `yaml:"cacheSize"` // 查询向量 LRU 缓存容量，0 表示不缓存
	CacheTTL  time.Duration `yaml:"cacheTTL"`  // 缓存条目的存活时间，0 表示永不过期
}

// LLMConfig 包含了对话模型的配置。
type LLMConfig struct {
	Provider         string `yaml:"provider"`         // "openai"(任意 OpenAI 兼容接口), "gemini" 或 "ollama"
	BaseURL          string `yaml:"baseURL"`          // 服务地址
	Model            string `yaml:"model"`            // 模型名称
	APIKey           string `yaml:"apiKey"`           // API 密钥
	AnswerMaxTokens  int    `yaml:"answerMaxTokens"`  // 问答请求的最大输出 token
	MindMapMaxTokens int    `yaml:"mindMapMaxTokens"` // 思维导图请求的最大输出 token
}

// ChunkingConfig 定义了文本分块参数（以字符计）。
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig 定义了检索参数。
type RetrievalConfig struct {
	TopK int `yaml:"topK"`
}

// DocumentsConfig 包含文档解析相关的配置。
type DocumentsConfig struct {
	UnidocLicenseKey string `yaml:"unidocLicenseKey"` // unioffice 计量许可证密钥，用于解析 DOCX
}

// ServerConfig 定义了 HTTP 服务的配置。
type ServerConfig struct {
	Address        string        `yaml:"address"`
	UploadDir      string        `yaml:"uploadDir"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App         AppInfo           `yaml:"app"`
	Server      ServerConfig      `yaml:"server"`
	Logger      LoggerConfig      `yaml:"logger"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vectorStore"`
	LLM         LLMConfig         `yaml:"llm"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Documents   DocumentsConfig   `yaml:"documents"`
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
// 文件不存在时使用默认配置；随后读取 .env（如果存在）并应用环境变量覆盖。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析并校验后的应用程序配置结构体。
//	error: 如果文件读取、解析或校验失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()

	yamlFile, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// 没有配置文件时完全依赖默认值与环境变量。
	default:
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}

	// .env 是可选的。
	_ = godotenv.Load()
	ApplyEnv(cfg, os.Getenv)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回一份完整的默认配置。
func Default() *AppConfig {
	cfg := &AppConfig{
		App:    AppInfo{Name: "studybuddy-rag", Version: "dev", Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Server: ServerConfig{
			Address:        DefaultHTTPAddress,
			UploadDir:      DefaultUploadDir,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Chunking: ChunkingConfig{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "all-minilm",
			Dimension: DefaultEmbeddingDim,
			MaxTokens: DefaultEmbeddingTokens,
			BatchSize: 1,
		},
		VectorStore: VectorStoreConfig{
			Provider: "milvus",
			Index:    DefaultIndexName,
			Milvus: MilvusConfig{
				Address: "localhost:19530",
				Schema:  DefaultSchema(DefaultEmbeddingDim),
			},
		},
		LLM: LLMConfig{
			Provider:         "openai",
			BaseURL:          DefaultLLMBaseURL,
			Model:            DefaultLLMModel,
			AnswerMaxTokens:  DefaultAnswerMaxTokens,
			MindMapMaxTokens: DefaultMindMapMaxTokens,
		},
		Retrieval: RetrievalConfig{TopK: DefaultTopK},
	}
	return cfg
}

// DefaultSchema 返回 RAG 集合的默认 Schema：id(主键)、embedding、text、source、chunk_index。
func DefaultSchema(dim int) SchemaConfig {
	return SchemaConfig{
		Description: "StudyBuddy document chunks",
		VectorField: "embedding",
		Fields: []FieldConfig{
			{Name: "id", DataType: "VarChar", IsPrimaryKey: true, MaxLength: 512},
			{Name: "embedding", DataType: "FloatVector", Dim: dim},
			{Name: "text", DataType: "VarChar", MaxLength: 65535},
			{Name: "source", DataType: "VarChar", MaxLength: 512},
			{Name: "chunk_index", DataType: "Int64"},
		},
		Index: IndexConfig{
			FieldName:  "embedding",
			IndexType:  "HNSW",
			MetricType: "COSINE",
			Params:     map[string]interface{}{"M": 16, "efConstruction": 200},
			SearchEf:   64,
		},
	}
}

// ApplyEnv 使用环境变量覆盖配置。getenv 通常为 os.Getenv，测试中可替换。
func ApplyEnv(cfg *AppConfig, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.VectorStore.APIKey, "VECTOR_STORE_API_KEY")
	set(&cfg.VectorStore.Index, "VECTOR_STORE_INDEX")
	set(&cfg.VectorStore.Provider, "VECTOR_STORE_PROVIDER")
	set(&cfg.VectorStore.Pinecone.Host, "PINECONE_HOST")
	set(&cfg.LLM.APIKey, "LLM_API_KEY")
	set(&cfg.Embedding.APIKey, "EMBEDDING_API_KEY")
	set(&cfg.Documents.UnidocLicenseKey, "UNIDOC_LICENSE_KEY")
	set(&cfg.Server.Address, "HTTP_ADDR")
	set(&cfg.Logger.Level, "LOG_LEVEL")
}

// applyDefaults 填充 YAML 中留空的字段。
func applyDefaults(cfg *AppConfig) {
	d := Default()
	if cfg.Server.Address == "" {
		cfg.Server.Address = d.Server.Address
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = d.Server.UploadDir
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = d.Server.MaxUploadBytes
	}
	if cfg.VectorStore.Index == "" {
		cfg.VectorStore.Index = DefaultIndexName
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = DefaultEmbeddingDim
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = DefaultEmbeddingTokens
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 1
	}
	if len(cfg.VectorStore.Milvus.Schema.Fields) == 0 {
		cfg.VectorStore.Milvus.Schema = DefaultSchema(cfg.Embedding.Dimension)
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == "openai" {
		cfg.LLM.BaseURL = DefaultLLMBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.AnswerMaxTokens == 0 {
		cfg.LLM.AnswerMaxTokens = DefaultAnswerMaxTokens
	}
	if cfg.LLM.MindMapMaxTokens == 0 {
		cfg.LLM.MindMapMaxTokens = DefaultMindMapMaxTokens
	}
}

// Validate 校验配置的一致性。分块重叠必须严格小于分块大小。
func (c *AppConfig) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be positive, got %d", ErrInvalidConfig, c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap (%d) must be in [0, chunking.size=%d)", ErrInvalidConfig, c.Chunking.Overlap, c.Chunking.Size)
	}
	if c.Embedding.CacheSize < 0 {
		return fmt.Errorf("%w: embedding cache size must not be negative", ErrInvalidConfig)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding.dimension must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.topK must be positive", ErrInvalidConfig)
	}
	if !oneOf(c.Embedding.Provider, "ollama", "openai", "huggingface") {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
	if !oneOf(c.VectorStore.Provider, "milvus", "pinecone", "memory") {
		return fmt.Errorf("%w: unknown vector store provider %q", ErrInvalidConfig, c.VectorStore.Provider)
	}
	if !oneOf(c.LLM.Provider, "openai", "gemini", "ollama") {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, c.LLM.Provider)
	}
	if c.VectorStore.Provider == "milvus" && !strings.EqualFold(c.VectorStore.Milvus.Schema.Index.MetricType, "COSINE") {
		return fmt.Errorf("%w: milvus index metric must be COSINE", ErrInvalidConfig)
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
