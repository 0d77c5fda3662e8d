package milvus

import (
	"context"
	"fmt"
	"regexp"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/config"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

// MilvusClient 包含了 Milvus 客户端实例和相关配置。
type MilvusClient struct {
	Client     client.Client        // Milvus 客户端实例。
	Config     *config.MilvusConfig // Milvus 配置。
	Collection string               // 集合名称，由向量库的索引名映射而来。
	log        *logger.Logger
}

var illegalCollectionChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// CollectionName 将索引名映射为合法的 Milvus 集合名：只允许字母、数字和下划线，且不能以数字开头。
func CollectionName(index string) string {
	name := illegalCollectionChars.ReplaceAllString(index, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	return name
}

// NewClient 创建一个 Milvus 客户端，collection 会经过 CollectionName 映射。调用方负责在退出时调用 Close。
func NewClient(ctx context.Context, cfg *config.MilvusConfig, collection, apiKey string, log *logger.Logger) (*MilvusClient, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address: cfg.Address,
		DBName:  cfg.DBName,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接到 Milvus: %w", err)
	}
	log.WithField("address", cfg.Address).Info("成功连接到 Milvus")
	return &MilvusClient{Client: c, Config: cfg, Collection: CollectionName(collection), log: log}, nil
}

// Close 安全地关闭与 Milvus 的连接。
func (c *MilvusClient) Close() error {
	if c.Client == nil {
		return nil
	}
	if err := c.Client.Close(); err != nil {
		return fmt.Errorf("关闭 Milvus 连接失败: %w", err)
	}
	c.log.Info("已安全关闭 Milvus 连接")
	return nil
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

// EnsureCollection 确保 Milvus 集合存在、带有余弦索引并已加载。
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	exists, err := c.Client.HasCollection(ctx, c.Collection)
	if err != nil {
		return fmt.Errorf("检查集合是否存在时出错: %w", err)
	}
	if !exists {
		schema, err := BuildSchema(c.Collection, c.Config.Schema)
		if err != nil {
			return err
		}
		if err := c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("创建集合失败: %w", err)
		}
		idx, err := BuildIndex(c.Config.Schema.Index)
		if err != nil {
			return err
		}
		if err := c.Client.CreateIndex(ctx, c.Collection, c.Config.Schema.Index.FieldName, idx, false); err != nil {
			return fmt.Errorf("为字段 '%s' 创建索引失败: %w", c.Config.Schema.Index.FieldName, err)
		}
		c.log.WithField("collection", c.Collection).Info("已创建 Milvus 集合")
	}

	if err := c.Client.LoadCollection(ctx, c.Collection, false); err != nil {
		return fmt.Errorf("加载 Milvus 集合 '%s' 失败: %w", c.Collection, err)
	}
	return nil
}

// BuildSchema 根据配置构建集合 Schema。
func BuildSchema(collection string, cfg config.SchemaConfig) (*entity.Schema, error) {
	schema := entity.NewSchema().
		WithName(collection).
		WithDescription(cfg.Description)

	for _, fieldCfg := range cfg.Fields {
		field := entity.NewField().WithName(fieldCfg.Name)
		if fieldCfg.IsPrimaryKey {
			field = field.WithIsPrimaryKey(true)
		}

		switch fieldCfg.DataType {
		case "Int64":
			field = field.WithDataType(entity.FieldTypeInt64)
		case "VarChar":
			field = field.WithDataType(entity.FieldTypeVarChar).WithMaxLength(int64(fieldCfg.MaxLength))
		case "FloatVector":
			field = field.WithDataType(entity.FieldTypeFloatVector).WithDim(int64(fieldCfg.Dim))
		case "Float":
			field = field.WithDataType(entity.FieldTypeFloat)
		case "Double":
			field = field.WithDataType(entity.FieldTypeDouble)
		case "Bool":
			field = field.WithDataType(entity.FieldTypeBool)
		default:
			return nil, fmt.Errorf("不支持的数据类型: %s", fieldCfg.DataType)
		}
		schema = schema.WithField(field)
	}
	return schema, nil
}

// BuildIndex 是一个辅助函数，用于从配置构建索引实体。
func BuildIndex(indexCfg config.IndexConfig) (entity.Index, error) {
	metricType := entity.MetricType(indexCfg.MetricType)

	switch indexCfg.IndexType {
	case "IVF_FLAT":
		return entity.NewIndexIvfFlat(metricType, intParam(indexCfg.Params, "nlist", 128))
	case "HNSW":
		return entity.NewIndexHNSW(metricType, intParam(indexCfg.Params, "M", 8), intParam(indexCfg.Params, "efConstruction", 96))
	case "IVF_SQ8":
		return entity.NewIndexIvfSQ8(metricType, intParam(indexCfg.Params, "nlist", 128))
	case "AUTOINDEX":
		return entity.NewIndexAUTOINDEX(metricType)
	default:
		return nil, fmt.Errorf("不支持的索引类型: %s", indexCfg.IndexType)
	}
}

// BuildSearchParam 构建与索引类型匹配的检索参数。
func BuildSearchParam(indexCfg config.IndexConfig) (entity.SearchParam, error) {
	switch indexCfg.IndexType {
	case "HNSW":
		ef := indexCfg.SearchEf
		if ef <= 0 {
			ef = 64
		}
		return entity.NewIndexHNSWSearchParam(ef)
	case "IVF_FLAT", "IVF_SQ8":
		probe := indexCfg.SearchProbe
		if probe <= 0 {
			probe = 10
		}
		return entity.NewIndexIvfFlatSearchParam(probe)
	default:
		return entity.NewIndexAUTOINDEXSearchParam(1)
	}
}

// intParam 读取 YAML 中的整数参数，缺失或类型不符时返回默认值。
func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
