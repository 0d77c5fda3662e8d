package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(a *API, log *logger.Logger) *gin.Engine {
	r := gin.New()
	// RequestLogger 在 Recovery 之前注册，panic 日志才能带上 trace id。
	r.Use(RequestLogger(log), Recovery(log), CORS())
	RegisterRoutes(r, a)
	return r
}

// RegisterRoutes registers all the routes of the RAG service.
func RegisterRoutes(router *gin.Engine, a *API) {
	router.GET("/", a.RootHandler)
	router.GET("/healthz", a.HealthHandler)

	router.POST("/upload/", a.UploadHandler)
	router.POST("/query/", a.QueryHandler)
	router.POST("/retrieve/", a.RetrieveHandler)
	router.POST("/generate-mindmap/", a.MindMapHandler)
}
