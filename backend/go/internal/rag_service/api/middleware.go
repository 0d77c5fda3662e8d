package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/models"
	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/pkg/logger"
)

// RequestIDHeader carries the trace id of a request.
const RequestIDHeader = "X-Request-ID"

// loggerKey 是请求级 Logger 在 gin.Context 中的键。
const loggerKey = "requestLogger"

// RequestLogger 为每个请求分配 trace id，把带 trace id 的 Logger 放入上下文，
// 并在请求结束时记录方法、路径、状态码和耗时。
func RequestLogger(base *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Header(RequestIDHeader, traceID)

		reqLogger := base.WithTraceID(traceID)
		c.Set(loggerKey, reqLogger)

		start := time.Now()
		c.Next()

		reqLogger.WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Status:     c.Writer.Status(),
			LatencyMS:  time.Since(start).Milliseconds(),
		}).Info("request completed")
	}
}

// Recovery 捕获处理函数中的 panic，记录日志并返回 500，进程不会退出。
func Recovery(base *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log := base
		if l, ok := c.Get(loggerKey); ok {
			if rl, ok := l.(*logger.Logger); ok {
				log = rl
			}
		}
		log.WithError(models.ErrorInfo{
			Message:    fmt.Sprint(recovered),
			Type:       "panic",
			StatusCode: http.StatusInternalServerError,
		}).Error("recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// CORS 允许任意来源访问，并直接响应预检请求。
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
		c.Header("Access-Control-Expose-Headers", RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
