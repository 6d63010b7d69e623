// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	apperrors "dream-planner-api/pkg/errors"
)

// 函数接口固定返回的 CORS 头
const (
	FunctionAllowOrigin  = "*"
	FunctionAllowHeaders = "authorization, x-client-info, apikey, content-type"
)

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// SkipPathPrefixes 由其它 CORS 策略负责的路径前缀
	SkipPathPrefixes []string
}

// CORS 跨域中间件
func CORS(cfg CORSConfig) gin.HandlerFunc {
	// 设置默认值
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	}

	handler := cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
	if len(cfg.SkipPathPrefixes) == 0 {
		return handler
	}

	return func(c *gin.Context) {
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		handler(c)
	}
}

// FunctionCORS 函数接口的宽松 CORS：每个响应（含错误与 panic）都带固定头，
// OPTIONS 预检直接返回空 200。
func FunctionCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		if applyFunctionCORS(c) {
			return
		}
		c.Next()
	}
}

// FunctionFallback 函数接口下未匹配的路径或方法，同样带固定 CORS 头，错误体为 {"error": "..."}
func FunctionFallback(status int, code apperrors.ErrorCode, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if applyFunctionCORS(c) {
			return
		}
		abortWithError(c, status, code, msg)
	}
}

// applyFunctionCORS 写入固定 CORS 头；预检请求已应答时返回 true
func applyFunctionCORS(c *gin.Context) bool {
	c.Set(ctxKeyFunctionStyle, true)

	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", FunctionAllowOrigin)
	h.Set("Access-Control-Allow-Headers", FunctionAllowHeaders)

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusOK)
		return true
	}
	return false
}
