// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dream-planner-api/pkg/logger"
	"dream-planner-api/pkg/tracer"
)

// Tracing 返回 otelgin 中间件及 trace_id 注入中间件，需在 RequestID 之后注册
func Tracing(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		otelgin.Middleware(serviceName),
		traceContext(),
	}
}

// traceContext 将 trace_id/span_id 注入日志上下文与响应头，并把 request_id 写入 span
func traceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID, spanID, ok := tracer.IDs(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		c.Set("trace_id", traceID)
		c.Set("span_id", spanID)

		ctx := logger.WithContext(c.Request.Context(), logger.TraceIDKey, traceID)
		ctx = logger.WithContext(ctx, logger.SpanIDKey, spanID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Trace-ID", traceID)

		if requestID := c.GetString("request_id"); requestID != "" {
			trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.String("http.request_id", requestID))
		}

		c.Next()
	}
}
