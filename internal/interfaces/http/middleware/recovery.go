package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "dream-planner-api/pkg/errors"
	"dream-planner-api/pkg/logger"
)

// Recovery 捕获 panic 并返回 500；已写入的响应头（函数接口的 CORS 头）保留
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			err := fmt.Errorf("panic: %v", rec)
			ctx := c.Request.Context()

			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")

			logger.Error(ctx, "panic recovered", err,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)
			abortWithError(c, http.StatusInternalServerError, apperrors.CodeInternalError, "internal server error")
		}()

		c.Next()
	}
}
