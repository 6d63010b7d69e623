// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dream-planner-api/pkg/errors"
)

// Gin Context 键
const (
	ctxKeyUserID        = "user_id"
	ctxKeyEmail         = "email"
	ctxKeyFunctionStyle = "function_error_style"
)

// GetUserIDFromGin 获取当前用户 ID，匿名请求返回空串
func GetUserIDFromGin(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}

// IsFunctionRequest 当前请求是否走函数接口（错误体为 {"error": "..."}）
func IsFunctionRequest(c *gin.Context) bool {
	return c.GetBool(ctxKeyFunctionStyle)
}

// abortWithError 按接口风格终止请求
func abortWithError(c *gin.Context, status int, code apperrors.ErrorCode, msg string) {
	if IsFunctionRequest(c) {
		c.AbortWithStatusJSON(status, gin.H{"error": msg})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{
		"code":       status,
		"message":    msg,
		"error_code": code,
		"trace_id":   c.GetString("trace_id"),
	})
}

func abortUnauthorized(c *gin.Context, msg string) {
	abortWithError(c, http.StatusUnauthorized, apperrors.CodeUnauthorized, msg)
}
