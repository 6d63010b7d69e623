// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dream-planner-api/internal/interfaces/http/dto"
	apperrors "dream-planner-api/pkg/errors"
	"dream-planner-api/pkg/logger"
)

// renderError 渲染 REST 接口错误；5xx 记录日志
func renderError(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError
	if apperrors.IsAppError(err) {
		status = apperrors.AsAppError(err).HTTPStatus
	}
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), msg, err)
	}
	dto.FromAppError(c, err)
}

// renderFunctionError 渲染函数接口错误，响应体仅含 error 文案
func renderFunctionError(c *gin.Context, err error) {
	if !apperrors.IsAppError(err) {
		logger.Error(c.Request.Context(), "unexpected generation error", err)
		c.JSON(http.StatusInternalServerError, dto.FunctionError{Error: "internal server error"})
		return
	}
	appErr := apperrors.AsAppError(err)
	c.JSON(appErr.HTTPStatus, dto.FunctionError{Error: appErr.Message})
}
