// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"dream-planner-api/internal/application/quota"
	"dream-planner-api/internal/interfaces/http/dto"
	"dream-planner-api/internal/interfaces/http/middleware"
	"dream-planner-api/pkg/logger"
)

// UsageReader 当日 Token 用量查询
type UsageReader interface {
	DailyUsage(ctx context.Context, userID string) (*quota.DailyUsage, error)
}

// UserHandler 用户处理器
type UserHandler struct {
	usage UsageReader
}

// NewUserHandler 创建用户处理器
func NewUserHandler(usage UsageReader) *UserHandler {
	return &UserHandler{usage: usage}
}

// GetUsage 获取当前用户当日 Token 用量
// @Summary 当日用量
// @Tags Users
// @Produce json
// @Success 200 {object} dto.Response[dto.UsageResponse]
// @Router /v1/users/me/usage [get]
func (h *UserHandler) GetUsage(c *gin.Context) {
	ctx := c.Request.Context()

	usage, err := h.usage.DailyUsage(ctx, middleware.GetUserIDFromGin(c))
	if err != nil {
		logger.Error(ctx, "failed to read token usage", err)
		dto.InternalError(c, "failed to read usage")
		return
	}

	dto.Success(c, dto.ToUsageResponse(usage))
}
