package repository

import (
	"context"
	"time"

	"dream-planner-api/internal/domain/entity"
)

// LLMUsageEventRepository AI 网关用量流水仓储，统计窗口均为 [start, end)
type LLMUsageEventRepository interface {
	Create(ctx context.Context, event *entity.LLMUsageEvent) error
	SumTokens(ctx context.Context, userID string, start, end time.Time) (int64, error)
	// SumByWorkflow 按工作流分组统计，按 Token 合计降序
	SumByWorkflow(ctx context.Context, userID string, start, end time.Time) ([]entity.WorkflowUsage, error)
}
