package postgres

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"dream-planner-api/internal/domain/entity"
)

// LLMUsageEventRepository 用量流水仓储
type LLMUsageEventRepository struct {
	client *Client
}

// NewLLMUsageEventRepository 创建用量流水仓储
func NewLLMUsageEventRepository(client *Client) *LLMUsageEventRepository {
	return &LLMUsageEventRepository{client: client}
}

// Create 写入一条流水
func (r *LLMUsageEventRepository) Create(ctx context.Context, event *entity.LLMUsageEvent) error {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.Create")
	defer span.End()
	span.SetAttributes(attribute.String("llm.workflow", event.Workflow))

	if err := getDB(ctx, r.client.db).Create(event).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create llm usage event: %w", err)
	}
	return nil
}

// SumTokens 统计窗口内的 Token 合计
func (r *LLMUsageEventRepository) SumTokens(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.SumTokens")
	defer span.End()

	var total int64
	err := r.window(ctx, userID, start, end).
		Select("COALESCE(SUM(tokens_prompt + tokens_completion), 0)").
		Scan(&total).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to sum llm tokens: %w", err)
	}
	return total, nil
}

// SumByWorkflow 按工作流分组统计
func (r *LLMUsageEventRepository) SumByWorkflow(ctx context.Context, userID string, start, end time.Time) ([]entity.WorkflowUsage, error) {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.SumByWorkflow")
	defer span.End()

	rows := make([]entity.WorkflowUsage, 0)
	err := r.window(ctx, userID, start, end).
		Select("workflow, COUNT(*) AS calls, COALESCE(SUM(tokens_prompt + tokens_completion), 0) AS tokens").
		Group("workflow").
		Order("tokens DESC, workflow ASC").
		Scan(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to group llm usage: %w", err)
	}
	return rows, nil
}

func (r *LLMUsageEventRepository) window(ctx context.Context, userID string, start, end time.Time) *gorm.DB {
	return getDB(ctx, r.client.db).
		Model(&entity.LLMUsageEvent{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start, end)
}
