// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"dream-planner-api/internal/domain/entity"
)

// StepRepository 步骤仓储接口
type StepRepository interface {
	// CreateBatch 批量创建步骤
	CreateBatch(ctx context.Context, steps []*entity.Step) error

	// ListByDream 获取梦想的步骤，按 order_index 升序
	ListByDream(ctx context.Context, dreamID string) ([]*entity.Step, error)

	// ListByDreams 批量获取多个梦想的步骤，按 order_index 升序
	ListByDreams(ctx context.Context, dreamIDs []string) ([]*entity.Step, error)

	// GetForUser 获取属于该用户梦想的步骤，不存在时返回 nil
	GetForUser(ctx context.Context, userID, id string) (*entity.Step, error)

	// SetCompleted 更新步骤完成状态
	SetCompleted(ctx context.Context, id string, completed bool) error
}
