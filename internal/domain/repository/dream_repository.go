// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"dream-planner-api/internal/domain/entity"
)

// DreamRepository 梦想仓储接口
// 所有读写都按 userID 限定归属，未找到或不属于该用户时返回 nil
type DreamRepository interface {
	// Create 创建梦想
	Create(ctx context.Context, dream *entity.Dream) error

	// GetByID 获取用户的梦想（不含步骤）
	GetByID(ctx context.Context, userID, id string) (*entity.Dream, error)

	// ListByUser 获取用户全部梦想，按创建时间倒序
	ListByUser(ctx context.Context, userID string) ([]*entity.Dream, error)

	// Delete 删除用户的梦想，返回是否实际删除
	Delete(ctx context.Context, userID, id string) (bool, error)
}
