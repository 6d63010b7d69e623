// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dream-planner-api/internal/domain/entity"
)

// DreamRepository 梦想仓储实现
type DreamRepository struct {
	client *Client
}

// NewDreamRepository 创建梦想仓储
func NewDreamRepository(client *Client) *DreamRepository {
	return &DreamRepository{client: client}
}

// Create 创建梦想（不级联写入步骤）
func (r *DreamRepository) Create(ctx context.Context, dream *entity.Dream) error {
	ctx, span := tracer.Start(ctx, "postgres.DreamRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Omit(clause.Associations).Create(dream).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create dream: %w", err)
	}
	return nil
}

// GetByID 获取用户的梦想
func (r *DreamRepository) GetByID(ctx context.Context, userID, id string) (*entity.Dream, error) {
	ctx, span := tracer.Start(ctx, "postgres.DreamRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var dream entity.Dream
	if err := db.First(&dream, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get dream: %w", err)
	}
	return &dream, nil
}

// ListByUser 获取用户全部梦想，按创建时间倒序
func (r *DreamRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Dream, error) {
	ctx, span := tracer.Start(ctx, "postgres.DreamRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var dreams []*entity.Dream
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&dreams).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list dreams: %w", err)
	}
	return dreams, nil
}

// Delete 删除用户的梦想，步骤由外键级联删除
func (r *DreamRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.DreamRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&entity.Dream{})
	if res.Error != nil {
		span.RecordError(res.Error)
		return false, fmt.Errorf("failed to delete dream: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
