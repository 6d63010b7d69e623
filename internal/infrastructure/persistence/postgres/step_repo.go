// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"dream-planner-api/internal/domain/entity"
)

// StepRepository 步骤仓储实现
type StepRepository struct {
	client *Client
}

// NewStepRepository 创建步骤仓储
func NewStepRepository(client *Client) *StepRepository {
	return &StepRepository{client: client}
}

// CreateBatch 批量创建步骤
func (r *StepRepository) CreateBatch(ctx context.Context, steps []*entity.Step) error {
	ctx, span := tracer.Start(ctx, "postgres.StepRepository.CreateBatch")
	defer span.End()

	if len(steps) == 0 {
		return nil
	}
	db := getDB(ctx, r.client.db)
	if err := db.Create(&steps).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create steps: %w", err)
	}
	return nil
}

// ListByDream 获取梦想的步骤
func (r *StepRepository) ListByDream(ctx context.Context, dreamID string) ([]*entity.Step, error) {
	ctx, span := tracer.Start(ctx, "postgres.StepRepository.ListByDream")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var steps []*entity.Step
	if err := db.Where("dream_id = ?", dreamID).Order("order_index ASC").Find(&steps).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	return steps, nil
}

// ListByDreams 批量获取多个梦想的步骤
func (r *StepRepository) ListByDreams(ctx context.Context, dreamIDs []string) ([]*entity.Step, error) {
	ctx, span := tracer.Start(ctx, "postgres.StepRepository.ListByDreams")
	defer span.End()

	if len(dreamIDs) == 0 {
		return nil, nil
	}
	db := getDB(ctx, r.client.db)
	var steps []*entity.Step
	if err := db.Where("dream_id = ANY(?::uuid[])", pq.Array(dreamIDs)).
		Order("order_index ASC").
		Find(&steps).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list steps by dreams: %w", err)
	}
	return steps, nil
}

// GetForUser 获取属于该用户梦想的步骤
func (r *StepRepository) GetForUser(ctx context.Context, userID, id string) (*entity.Step, error) {
	ctx, span := tracer.Start(ctx, "postgres.StepRepository.GetForUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var step entity.Step
	err := db.Joins("JOIN dreams ON dreams.id = steps.dream_id").
		Where("steps.id = ? AND dreams.user_id = ?", id, userID).
		First(&step).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get step: %w", err)
	}
	return &step, nil
}

// SetCompleted 更新步骤完成状态
func (r *StepRepository) SetCompleted(ctx context.Context, id string, completed bool) error {
	ctx, span := tracer.Start(ctx, "postgres.StepRepository.SetCompleted")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Step{}).Where("id = ?", id).Update("completed", completed).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update step: %w", err)
	}
	return nil
}
