// Package entity 定义领域实体
package entity

import (
	"time"
)

// Step 梦想的行动步骤
type Step struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DreamID     string    `json:"dream_id" gorm:"type:uuid;not null;index:idx_steps_dream_order,priority:1"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	OrderIndex  int       `json:"order_index" gorm:"not null;index:idx_steps_dream_order,priority:2"`
	Completed   bool      `json:"completed" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Step) TableName() string {
	return "steps"
}

// NewStep 创建新步骤，初始为未完成
func NewStep(dreamID, title, description string, orderIndex int) *Step {
	now := time.Now()
	return &Step{
		DreamID:     dreamID,
		Title:       title,
		Description: description,
		OrderIndex:  orderIndex,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
