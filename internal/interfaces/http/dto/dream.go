// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"dream-planner-api/internal/domain/entity"
	wfmodel "dream-planner-api/internal/workflow/model"
)

// CreateDreamRequest 生成并保存梦想
type CreateDreamRequest struct {
	Dream  string `json:"dream" binding:"required"`
	Domain string `json:"domain" binding:"required"`
}

// ImportDreamRequest 保存调用方已有的步骤
type ImportDreamRequest struct {
	Dream  string            `json:"dream" binding:"required"`
	Domain string            `json:"domain" binding:"required"`
	Steps  []ActionStepInput `json:"steps" binding:"required"`
}

// ActionStepInput 导入的单个步骤
type ActionStepInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ToActionSteps 转换为工作流模型
func (r *ImportDreamRequest) ToActionSteps() []wfmodel.ActionStep {
	out := make([]wfmodel.ActionStep, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = wfmodel.ActionStep{Title: s.Title, Description: s.Description}
	}
	return out
}

// ToggleStepRequest 切换步骤状态；Completed 缺省时取反
type ToggleStepRequest struct {
	Completed *bool `json:"completed"`
}

// StepResponse 步骤响应
type StepResponse struct {
	ID          string    `json:"id"`
	DreamID     string    `json:"dream_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"order_index"`
	Completed   bool      `json:"completed"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DreamResponse 梦想响应
type DreamResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Domain      string          `json:"domain"`
	Steps       []*StepResponse `json:"steps"`
	Progress    entity.Progress `json:"progress"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DreamListResponse 梦想列表响应
type DreamListResponse struct {
	Items []*DreamResponse `json:"items"`
}

// ToggleStepResponse 切换结果
type ToggleStepResponse struct {
	Step     *StepResponse   `json:"step"`
	Progress entity.Progress `json:"progress"`
}

// ToStepResponse 实体转换为响应
func ToStepResponse(s *entity.Step) *StepResponse {
	if s == nil {
		return nil
	}
	return &StepResponse{
		ID:          s.ID,
		DreamID:     s.DreamID,
		Title:       s.Title,
		Description: s.Description,
		OrderIndex:  s.OrderIndex,
		Completed:   s.Completed,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToDreamResponse 实体转换为响应
func ToDreamResponse(d *entity.Dream) *DreamResponse {
	if d == nil {
		return nil
	}
	steps := make([]*StepResponse, len(d.Steps))
	for i, s := range d.Steps {
		steps[i] = ToStepResponse(s)
	}
	return &DreamResponse{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Domain:      string(d.Domain),
		Steps:       steps,
		Progress:    d.Progress(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// ToDreamListResponse 实体列表转换为响应
func ToDreamListResponse(dreams []*entity.Dream) *DreamListResponse {
	items := make([]*DreamResponse, len(dreams))
	for i, d := range dreams {
		items[i] = ToDreamResponse(d)
	}
	return &DreamListResponse{Items: items}
}
