// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"dream-planner-api/internal/application/quota"
	"dream-planner-api/internal/domain/entity"
)

// UserResponse 用户响应
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UsageResponse 当日 Token 用量
type UsageResponse struct {
	Date string `json:"date"`
	Used int64  `json:"used"`
	// Max 为 0 表示不限制，此时 Remaining 为 -1
	Max        int64                  `json:"max"`
	Remaining  int64                  `json:"remaining"`
	ByWorkflow []entity.WorkflowUsage `json:"by_workflow"`
}

// ToUserResponse 实体转换为响应
func ToUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ToUsageResponse 用量快照转换为响应
func ToUsageResponse(u *quota.DailyUsage) *UsageResponse {
	return &UsageResponse{
		Date:       u.Day.Format(time.DateOnly),
		Used:       u.Used,
		Max:        u.Max,
		Remaining:  u.Remaining(),
		ByWorkflow: u.ByWorkflow,
	}
}
