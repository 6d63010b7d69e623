package entity

import "time"

// LLMUsageEvent 单次 AI 网关调用的用量流水
type LLMUsageEvent struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID           string    `json:"user_id" gorm:"type:uuid;index:idx_llm_usage_user_created,priority:1;not null"`
	Workflow         string    `json:"workflow" gorm:"type:varchar(64);not null"`
	Provider         string    `json:"provider" gorm:"type:varchar(32);not null"`
	Model            string    `json:"model" gorm:"type:varchar(128);not null"`
	TokensPrompt     int       `json:"tokens_prompt" gorm:"not null;default:0"`
	TokensCompletion int       `json:"tokens_completion" gorm:"not null;default:0"`
	DurationMs       int       `json:"duration_ms" gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_llm_usage_user_created,priority:2"`
}

func (LLMUsageEvent) TableName() string {
	return "llm_usage_events"
}

// TotalTokens 本次调用消耗的 Token 总数
func (e *LLMUsageEvent) TotalTokens() int {
	return e.TokensPrompt + e.TokensCompletion
}

// WorkflowUsage 某个工作流在统计窗口内的调用次数与 Token 合计
type WorkflowUsage struct {
	Workflow string `json:"workflow"`
	Calls    int64  `json:"calls"`
	Tokens   int64  `json:"tokens"`
}

// UsageDay 返回 t 所在 UTC 自然日的 [start, end)
func UsageDay(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
