package service

import (
	"context"
	"time"
)

// LLMUsageInput 一次网关调用的计费数据，归属用户与来源取自 ctx
type LLMUsageInput struct {
	UserID           string
	Workflow         string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	DurationMs       int
}

// NewLLMUsageInput 从 ctx 中带出用户与工作流，组装一条用量记录
func NewLLMUsageInput(ctx context.Context, provider, model string, promptTokens, completionTokens int, elapsed time.Duration) LLMUsageInput {
	return LLMUsageInput{
		UserID:           UserIDFromContext(ctx),
		Workflow:         WorkflowFromContext(ctx),
		Provider:         provider,
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		DurationMs:       int(elapsed.Milliseconds()),
	}
}

// LLMUsageRecorder 用量记录器，失败只影响记账不影响生成
type LLMUsageRecorder interface {
	Record(ctx context.Context, in LLMUsageInput) error
}
