// Package service 定义跨层的领域契约
package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyWorkflow llmCtxKey = "llm_workflow"
	llmCtxKeyUserID   llmCtxKey = "llm_user_id"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
)

// ProviderAIGateway 唯一的上游：OpenAI 兼容的 AI 网关
const ProviderAIGateway = "ai-gateway"

// 已知的调用来源
const (
	WorkflowGenerateSteps = "generate_steps"
	WorkflowCreateDream   = "create_dream"
)

const unknown = "unknown"

// WithWorkflow 标记本次 AI 调用的业务来源
func WithWorkflow(ctx context.Context, workflow string) context.Context {
	w := strings.TrimSpace(workflow)
	if w == "" {
		return ctx
	}
	return context.WithValue(ctx, llmCtxKeyWorkflow, w)
}

// WithUserID 标记本次 AI 调用计费归属的用户
func WithUserID(ctx context.Context, userID string) context.Context {
	id := strings.TrimSpace(userID)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, llmCtxKeyUserID, id)
}

// WithWorkflowProvider 同时标记业务来源与上游
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	ctx = WithWorkflow(ctx, workflow)
	if p := strings.TrimSpace(provider); p != "" {
		ctx = context.WithValue(ctx, llmCtxKeyProvider, p)
	}
	return ctx
}

// ProviderFromContext 读取上游名称，缺省为 unknown
func ProviderFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(llmCtxKeyProvider).(string); ok && s != "" {
		return s
	}
	return unknown
}

// WorkflowFromContext 读取业务来源，缺省为 unknown
func WorkflowFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(llmCtxKeyWorkflow).(string); ok && s != "" {
		return s
	}
	return unknown
}

// UserIDFromContext 读取计费用户，匿名调用返回空串
func UserIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(llmCtxKeyUserID).(string)
	return s
}
