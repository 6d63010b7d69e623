// Package llm 基于 eino OpenAI 适配器构建 AI 网关 ChatModel
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"dream-planner-api/internal/config"
	apperrors "dream-planner-api/pkg/errors"
	"dream-planner-api/pkg/logger"
)

const (
	gatewayDefaultTimeout    = 60 * time.Second
	gatewayDefaultErrorBytes = 4096
)

// GatewayFactory 每次调用时按当前配置创建 ChatModel，凭证轮换无需重启
type GatewayFactory struct {
	cfg *config.GatewayConfig
}

// NewGatewayFactory 创建 AI 网关 ChatModel 工厂
func NewGatewayFactory(cfg *config.GatewayConfig) *GatewayFactory {
	return &GatewayFactory{cfg: cfg}
}

// Get 返回绑定 modelName 的 ChatModel；modelName 为空时使用配置中的默认模型。
// 凭证为空时直接返回 ErrLLMNotConfigured，不会发起任何网络请求。
func (f *GatewayFactory) Get(ctx context.Context, modelName string) (model.ToolCallingChatModel, error) {
	if f == nil || f.cfg == nil {
		return nil, apperrors.ErrLLMNotConfigured
	}
	apiKey := strings.TrimSpace(f.cfg.APIKey)
	if apiKey == "" {
		logger.Error(ctx, "AI gateway credential is not configured", nil)
		return nil, apperrors.ErrLLMNotConfigured
	}

	name := strings.TrimSpace(modelName)
	if name == "" {
		name = strings.TrimSpace(f.cfg.Model)
	}
	timeout := f.cfg.Timeout
	if timeout <= 0 {
		timeout = gatewayDefaultTimeout
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(f.cfg.BaseURL, "/"),
		Model:   name,
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}
	return &gatewayChatModel{inner: chatModel, maxErrorBytes: f.maxErrorBytes()}, nil
}

func (f *GatewayFactory) maxErrorBytes() int {
	if f.cfg.MaxErrorBodyBytes > 0 {
		return int(f.cfg.MaxErrorBodyBytes)
	}
	return gatewayDefaultErrorBytes
}
