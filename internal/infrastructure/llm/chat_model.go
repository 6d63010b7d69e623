package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	goopenai "github.com/meguminnnnnnnnn/go-openai"

	apperrors "dream-planner-api/pkg/errors"
	"dream-planner-api/pkg/logger"
)

const gatewayModelType = "AIGateway"

// gatewayChatModel 包装 eino ChatModel，把上游错误翻译为对外错误分类
type gatewayChatModel struct {
	inner         model.ToolCallingChatModel
	maxErrorBytes int
}

func (m *gatewayChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	msg, err := m.inner.Generate(ctx, input, opts...)
	if err != nil {
		return nil, m.mapError(ctx, err)
	}
	return msg, nil
}

func (m *gatewayChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	sr, err := m.inner.Stream(ctx, input, opts...)
	if err != nil {
		return nil, m.mapError(ctx, err)
	}
	return sr, nil
}

func (m *gatewayChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	inner, err := m.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &gatewayChatModel{inner: inner, maxErrorBytes: m.maxErrorBytes}, nil
}

// GetType 沿用底层适配器的类型名，供回调 RunInfo 使用
func (m *gatewayChatModel) GetType() string {
	if t, ok := m.inner.(interface{ GetType() string }); ok {
		return t.GetType()
	}
	return gatewayModelType
}

// mapError 按上游 HTTP 状态分类；上游原文只写日志
func (m *gatewayChatModel) mapError(ctx context.Context, err error) error {
	status := StatusCode(err)
	if status == 0 {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			logger.Error(ctx, "AI gateway returned an undecodable response", err)
			return apperrors.ErrLLMMalformedResponse.WithError(err)
		}
		logger.Error(ctx, "AI gateway transport failure", err)
		return apperrors.ErrLLMTransport.WithError(err)
	}

	logger.Error(ctx, "AI gateway error", err,
		"status", status,
		"body", truncate(err.Error(), m.maxErrorBytes),
	)
	switch status {
	case http.StatusTooManyRequests:
		return apperrors.ErrLLMRateLimited.WithError(err)
	case http.StatusPaymentRequired:
		return apperrors.ErrLLMBillingExhausted.WithError(err)
	default:
		return apperrors.NewLLMProviderError(status).WithError(err)
	}
}

// StatusCode 取出 go-openai 错误携带的上游 HTTP 状态码，非 HTTP 错误返回 0
func StatusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func truncate(s string, limit int) string {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
