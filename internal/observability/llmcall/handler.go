// Package llmcall 通过 eino 全局回调为每次 AI 网关调用记录指标、追踪与用量
package llmcall

import (
	"context"
	"errors"
	"net/http"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	goopenai "github.com/meguminnnnnnnnn/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	llmctx "dream-planner-api/internal/domain/service"
	"dream-planner-api/pkg/logger"
	"dream-planner-api/pkg/metrics"
)

// callStateKey OnStart 写入、OnEnd/OnError 读取的调用状态
type callStateKey struct{}

type callState struct {
	start time.Time
	model string
}

// NewChatModelHandler 创建 ChatModel 回调处理器；recorder 为 nil 时只记指标与追踪
func NewChatModelHandler(recorder llmctx.LLMUsageRecorder) *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			st := &callState{start: time.Now(), model: modelNameFromInput(input)}
			ctx = context.WithValue(ctx, callStateKey{}, st)

			attrs := []attribute.KeyValue{
				attribute.String("llm.workflow", llmctx.WorkflowFromContext(ctx)),
				attribute.String("llm.provider", llmctx.ProviderFromContext(ctx)),
				attribute.String("llm.model", st.model),
			}
			if info != nil {
				attrs = append(attrs,
					attribute.String("eino.node_name", info.Name),
					attribute.String("eino.type", info.Type),
				)
			}
			ctx, _ = otel.Tracer("eino").Start(ctx, "llm.generate", trace.WithAttributes(attrs...))
			return ctx
		},

		OnEnd: func(ctx context.Context, _ *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			workflow := llmctx.WorkflowFromContext(ctx)
			provider := llmctx.ProviderFromContext(ctx)
			st := stateFromContext(ctx)
			modelName := st.model
			if output != nil && output.Config != nil && output.Config.Model != "" {
				modelName = output.Config.Model
			}
			elapsed := st.elapsed()

			metrics.LLMCallTotal.WithLabelValues(workflow, provider, modelName, "success").Inc()
			metrics.LLMCallDuration.WithLabelValues(workflow, provider, modelName).Observe(elapsed.Seconds())

			span := trace.SpanFromContext(ctx)
			if output != nil && output.TokenUsage != nil {
				prompt := output.TokenUsage.PromptTokens
				completion := output.TokenUsage.CompletionTokens

				metrics.LLMTokensUsed.WithLabelValues(workflow, provider, modelName, "prompt").Add(float64(prompt))
				metrics.LLMTokensUsed.WithLabelValues(workflow, provider, modelName, "completion").Add(float64(completion))
				span.SetAttributes(
					attribute.Int("llm.prompt_tokens", prompt),
					attribute.Int("llm.completion_tokens", completion),
				)

				if recorder != nil {
					in := llmctx.NewLLMUsageInput(ctx, provider, modelName, prompt, completion, elapsed)
					if err := recorder.Record(ctx, in); err != nil {
						logger.Warn(ctx, "failed to record llm usage", "error", err.Error())
					}
				}
			}
			span.End()
			return ctx
		},

		OnError: func(ctx context.Context, _ *einocb.RunInfo, err error) context.Context {
			workflow := llmctx.WorkflowFromContext(ctx)
			provider := llmctx.ProviderFromContext(ctx)
			st := stateFromContext(ctx)

			metrics.LLMCallTotal.WithLabelValues(workflow, provider, st.model, statusLabel(err)).Inc()
			metrics.LLMCallDuration.WithLabelValues(workflow, provider, st.model).Observe(st.elapsed().Seconds())

			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return ctx
		},
	}
}

func stateFromContext(ctx context.Context) *callState {
	if st, ok := ctx.Value(callStateKey{}).(*callState); ok && st != nil {
		return st
	}
	return &callState{}
}

func (s *callState) elapsed() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	return time.Since(s.start)
}

func modelNameFromInput(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

// statusLabel 将上游错误归类为有限的指标标签
func statusLabel(err error) string {
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	status := 0
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status == http.StatusPaymentRequired:
		return "billing_exhausted"
	case status != 0:
		return "provider_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
