// Package planner 实现梦想到行动步骤的生成
package planner

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"dream-planner-api/internal/application/quota"
	"dream-planner-api/internal/domain/entity"
	llmctx "dream-planner-api/internal/domain/service"
	"dream-planner-api/internal/workflow/chain"
	wfmodel "dream-planner-api/internal/workflow/model"
	"dream-planner-api/internal/workflow/node"
	workflowport "dream-planner-api/internal/workflow/port"
	apperrors "dream-planner-api/pkg/errors"
	"dream-planner-api/pkg/logger"
	"dream-planner-api/pkg/metrics"
)

var tracer = otel.Tracer("planner")

// 输入校验错误
var (
	ErrDreamRequired = apperrors.New(apperrors.CodeInvalidParam, "dream is required")
	ErrDomainInvalid = apperrors.New(apperrors.CodeInvalidParam, "domain must be one of: startup, personal, academic")
)

const logPreviewRunes = 120

// GenerationRequest 单次生成请求
type GenerationRequest struct {
	Dream  string
	Domain entity.DreamDomain
}

// GenerationResult 生成结果，Steps 长度在 [5,7] 且保持模型返回的顺序
type GenerationResult struct {
	Steps []wfmodel.ActionStep
	Meta  wfmodel.LLMUsageMeta
}

// QuotaChecker 生成前的配额检查
type QuotaChecker interface {
	CheckDailyTokens(ctx context.Context, userID string) (used int64, max int64, err error)
}

// StepGenerator 生成器接口，供 HTTP 层与梦想服务依赖
type StepGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// Generator 无状态的步骤生成器，可并发调用
type Generator struct {
	chain *chain.ActionStepsChain
	quota QuotaChecker
	model string
}

// NewGenerator 创建生成器；quota 可为 nil
func NewGenerator(factory workflowport.ChatModelFactory, quota QuotaChecker, model string) *Generator {
	return &Generator{
		chain: chain.NewActionStepsChain(factory),
		quota: quota,
		model: strings.TrimSpace(model),
	}
}

// Generate 校验输入、调用 AI 网关并校验返回的步骤。
// 失败时返回 *errors.AppError，HTTPStatus 即对外状态码；不做内部重试。
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	if strings.TrimSpace(req.Dream) == "" {
		return nil, ErrDreamRequired
	}
	if !req.Domain.Valid() {
		return nil, ErrDomainInvalid
	}

	ctx, span := tracer.Start(ctx, "planner.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("dream.domain", string(req.Domain)))

	domain := string(req.Domain)
	start := time.Now()

	if err := g.checkQuota(ctx); err != nil {
		metrics.StepGenerationTotal.WithLabelValues(domain, "quota_exceeded").Inc()
		return nil, err
	}

	logger.Info(ctx, "generating steps",
		"domain", domain,
		"dream_preview", node.PreviewText(req.Dream, logPreviewRunes),
	)

	out, err := g.chain.Invoke(ctx, &wfmodel.ActionStepsInput{
		Dream:  req.Dream,
		Domain: req.Domain,
		Model:  g.model,
	})
	metrics.StepGenerationDuration.WithLabelValues(domain).Observe(time.Since(start).Seconds())
	if err != nil {
		appErr := classify(err)
		metrics.StepGenerationTotal.WithLabelValues(domain, outcome(appErr)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, appErr.Message)
		logger.Error(ctx, "step generation failed", err,
			"domain", domain,
			"code", string(appErr.Code),
			"http_status", appErr.HTTPStatus,
		)
		return nil, appErr
	}

	metrics.StepGenerationTotal.WithLabelValues(domain, "success").Inc()
	metrics.GeneratedStepCount.Observe(float64(len(out.Steps)))
	span.SetAttributes(attribute.Int("planner.steps", len(out.Steps)))
	logger.Info(ctx, "steps generated",
		"domain", domain,
		"steps", len(out.Steps),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &GenerationResult{Steps: out.Steps, Meta: out.Meta}, nil
}

// checkQuota 配额耗尽时拒绝；配额查询本身失败时放行
func (g *Generator) checkQuota(ctx context.Context) error {
	if g.quota == nil {
		return nil
	}
	userID := llmctx.UserIDFromContext(ctx)
	used, max, err := g.quota.CheckDailyTokens(ctx, userID)
	if err == nil {
		return nil
	}
	var qe quota.TokenQuotaExceededError
	if errors.As(err, &qe) {
		logger.Warn(ctx, "daily token quota exceeded", "used", used, "max", max)
		return apperrors.ErrQuotaExceeded
	}
	logger.Warn(ctx, "quota check failed, allowing request", "error", err.Error())
	return nil
}

// classify 将链路错误归入对外错误分类
func classify(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, node.ErrMalformedSteps):
		return apperrors.ErrLLMMalformedResponse.WithError(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.ErrLLMTransport.WithError(err)
	default:
		return apperrors.ErrGenerationFailed.WithError(err)
	}
}

func outcome(appErr *apperrors.AppError) string {
	switch appErr.Code {
	case apperrors.CodeLLMRateLimited:
		return "rate_limited"
	case apperrors.CodeLLMBillingExhausted:
		return "billing_exhausted"
	case apperrors.CodeLLMNotConfigured:
		return "not_configured"
	case apperrors.CodeLLMMalformedResponse:
		return "malformed"
	case apperrors.CodeLLMTransport, apperrors.CodeLLMProviderError:
		return "upstream_error"
	default:
		return "error"
	}
}
