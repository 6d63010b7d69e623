// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dream-planner-api/internal/application/planner"
	"dream-planner-api/internal/domain/entity"
	llmctx "dream-planner-api/internal/domain/service"
	"dream-planner-api/internal/interfaces/http/dto"
	"dream-planner-api/internal/interfaces/http/middleware"
)

// GenerateHandler 步骤生成函数接口
type GenerateHandler struct {
	generator planner.StepGenerator
}

// NewGenerateHandler 创建步骤生成处理器
func NewGenerateHandler(generator planner.StepGenerator) *GenerateHandler {
	return &GenerateHandler{generator: generator}
}

// GenerateSteps 将梦想拆解为 5-7 个行动步骤，不落库
// @Summary 生成行动步骤
// @Tags Functions
// @Accept json
// @Produce json
// @Param body body dto.GenerateStepsRequest true "梦想与领域"
// @Success 200 {object} dto.GenerateStepsResponse
// @Failure 400 {object} dto.FunctionError
// @Failure 402 {object} dto.FunctionError
// @Failure 429 {object} dto.FunctionError
// @Failure 500 {object} dto.FunctionError
// @Router /functions/v1/generate-steps [post]
func (h *GenerateHandler) GenerateSteps(c *gin.Context) {
	var req dto.GenerateStepsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.FunctionError{Error: "invalid request body"})
		return
	}

	ctx := llmctx.WithWorkflow(c.Request.Context(), llmctx.WorkflowGenerateSteps)
	ctx = llmctx.WithUserID(ctx, middleware.GetUserIDFromGin(c))

	res, err := h.generator.Generate(ctx, planner.GenerationRequest{
		Dream:  req.Dream,
		Domain: entity.DreamDomain(req.Domain),
	})
	if err != nil {
		renderFunctionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GenerateStepsResponse{Steps: res.Steps})
}
