// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"dream-planner-api/internal/domain/entity"
	"dream-planner-api/internal/interfaces/http/dto"
	"dream-planner-api/internal/interfaces/http/middleware"
	wfmodel "dream-planner-api/internal/workflow/model"
)

// DreamService 梦想业务接口
type DreamService interface {
	GenerateAndCreate(ctx context.Context, userID, text string, domain entity.DreamDomain) (*entity.Dream, error)
	Import(ctx context.Context, userID, text string, domain entity.DreamDomain, steps []wfmodel.ActionStep) (*entity.Dream, error)
	List(ctx context.Context, userID string) ([]*entity.Dream, error)
	Get(ctx context.Context, userID, id string) (*entity.Dream, error)
	Delete(ctx context.Context, userID, id string) error
	ToggleStep(ctx context.Context, userID, stepID string, completed *bool) (*entity.Step, entity.Progress, error)
}

// DreamHandler 梦想处理器
type DreamHandler struct {
	svc DreamService
}

// NewDreamHandler 创建梦想处理器
func NewDreamHandler(svc DreamService) *DreamHandler {
	return &DreamHandler{svc: svc}
}

// CreateDream 生成步骤并保存梦想
// @Summary 创建梦想
// @Tags Dreams
// @Accept json
// @Produce json
// @Param body body dto.CreateDreamRequest true "梦想与领域"
// @Success 201 {object} dto.Response[dto.DreamResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 402 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/dreams [post]
func (h *DreamHandler) CreateDream(c *gin.Context) {
	var req dto.CreateDreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	d, err := h.svc.GenerateAndCreate(c.Request.Context(), middleware.GetUserIDFromGin(c), req.Dream, entity.DreamDomain(req.Domain))
	if err != nil {
		renderError(c, err, "failed to create dream")
		return
	}
	dto.Created(c, dto.ToDreamResponse(d))
}

// ImportDream 保存已生成的步骤
// @Router /v1/dreams/import [post]
func (h *DreamHandler) ImportDream(c *gin.Context) {
	var req dto.ImportDreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	d, err := h.svc.Import(c.Request.Context(), middleware.GetUserIDFromGin(c), req.Dream, entity.DreamDomain(req.Domain), req.ToActionSteps())
	if err != nil {
		renderError(c, err, "failed to import dream")
		return
	}
	dto.Created(c, dto.ToDreamResponse(d))
}

// ListDreams 获取当前用户的梦想列表
// @Summary 梦想列表
// @Tags Dreams
// @Produce json
// @Success 200 {object} dto.Response[dto.DreamListResponse]
// @Router /v1/dreams [get]
func (h *DreamHandler) ListDreams(c *gin.Context) {
	dreams, err := h.svc.List(c.Request.Context(), middleware.GetUserIDFromGin(c))
	if err != nil {
		renderError(c, err, "failed to list dreams")
		return
	}
	dto.Success(c, dto.ToDreamListResponse(dreams))
}

// GetDream 获取梦想详情
// @Router /v1/dreams/{id} [get]
func (h *DreamHandler) GetDream(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), middleware.GetUserIDFromGin(c), c.Param("id"))
	if err != nil {
		renderError(c, err, "failed to get dream")
		return
	}
	dto.Success(c, dto.ToDreamResponse(d))
}

// DeleteDream 删除梦想
// @Router /v1/dreams/{id} [delete]
func (h *DreamHandler) DeleteDream(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.GetUserIDFromGin(c), c.Param("id")); err != nil {
		renderError(c, err, "failed to delete dream")
		return
	}
	dto.NoContent(c)
}

// ToggleStep 切换步骤完成状态，请求体可省略
// @Router /v1/steps/{id} [patch]
func (h *DreamHandler) ToggleStep(c *gin.Context) {
	var req dto.ToggleStepRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	step, progress, err := h.svc.ToggleStep(c.Request.Context(), middleware.GetUserIDFromGin(c), c.Param("id"), req.Completed)
	if err != nil {
		renderError(c, err, "failed to toggle step")
		return
	}
	dto.Success(c, &dto.ToggleStepResponse{
		Step:     dto.ToStepResponse(step),
		Progress: progress,
	})
}
