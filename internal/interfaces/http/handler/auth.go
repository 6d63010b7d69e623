// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"dream-planner-api/internal/application/auth"
	"dream-planner-api/internal/domain/entity"
	"dream-planner-api/internal/interfaces/http/dto"
	"dream-planner-api/internal/interfaces/http/middleware"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/v1/auth/refresh"
)

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Me(ctx context.Context, userID string) (*entity.User, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// AuthHandler 认证处理器
type AuthHandler struct {
	svc AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register 注册
// @Summary 用户注册
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "注册信息"
// @Success 201 {object} dto.Response[dto.AuthResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	sess, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		renderError(c, err, "registration failed")
		return
	}

	h.setRefreshCookie(c, sess.Tokens.RefreshToken)
	dto.Created(c, h.authResponse(sess))
}

// Login 登录
// @Summary 用户登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.Response[dto.AuthResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		renderError(c, err, "login failed")
		return
	}

	h.setRefreshCookie(c, sess.Tokens.RefreshToken)
	dto.Success(c, h.authResponse(sess))
}

// RefreshToken 使用 Cookie 中的刷新令牌换取访问令牌
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil {
		dto.Unauthorized(c, "missing refresh token")
		return
	}

	access, err := h.svc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		renderError(c, err, "refresh failed")
		return
	}

	dto.Success(c, &dto.RefreshResponse{
		AccessToken: access,
		ExpiresIn:   int(h.svc.AccessTTL().Seconds()),
	})
}

// Logout 登出
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", false, true)
	dto.Success(c, gin.H{"message": "logged out"})
}

// GetMe 获取当前用户信息
// @Router /v1/users/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), middleware.GetUserIDFromGin(c))
	if err != nil {
		renderError(c, err, "failed to get user info")
		return
	}
	dto.Success(c, dto.ToUserResponse(user))
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(refreshCookieName, token, int(h.svc.RefreshTTL().Seconds()), refreshCookiePath, "", false, true)
}

func (h *AuthHandler) authResponse(sess *auth.Session) *dto.AuthResponse {
	return &dto.AuthResponse{
		AccessToken: sess.Tokens.AccessToken,
		ExpiresIn:   int(h.svc.AccessTTL().Seconds()),
		User:        dto.ToAuthUserDTO(sess.User),
	}
}
