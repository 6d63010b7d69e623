// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"dream-planner-api/pkg/logger"
	"dream-planner-api/pkg/utils"
)

// AuthConfig 认证配置
type AuthConfig struct {
	// Secret JWT 密钥
	Secret string
	// Issuer JWT 签发者
	Issuer string
}

// Auth 认证中间件，要求有效的 Bearer 访问令牌
func Auth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		claims, err := jwtManager.ParseToken(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, utils.ErrExpiredToken) {
				msg = "token expired"
			}
			abortUnauthorized(c, msg)
			return
		}

		// 确保是 AccessToken
		if claims.Type != utils.TokenTypeAccess {
			abortUnauthorized(c, "invalid token type")
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth 携带有效访问令牌时注入用户信息，否则按匿名请求放行。
// 函数接口的 Authorization 头可能是网关 apikey，无法解析时不报错。
func OptionalAuth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := jwtManager.ParseToken(token); err == nil && claims.Type == utils.TokenTypeAccess {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func setIdentity(c *gin.Context, claims *utils.Claims) {
	c.Set(ctxKeyUserID, claims.UserID)
	c.Set(ctxKeyEmail, claims.Email)

	ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, claims.UserID)
	c.Request = c.Request.WithContext(ctx)
}
