// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"dream-planner-api/internal/interfaces/http/middleware"
)

// RegisterFunctionRoutes 注册函数接口。
// 所有响应带固定 CORS 头，错误体为 {"error": "..."}。
// 预检与未匹配的路径、方法由 Router.setupFallbacks 统一应答；
// 这里不注册 OPTIONS 通配路由，否则未知路径会被判成 405。
func RegisterFunctionRoutes(fn *gin.RouterGroup, h *Handlers, authCfg middleware.AuthConfig, limit gin.HandlerFunc) {
	fn.Use(middleware.FunctionCORS())

	fn.POST("/generate-steps", middleware.OptionalAuth(authCfg), limit, h.Generate.GenerateSteps)
}

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers, authCfg middleware.AuthConfig, limit gin.HandlerFunc) {
	// 认证管理
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
	}

	protected := v1.Group("", middleware.Auth(authCfg))

	// 用户
	users := protected.Group("/users")
	{
		users.GET("/me", h.Auth.GetMe)
		users.GET("/me/usage", h.User.GetUsage)
	}

	// 梦想
	dreams := protected.Group("/dreams")
	{
		dreams.GET("", h.Dream.ListDreams)
		dreams.POST("", limit, h.Dream.CreateDream)
		dreams.POST("/import", h.Dream.ImportDream)
		dreams.GET("/:id", h.Dream.GetDream)
		dreams.DELETE("/:id", h.Dream.DeleteDream)
	}

	// 步骤
	steps := protected.Group("/steps")
	{
		steps.PATCH("/:id", h.Dream.ToggleStep)
	}
}
