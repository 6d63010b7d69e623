// Package router 提供 HTTP 路由配置
package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dream-planner-api/internal/config"
	"dream-planner-api/internal/interfaces/http/dto"
	"dream-planner-api/internal/interfaces/http/handler"
	"dream-planner-api/internal/interfaces/http/middleware"
	apperrors "dream-planner-api/pkg/errors"
)

// functionsPrefix 函数接口路径前缀，使用独立的 CORS 策略
const functionsPrefix = "/functions/"

// Handlers 路由依赖的处理器集合
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Dream    *handler.DreamHandler
	Generate *handler.GenerateHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers *Handlers
	limiter  middleware.RateLimiter
}

// New 创建路由器；limiter 为 nil 时不限流
func New(cfg *config.Config, handlers *Handlers, limiter middleware.RateLimiter) *Router {
	// 设置 Gin 模式
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置全局中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Tracing(r.cfg.App.Name)...)
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(r.cfg.Observability.Metrics.Path))
	}

	r.engine.Use(middleware.AccessLog(middleware.DefaultSkipPaths...))

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods:   r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders:   r.cfg.Security.CORS.AllowedHeaders,
		SkipPathPrefixes: []string{functionsPrefix},
	}))
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	h := r.handlers

	// 系统端点
	r.engine.GET("/health", h.Health.Health)
	r.engine.GET("/ready", h.Health.Ready)
	r.engine.GET("/live", h.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	authCfg := middleware.AuthConfig{
		Secret: r.cfg.Security.JWT.Secret,
		Issuer: r.cfg.Security.JWT.Issuer,
	}
	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:  r.cfg.Security.RateLimit.Enabled,
		Requests: r.cfg.Security.RateLimit.Requests,
		Window:   r.cfg.Security.RateLimit.Window,
	}, r.limiter)

	RegisterFunctionRoutes(r.engine.Group("/functions/v1"), h, authCfg, limit)
	RegisterV1Routes(r.engine.Group("/v1"), h, authCfg, limit)

	r.setupFallbacks()
}

// setupFallbacks 未匹配的路径与方法。尾斜杠不做 307 重定向，
// 否则函数接口的重定向响应既无 CORS 头也无错误体。
func (r *Router) setupFallbacks() {
	r.engine.RedirectTrailingSlash = false
	r.engine.HandleMethodNotAllowed = true

	r.engine.NoRoute(byPrefix(
		middleware.FunctionFallback(http.StatusNotFound, apperrors.CodeNotFound, "not found"),
		http.StatusNotFound, "not found",
	))
	r.engine.NoMethod(byPrefix(
		middleware.FunctionFallback(http.StatusMethodNotAllowed, apperrors.CodeInvalidParam, "method not allowed"),
		http.StatusMethodNotAllowed, "method not allowed",
	))
}

// byPrefix 函数接口前缀交给 fn，其余路径返回统一错误信封
func byPrefix(fn gin.HandlerFunc, status int, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, functionsPrefix) {
			fn(c)
			return
		}
		dto.Error(c, status, msg)
	}
}
