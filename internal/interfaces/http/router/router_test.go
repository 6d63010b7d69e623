package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"dream-planner-api/internal/application/planner"
	"dream-planner-api/internal/config"
	"dream-planner-api/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noopModel struct{}

func (noopModel) Get(context.Context, string) (model.ToolCallingChatModel, error) {
	return noopModel{}, nil
}

func (noopModel) WithTools([]*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return noopModel{}, nil
}

func (noopModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func (noopModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return &schema.Message{Role: schema.Assistant}, nil
}

type okChecker struct{}

func (okChecker) HealthCheck(context.Context) error { return nil }

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

func newTestRouter(limiter *denyLimiter) *gin.Engine {
	cfg := &config.Config{}
	cfg.App.Name = "dream-planner-api"
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"
	cfg.Security.JWT.Secret = "test"
	cfg.Security.JWT.Issuer = "dream-planner"
	cfg.Security.CORS.AllowedOrigins = []string{"https://app.example.com"}
	cfg.Security.RateLimit.Enabled = limiter != nil
	cfg.Security.RateLimit.Requests = 1
	cfg.Security.RateLimit.Window = time.Minute

	handlers := &Handlers{
		Health:   handler.NewHealthHandler("test", okChecker{}, okChecker{}),
		Auth:     handler.NewAuthHandler(nil),
		User:     handler.NewUserHandler(nil),
		Dream:    handler.NewDreamHandler(nil),
		Generate: handler.NewGenerateHandler(planner.NewGenerator(noopModel{}, nil, "")),
	}
	if limiter == nil {
		return New(cfg, handlers, nil).Engine()
	}
	return New(cfg, handlers, limiter).Engine()
}

func serve(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFunctionRoutes_CORS(t *testing.T) {
	r := newTestRouter(nil)

	w := serve(r, http.MethodOptions, "/functions/v1/generate-steps", "", map[string]string{
		"Origin":                        "https://elsewhere.example",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))

	w = serve(r, http.MethodPost, "/functions/v1/generate-steps", `{"dream":"x","domain":"cooking"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"error":"domain must be one of: startup, personal, academic"}`, w.Body.String())

	// 模型返回空步骤数组
	w = serve(r, http.MethodPost, "/functions/v1/generate-steps", `{"dream":"x","domain":"startup"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"AI service returned an invalid response"}`, w.Body.String())
}

func TestFunctionRoutes_UnmatchedKeepCORS(t *testing.T) {
	r := newTestRouter(nil)

	for _, tc := range []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodGet, "/functions/v1/generate-steps", http.StatusMethodNotAllowed, `{"error":"method not allowed"}`},
		{http.MethodPut, "/functions/v1/generate-steps", http.StatusMethodNotAllowed, `{"error":"method not allowed"}`},
		{http.MethodPost, "/functions/v1/generate-step", http.StatusNotFound, `{"error":"not found"}`},
		{http.MethodPost, "/functions/v1/generate-steps/", http.StatusNotFound, `{"error":"not found"}`},
		{http.MethodPost, "/functions/v2/generate-steps", http.StatusNotFound, `{"error":"not found"}`},
	} {
		w := serve(r, tc.method, tc.path, `{"dream":"x","domain":"startup"}`, nil)
		assert.Equal(t, tc.status, w.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), "%s %s", tc.method, tc.path)
		assert.Equal(t, "authorization, x-client-info, apikey, content-type",
			w.Header().Get("Access-Control-Allow-Headers"), "%s %s", tc.method, tc.path)
		assert.JSONEq(t, tc.body, w.Body.String(), "%s %s", tc.method, tc.path)
		assert.Empty(t, w.Header().Get("Location"), "%s %s", tc.method, tc.path)
	}

	// 预检对任意函数路径都应答
	w := serve(r, http.MethodOptions, "/functions/v1/anything/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestV1Routes_UnmatchedUseEnvelope(t *testing.T) {
	r := newTestRouter(nil)

	w := serve(r, http.MethodGet, "/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, w.Body.String(), `"message":"not found"`)

	w = serve(r, http.MethodGet, "/v1/auth/login", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"method not allowed"`)
}

func TestFunctionRoutes_RateLimited(t *testing.T) {
	r := newTestRouter(&denyLimiter{})

	w := serve(r, http.MethodPost, "/functions/v1/generate-steps", `{"dream":"x","domain":"startup"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
}

func TestV1Routes_RequireAuth(t *testing.T) {
	r := newTestRouter(nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/dreams"},
		{http.MethodPost, "/v1/dreams"},
		{http.MethodPatch, "/v1/steps/abc"},
		{http.MethodGet, "/v1/users/me"},
	} {
		w := serve(r, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestSystemRoutes(t *testing.T) {
	r := newTestRouter(nil)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "", nil).Code)
}
