// Package wire 提供依赖注入配置
package wire

import (
	"dream-planner-api/internal/application/auth"
	"dream-planner-api/internal/application/dream"
	"dream-planner-api/internal/application/planner"
	"dream-planner-api/internal/application/quota"
	"dream-planner-api/internal/config"
	"dream-planner-api/internal/domain/repository"
	"dream-planner-api/internal/infrastructure/llm"
	"dream-planner-api/internal/infrastructure/persistence/postgres"
	"dream-planner-api/internal/infrastructure/persistence/redis"
	"dream-planner-api/internal/interfaces/http/handler"
	"dream-planner-api/internal/observability/llmcall"
)

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient *postgres.Client
	UserRepo *postgres.UserRepository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideChatModelFactory 提供 AI 网关 ChatModel 工厂，凭证在每次调用时从配置读取。
// 同时注册 eino 全局回调，使每次调用都记录指标、追踪与用量。
func ProvideChatModelFactory(cfg *config.Config, recorder *quota.LLMUsageRecorder) *llm.GatewayFactory {
	llmcall.Init(recorder)
	return llm.NewGatewayFactory(&cfg.LLM.Gateway)
}

// ProvideTokenQuotaChecker 提供每日 Token 配额检查
func ProvideTokenQuotaChecker(repo repository.LLMUsageEventRepository, cfg *config.Config) *quota.TokenQuotaChecker {
	return quota.NewTokenQuotaChecker(repo, cfg.Planner.DailyTokenQuota)
}

// ProvideGenerator 提供步骤生成器
func ProvideGenerator(factory *llm.GatewayFactory, checker *quota.TokenQuotaChecker, cfg *config.Config) *planner.Generator {
	return planner.NewGenerator(factory, checker, cfg.LLM.Gateway.Model)
}

// ProvideDreamService 提供梦想服务
func ProvideDreamService(
	dreams repository.DreamRepository,
	steps repository.StepRepository,
	tx repository.Transactor,
	generator planner.StepGenerator,
	cache *redis.Cache,
	cfg *config.Config,
) *dream.Service {
	return dream.NewService(dreams, steps, tx, generator, cache, &cfg.Planner)
}

// ProvideAuthService 提供认证服务
func ProvideAuthService(users repository.UserRepository, cfg *config.Config) *auth.Service {
	return auth.NewService(users, &cfg.Security.JWT)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rdb *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, pg, rdb)
}
