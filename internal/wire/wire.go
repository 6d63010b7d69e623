//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"dream-planner-api/internal/application/auth"
	"dream-planner-api/internal/application/dream"
	"dream-planner-api/internal/application/planner"
	"dream-planner-api/internal/application/quota"
	"dream-planner-api/internal/config"
	"dream-planner-api/internal/domain/repository"
	"dream-planner-api/internal/infrastructure/persistence/postgres"
	"dream-planner-api/internal/infrastructure/persistence/redis"
	"dream-planner-api/internal/interfaces/http/handler"
	"dream-planner-api/internal/interfaces/http/middleware"
	"dream-planner-api/internal/interfaces/http/router"
)

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		ProvidePostgresClient,
		postgres.NewUserRepository,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		LLMSet,
		ServiceSet,
		RouterSet,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewDreamRepository,
	postgres.NewStepRepository,
	postgres.NewLLMUsageEventRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.DreamRepository), new(*postgres.DreamRepository)),
	wire.Bind(new(repository.StepRepository), new(*postgres.StepRepository)),
	wire.Bind(new(repository.LLMUsageEventRepository), new(*postgres.LLMUsageEventRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// LLMSet AI 网关调用链
var LLMSet = wire.NewSet(
	quota.NewLLMUsageRecorder,
	ProvideChatModelFactory,
	ProvideTokenQuotaChecker,
	ProvideGenerator,
	wire.Bind(new(planner.StepGenerator), new(*planner.Generator)),
)

// ServiceSet 应用服务集合
var ServiceSet = wire.NewSet(
	ProvideDreamService,
	ProvideAuthService,
	wire.Bind(new(handler.DreamService), new(*dream.Service)),
	wire.Bind(new(handler.AuthService), new(*auth.Service)),
	wire.Bind(new(handler.UsageReader), new(*quota.TokenQuotaChecker)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewAuthHandler,
	handler.NewUserHandler,
	handler.NewDreamHandler,
	handler.NewGenerateHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
