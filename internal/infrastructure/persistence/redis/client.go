// Package redis 提供梦想列表缓存与生成接口限流的 Redis 实现
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"dream-planner-api/internal/config"
	"dream-planner-api/pkg/logger"
)

var tracer = otel.Tracer("redis")

const (
	clientName         = "dream-planner-api"
	defaultPingTimeout = 5 * time.Second
)

// Client 列表缓存与限流器共用的 Redis 连接
type Client struct {
	rdb  *redis.Client
	addr string
}

// NewClient 创建 Redis 客户端，启动时连不上直接失败
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		ClientName:   clientName,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	logger.Info(ctx, "redis connected", "addr", addr, "db", cfg.DB)

	return &Client{rdb: rdb, addr: addr}, nil
}

// Close 关闭连接池
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck 就绪探测，附带连接池状态
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.HealthCheck")
	defer span.End()

	stats := c.rdb.PoolStats()
	span.SetAttributes(
		attribute.String("redis.addr", c.addr),
		attribute.Int64("redis.pool.total_conns", int64(stats.TotalConns)),
		attribute.Int64("redis.pool.idle_conns", int64(stats.IdleConns)),
		attribute.Int64("redis.pool.timeouts", int64(stats.Timeouts)),
	)

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis %s unreachable: %w", c.addr, err)
	}
	return nil
}

// IsNil 键不存在
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
