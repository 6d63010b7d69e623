// Package redis 提供 Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"dream-planner-api/pkg/logger"
	"dream-planner-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

// Cache 缓存服务
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存服务
func NewCache(client *Client) *Cache {
	return &Cache{
		client: client,
	}
}

// GetOrLoadSafe Read-Through 缓存，使用 singleflight 防止缓存击穿。
// Redis 不可用时直接回源，不影响读取结果。
func (c *Cache) GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoadSafe",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	name := CacheName(key)

	// 尝试从缓存获取
	val, err := c.client.rdb.Get(ctx, key).Bytes()
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.CacheLookupTotal.WithLabelValues(name, "hit").Inc()
		return val, nil
	}

	if !IsNil(err) {
		span.RecordError(err)
		metrics.CacheLookupTotal.WithLabelValues(name, "error").Inc()
		logger.Warn(ctx, "cache read failed, loading from source", "key", key, "error", err.Error())
		return loadAndMarshal(loader)
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	metrics.CacheLookupTotal.WithLabelValues(name, "miss").Inc()

	// 使用 singleflight 合并并发请求
	result, err, shared := c.group.Do(key, func() (interface{}, error) {
		bytes, err := loadAndMarshal(loader)
		if err != nil {
			return nil, err
		}

		if err := c.client.rdb.Set(ctx, key, bytes, ttl).Err(); err != nil {
			// 缓存写入失败不影响返回结果
			logger.Warn(ctx, "cache write failed", "key", key, "error", err.Error())
		}

		return bytes, nil
	})

	span.SetAttributes(attribute.Bool("cache.shared", shared))

	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return result.([]byte), nil
}

func loadAndMarshal(loader func() (interface{}, error)) ([]byte, error) {
	data, err := loader()
	if err != nil {
		return nil, err
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	return bytes, nil
}

// Generation 读取代数计数器，键不存在时为 0
func (c *Cache) Generation(ctx context.Context, key string) (int64, error) {
	n, err := c.client.rdb.Get(ctx, key).Int64()
	if IsNil(err) {
		return 0, nil
	}
	return n, err
}

// BumpGeneration 递增代数计数器。读方把代数拼进数据键，
// 递增后旧代数下的条目不再被读取，在途回源写入的旧快照也随之作废。
func (c *Cache) BumpGeneration(ctx context.Context, key string) error {
	ctx, span := cacheTracer.Start(ctx, "cache.BumpGeneration",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if err := c.client.rdb.Incr(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// CacheName 取键的第一段作为指标标签，避免高基数
func CacheName(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// BuildDreamListKey 构建用户梦想列表缓存键，generation 取自 BuildDreamListGenerationKey
func BuildDreamListKey(userID string, generation int64) string {
	return fmt.Sprintf("dreams:user:%s:g%d", userID, generation)
}

// BuildDreamListGenerationKey 构建用户梦想列表的代数计数器键
func BuildDreamListGenerationKey(userID string) string {
	return fmt.Sprintf("dreams:gen:user:%s", userID)
}
