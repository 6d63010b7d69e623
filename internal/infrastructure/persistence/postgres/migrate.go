// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"fmt"

	"dream-planner-api/internal/domain/entity"
)

// Models 返回需要迁移的全部模型，顺序即建表顺序
func Models() []any {
	return []any{
		&entity.User{},
		&entity.Dream{},
		&entity.Step{},
		&entity.LLMUsageEvent{},
	}
}

// Migrate 执行表结构迁移
func (c *Client) Migrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.Migrate")
	defer span.End()

	db := c.db.WithContext(ctx)
	// gen_random_uuid() 在 PostgreSQL 13 以下需要 pgcrypto
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}
