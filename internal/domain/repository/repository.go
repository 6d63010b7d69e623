// Package repository 定义数据访问层接口
//
// 梦想与步骤的所有读写都按用户归属限定：不属于调用方的记录与不存在的记录
// 表现一致（返回 nil 或 false），由上层统一映射为 404。
package repository

import (
	"context"
)

// TxKey 在 context 中携带进行中的事务，仓储实现据此复用同一连接
type TxKey struct{}

// Transactor 保证一个梦想与其全部步骤原子落库：fn 内任一写入失败，
// 梦想与步骤都不保留。fn 必须使用传入的 txCtx 调用仓储。
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
