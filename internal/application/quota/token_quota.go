// Package quota 提供用户配额相关能力
package quota

import (
	"context"
	"fmt"
	"time"

	"dream-planner-api/internal/domain/entity"
	"dream-planner-api/internal/domain/repository"
)

// TokenQuotaExceededError 表示用户 Token 日配额已耗尽
type TokenQuotaExceededError struct {
	UserID string
	Max    int64
	Used   int64
}

func (e TokenQuotaExceededError) Error() string {
	return fmt.Sprintf("token quota exceeded: user=%s used=%d max=%d", e.UserID, e.Used, e.Max)
}

// DailyUsage 用户当日（UTC）用量快照
type DailyUsage struct {
	Day        time.Time
	Used       int64
	Max        int64
	ByWorkflow []entity.WorkflowUsage
}

// Remaining 剩余额度；不限制时返回 -1
func (u *DailyUsage) Remaining() int64 {
	if u.Max <= 0 {
		return -1
	}
	if u.Used >= u.Max {
		return 0
	}
	return u.Max - u.Used
}

// TokenQuotaChecker 按 UTC 自然日检查用户 Token 配额
type TokenQuotaChecker struct {
	usageRepo repository.LLMUsageEventRepository
	maxDaily  int64
	now       func() time.Time
}

// NewTokenQuotaChecker maxDaily <= 0 表示不限制
func NewTokenQuotaChecker(usageRepo repository.LLMUsageEventRepository, maxDaily int64) *TokenQuotaChecker {
	return &TokenQuotaChecker{
		usageRepo: usageRepo,
		maxDaily:  maxDaily,
		now:       time.Now,
	}
}

// CheckDailyTokens 返回当日 used/limit；用尽时返回 TokenQuotaExceededError。
// 未配置配额或匿名用户时不查询。
func (c *TokenQuotaChecker) CheckDailyTokens(ctx context.Context, userID string) (used int64, limit int64, err error) {
	if c == nil || c.usageRepo == nil || c.maxDaily <= 0 || userID == "" {
		return 0, 0, nil
	}

	start, end := entity.UsageDay(c.now())
	used, err = c.usageRepo.SumTokens(ctx, userID, start, end)
	if err != nil {
		return 0, c.maxDaily, err
	}
	if used >= c.maxDaily {
		return used, c.maxDaily, TokenQuotaExceededError{UserID: userID, Max: c.maxDaily, Used: used}
	}
	return used, c.maxDaily, nil
}

// DailyUsage 汇总当日用量及按工作流的明细，配额为 0 时同样统计
func (c *TokenQuotaChecker) DailyUsage(ctx context.Context, userID string) (*DailyUsage, error) {
	start, end := entity.UsageDay(c.now())
	out := &DailyUsage{Day: start, Max: c.maxDaily, ByWorkflow: []entity.WorkflowUsage{}}
	if c.usageRepo == nil || userID == "" {
		return out, nil
	}

	rows, err := c.usageRepo.SumByWorkflow(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out.Used += row.Tokens
	}
	out.ByWorkflow = rows
	return out, nil
}
