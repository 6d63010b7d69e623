package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dream-planner-api/internal/domain/entity"
	"dream-planner-api/internal/domain/service"
)

type fakeUsageRepo struct {
	events     []*entity.LLMUsageEvent
	used       int64
	rows       []entity.WorkflowUsage
	err        error
	start, end time.Time
}

func (f *fakeUsageRepo) Create(_ context.Context, e *entity.LLMUsageEvent) error {
	f.events = append(f.events, e)
	return f.err
}

func (f *fakeUsageRepo) SumTokens(_ context.Context, _ string, start, end time.Time) (int64, error) {
	f.start, f.end = start, end
	return f.used, f.err
}

func (f *fakeUsageRepo) SumByWorkflow(_ context.Context, _ string, start, end time.Time) ([]entity.WorkflowUsage, error) {
	f.start, f.end = start, end
	return f.rows, f.err
}

func TestLLMUsageRecorder_Record(t *testing.T) {
	repo := &fakeUsageRepo{}
	r := NewLLMUsageRecorder(repo)

	require.NoError(t, r.Record(context.Background(), service.LLMUsageInput{
		UserID: "u1", Workflow: "generate_steps", Provider: "gateway", Model: "m",
		PromptTokens: 10, CompletionTokens: 20, DurationMs: 5,
	}))
	require.Len(t, repo.events, 1)
	assert.Equal(t, 30, repo.events[0].TotalTokens())

	// 匿名调用不落库
	require.NoError(t, r.Record(context.Background(), service.LLMUsageInput{PromptTokens: 1}))
	assert.Len(t, repo.events, 1)

	assert.Error(t, r.Record(context.Background(), service.LLMUsageInput{UserID: "u1", PromptTokens: -1}))
}

func TestTokenQuotaChecker(t *testing.T) {
	repo := &fakeUsageRepo{used: 100}
	c := NewTokenQuotaChecker(repo, 100)
	c.now = func() time.Time { return time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC) }

	used, limit, err := c.CheckDailyTokens(context.Background(), "u1")
	var qe TokenQuotaExceededError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, int64(100), used)
	assert.Equal(t, int64(100), limit)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), repo.start)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), repo.end)

	repo.used = 99
	_, _, err = c.CheckDailyTokens(context.Background(), "u1")
	assert.NoError(t, err)

	// 未配置配额或匿名用户时不查询
	repo.err = errors.New("db down")
	_, _, err = NewTokenQuotaChecker(repo, 0).CheckDailyTokens(context.Background(), "u1")
	assert.NoError(t, err)
	_, _, err = c.CheckDailyTokens(context.Background(), "")
	assert.NoError(t, err)
}

func TestTokenQuotaChecker_DailyUsage(t *testing.T) {
	repo := &fakeUsageRepo{rows: []entity.WorkflowUsage{
		{Workflow: "create_dream", Calls: 2, Tokens: 300},
		{Workflow: "generate_steps", Calls: 1, Tokens: 120},
	}}
	c := NewTokenQuotaChecker(repo, 1000)
	c.now = func() time.Time { return time.Date(2026, 3, 4, 23, 59, 0, 0, time.FixedZone("UTC+8", 8*3600)) }

	usage, err := c.DailyUsage(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(420), usage.Used)
	assert.Equal(t, int64(580), usage.Remaining())
	assert.Len(t, usage.ByWorkflow, 2)
	// 按 UTC 计日
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), usage.Day)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), repo.end)

	unlimited, err := NewTokenQuotaChecker(repo, 0).DailyUsage(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), unlimited.Remaining())

	repo.err = errors.New("db down")
	_, err = c.DailyUsage(context.Background(), "u1")
	assert.Error(t, err)
}
