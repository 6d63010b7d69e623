package dream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dream-planner-api/internal/application/planner"
	"dream-planner-api/internal/config"
	"dream-planner-api/internal/domain/entity"
	llmctx "dream-planner-api/internal/domain/service"
	wfmodel "dream-planner-api/internal/workflow/model"
	apperrors "dream-planner-api/pkg/errors"
)

type fakeDreamRepo struct {
	mu     sync.Mutex
	dreams map[string]*entity.Dream
	order  []string
}

func newFakeDreamRepo() *fakeDreamRepo {
	return &fakeDreamRepo{dreams: map[string]*entity.Dream{}}
}

func (r *fakeDreamRepo) Create(_ context.Context, d *entity.Dream) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	cp.Steps = nil
	r.dreams[d.ID] = &cp
	r.order = append(r.order, d.ID)
	return nil
}

func (r *fakeDreamRepo) GetByID(_ context.Context, userID, id string) (*entity.Dream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dreams[id]
	if !ok || d.UserID != userID {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDreamRepo) ListByUser(_ context.Context, userID string) ([]*entity.Dream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Dream
	for i := len(r.order) - 1; i >= 0; i-- {
		d, ok := r.dreams[r.order[i]]
		if ok && d.UserID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeDreamRepo) Delete(_ context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dreams[id]
	if !ok || d.UserID != userID {
		return false, nil
	}
	delete(r.dreams, id)
	return true, nil
}

type fakeStepRepo struct {
	mu        sync.Mutex
	steps     map[string]*entity.Step
	dreams    *fakeDreamRepo
	createErr error
	// afterBatchRead 在下一次 ListByDreams 取完快照后执行一次
	afterBatchRead func()
}

func newFakeStepRepo(dreams *fakeDreamRepo) *fakeStepRepo {
	return &fakeStepRepo{steps: map[string]*entity.Step{}, dreams: dreams}
}

func (r *fakeStepRepo) CreateBatch(_ context.Context, steps []*entity.Step) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range steps {
		cp := *s
		r.steps[s.ID] = &cp
	}
	return nil
}

func (r *fakeStepRepo) ListByDream(_ context.Context, dreamID string) ([]*entity.Step, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Step
	for _, s := range r.steps {
		if s.DreamID == dreamID {
			cp := *s
			out = append(out, &cp)
		}
	}
	// map 遍历无序，由服务层负责排序
	return out, nil
}

func (r *fakeStepRepo) ListByDreams(ctx context.Context, dreamIDs []string) ([]*entity.Step, error) {
	var out []*entity.Step
	for _, id := range dreamIDs {
		steps, _ := r.ListByDream(ctx, id)
		out = append(out, steps...)
	}
	r.mu.Lock()
	hook := r.afterBatchRead
	r.afterBatchRead = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *fakeStepRepo) GetForUser(ctx context.Context, userID, id string) (*entity.Step, error) {
	r.mu.Lock()
	s, ok := r.steps[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	d, _ := r.dreams.GetByID(ctx, userID, s.DreamID)
	if d == nil {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStepRepo) SetCompleted(_ context.Context, id string, completed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.steps[id]; ok {
		s.Completed = completed
	}
	return nil
}

type fakeTx struct{ calls int }

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeGenerator struct {
	steps []wfmodel.ActionStep
	err   error
	ctx   context.Context
	req   planner.GenerationRequest
}

func (g *fakeGenerator) Generate(ctx context.Context, req planner.GenerationRequest) (*planner.GenerationResult, error) {
	g.ctx = ctx
	g.req = req
	if g.err != nil {
		return nil, g.err
	}
	return &planner.GenerationResult{Steps: g.steps}, nil
}

type fakeCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	generations map[string]int64
	loads       int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}, generations: map[string]int64{}}
}

func (c *fakeCache) Generation(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key], nil
}

func (c *fakeCache) BumpGeneration(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	return nil
}

// GetOrLoadSafe 回源期间不持锁，与真实缓存一样允许写入并发穿插
func (c *fakeCache) GetOrLoadSafe(_ context.Context, key string, _ time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	c.mu.Lock()
	if b, ok := c.data[key]; ok {
		c.mu.Unlock()
		return b, nil
	}
	c.loads++
	c.mu.Unlock()

	v, err := loader()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.data[key] = b
	c.mu.Unlock()
	return b, nil
}

type fixture struct {
	svc    *Service
	dreams *fakeDreamRepo
	steps  *fakeStepRepo
	tx     *fakeTx
	gen    *fakeGenerator
	cache  *fakeCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dreams := newFakeDreamRepo()
	f := &fixture{
		dreams: dreams,
		steps:  newFakeStepRepo(dreams),
		tx:     &fakeTx{},
		gen:    &fakeGenerator{steps: makeSteps(6)},
		cache:  newFakeCache(),
	}
	f.svc = NewService(f.dreams, f.steps, f.tx, f.gen, f.cache, &config.PlannerConfig{DreamTitleMaxRunes: 100})
	return f
}

func makeSteps(n int) []wfmodel.ActionStep {
	out := make([]wfmodel.ActionStep, n)
	for i := range out {
		out[i] = wfmodel.ActionStep{Title: fmt.Sprintf("Step %d", i+1), Description: "do it"}
	}
	return out
}

const userID = "7c1f3a52-8d0e-4b8e-9a55-0f4a3f6d2b11"

func TestGenerateAndCreate_PersistsInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.GenerateAndCreate(ctx, userID, "I want to build the next Google", entity.DreamDomainStartup)
	require.NoError(t, err)

	assert.Equal(t, 1, f.tx.calls)
	assert.Equal(t, "I want to build the next Google", d.Title)
	assert.Equal(t, entity.DreamDomainStartup, d.Domain)
	require.Len(t, d.Steps, 6)
	for i, s := range d.Steps {
		assert.Equal(t, i, s.OrderIndex)
		assert.Equal(t, fmt.Sprintf("Step %d", i+1), s.Title)
		assert.False(t, s.Completed)
		assert.Equal(t, d.ID, s.DreamID)
	}

	assert.Equal(t, userID, llmctx.UserIDFromContext(f.gen.ctx))
	assert.Equal(t, llmctx.WorkflowCreateDream, llmctx.WorkflowFromContext(f.gen.ctx))
	assert.Equal(t, int64(1), f.cache.generations["dreams:gen:user:"+userID])
}

func TestGenerateAndCreate_GeneratorErrorWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.gen.err = apperrors.ErrLLMRateLimited

	_, err := f.svc.GenerateAndCreate(context.Background(), userID, "Run a marathon", entity.DreamDomainPersonal)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, apperrors.AsAppError(err).HTTPStatus)
	assert.Equal(t, 0, f.tx.calls)
	assert.Empty(t, f.dreams.dreams)
}

func TestGenerateAndCreate_TitleTruncated(t *testing.T) {
	f := newFixture(t)
	long := ""
	for i := 0; i < 150; i++ {
		long += "é"
	}

	d, err := f.svc.GenerateAndCreate(context.Background(), userID, long, entity.DreamDomainAcademic)
	require.NoError(t, err)
	assert.Equal(t, 100, len([]rune(d.Title)))
	assert.Equal(t, long, d.Description)
}

func TestCreate_StoreFailureMapsToDatabaseError(t *testing.T) {
	f := newFixture(t)
	f.steps.createErr = errors.New("connection reset")

	_, err := f.svc.GenerateAndCreate(context.Background(), userID, "Get a PhD", entity.DreamDomainAcademic)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDatabaseError))
	assert.Equal(t, http.StatusInternalServerError, apperrors.AsAppError(err).HTTPStatus)
}

func TestImport_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Import(ctx, userID, "  ", entity.DreamDomainPersonal, makeSteps(5))
	assert.ErrorIs(t, err, planner.ErrDreamRequired)

	_, err = f.svc.Import(ctx, userID, "Learn piano", entity.DreamDomain("hobby"), makeSteps(5))
	assert.ErrorIs(t, err, planner.ErrDomainInvalid)

	_, err = f.svc.Import(ctx, userID, "Learn piano", entity.DreamDomainPersonal, makeSteps(4))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	bad := makeSteps(5)
	bad[2].Description = ""
	_, err = f.svc.Import(ctx, userID, "Learn piano", entity.DreamDomainPersonal, bad)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	d, err := f.svc.Import(ctx, userID, "Learn piano", entity.DreamDomainPersonal, makeSteps(7))
	require.NoError(t, err)
	assert.Len(t, d.Steps, 7)
	assert.Equal(t, 1, f.tx.calls)
}

func TestImport_OverlongStepTitleRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	long := makeSteps(5)
	for i := range long {
		long[i].Title = strings.Repeat("步", 300)
	}
	_, err := f.svc.Import(ctx, userID, "Learn piano", entity.DreamDomainPersonal, long)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).HTTPStatus)
	assert.Equal(t, 0, f.tx.calls)
	assert.Empty(t, f.dreams.dreams)

	edge := makeSteps(5)
	edge[0].Title = strings.Repeat("步", wfmodel.MaxStepTitleRunes)
	d, err := f.svc.Import(ctx, userID, "Learn piano", entity.DreamDomainPersonal, edge)
	require.NoError(t, err)
	assert.Equal(t, edge[0].Title, d.Steps[0].Title)
}

func TestList_OrdersStepsAndUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GenerateAndCreate(ctx, userID, "first", entity.DreamDomainPersonal)
	require.NoError(t, err)
	second, err := f.svc.GenerateAndCreate(ctx, userID, "second", entity.DreamDomainStartup)
	require.NoError(t, err)

	list, err := f.svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	for _, d := range list {
		require.Len(t, d.Steps, 6)
		assert.True(t, sort.SliceIsSorted(d.Steps, func(i, j int) bool {
			return d.Steps[i].OrderIndex < d.Steps[j].OrderIndex
		}))
	}
	assert.Equal(t, 1, f.cache.loads)

	_, err = f.svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.loads)

	// 任何变更都会使列表缓存失效
	require.NoError(t, f.svc.Delete(ctx, userID, first.ID))
	list, err = f.svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.cache.loads)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestList_ToggleDuringLoadDoesNotPinStaleEntry(t *testing.T) {
	f := newFixture(t)
	f.gen.steps = makeSteps(5)
	ctx := context.Background()

	d, err := f.svc.GenerateAndCreate(ctx, userID, "overlap", entity.DreamDomainPersonal)
	require.NoError(t, err)
	stepID := d.Steps[0].ID

	// 回源读到快照后停住，期间完成一次 toggle，再放行写缓存
	snapshotTaken := make(chan struct{})
	release := make(chan struct{})
	f.steps.afterBatchRead = func() {
		close(snapshotTaken)
		<-release
	}

	type listResult struct {
		dreams []*entity.Dream
		err    error
	}
	inflight := make(chan listResult, 1)
	go func() {
		list, err := f.svc.List(ctx, userID)
		inflight <- listResult{list, err}
	}()

	<-snapshotTaken
	st, _, err := f.svc.ToggleStep(ctx, userID, stepID, nil)
	require.NoError(t, err)
	require.True(t, st.Completed)
	close(release)

	stale := <-inflight
	require.NoError(t, stale.err)
	require.Len(t, stale.dreams, 1)
	assert.False(t, stale.dreams[0].Steps[0].Completed)

	fresh, err := f.svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, stepID, fresh[0].Steps[0].ID)
	assert.True(t, fresh[0].Steps[0].Completed)
	assert.Equal(t, 2, f.cache.loads)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	f := newFixture(t)

	list, err := f.svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestList_WithoutCache(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.dreams, f.steps, f.tx, f.gen, nil, nil)

	_, err := svc.GenerateAndCreate(context.Background(), userID, "no cache", entity.DreamDomainPersonal)
	require.NoError(t, err)

	list, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetAndDelete_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.GenerateAndCreate(ctx, userID, "mine", entity.DreamDomainPersonal)
	require.NoError(t, err)

	other := uuid.NewString()
	_, err = f.svc.Get(ctx, other, d.ID)
	assert.ErrorIs(t, err, apperrors.ErrDreamNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, other, d.ID), apperrors.ErrDreamNotFound)

	_, err = f.svc.Get(ctx, userID, "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrDreamNotFound)

	got, err := f.svc.Get(ctx, userID, d.ID)
	require.NoError(t, err)
	require.Len(t, got.Steps, 6)
	assert.Equal(t, 0, got.Steps[0].OrderIndex)
	assert.Equal(t, 5, got.Steps[5].OrderIndex)

	require.NoError(t, f.svc.Delete(ctx, userID, d.ID))
	_, err = f.svc.Get(ctx, userID, d.ID)
	assert.ErrorIs(t, err, apperrors.ErrDreamNotFound)
}

func TestToggleStep(t *testing.T) {
	f := newFixture(t)
	f.gen.steps = makeSteps(5)
	ctx := context.Background()

	d, err := f.svc.GenerateAndCreate(ctx, userID, "toggle", entity.DreamDomainPersonal)
	require.NoError(t, err)
	stepID := d.Steps[0].ID

	st, progress, err := f.svc.ToggleStep(ctx, userID, stepID, nil)
	require.NoError(t, err)
	assert.True(t, st.Completed)
	assert.Equal(t, entity.Progress{Completed: 1, Total: 5, Percent: 20}, progress)

	st, progress, err = f.svc.ToggleStep(ctx, userID, stepID, nil)
	require.NoError(t, err)
	assert.False(t, st.Completed)
	assert.Equal(t, 0, progress.Completed)

	done := true
	_, _, err = f.svc.ToggleStep(ctx, userID, stepID, &done)
	require.NoError(t, err)
	st, progress, err = f.svc.ToggleStep(ctx, userID, stepID, &done)
	require.NoError(t, err)
	assert.True(t, st.Completed)
	assert.Equal(t, 1, progress.Completed)

	_, _, err = f.svc.ToggleStep(ctx, uuid.NewString(), stepID, nil)
	assert.ErrorIs(t, err, apperrors.ErrStepNotFound)

	_, _, err = f.svc.ToggleStep(ctx, userID, "bogus", nil)
	assert.ErrorIs(t, err, apperrors.ErrStepNotFound)
}
