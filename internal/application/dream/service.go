// Package dream 提供梦想与步骤的持久化业务逻辑
package dream

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"dream-planner-api/internal/application/planner"
	"dream-planner-api/internal/config"
	"dream-planner-api/internal/domain/entity"
	"dream-planner-api/internal/domain/repository"
	llmctx "dream-planner-api/internal/domain/service"
	"dream-planner-api/internal/infrastructure/persistence/redis"
	wfmodel "dream-planner-api/internal/workflow/model"
	"dream-planner-api/internal/workflow/node"
	apperrors "dream-planner-api/pkg/errors"
	"dream-planner-api/pkg/logger"
	"dream-planner-api/pkg/metrics"
)

var tracer = otel.Tracer("dream")

// 梦想来源，用于指标
const (
	SourceGenerated = "generated"
	SourceImported  = "imported"
)

const defaultListCacheTTL = 5 * time.Minute

// ListCache 梦想列表的读穿缓存，条目按代数分键
type ListCache interface {
	Generation(ctx context.Context, key string) (int64, error)
	BumpGeneration(ctx context.Context, key string) error
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
}

// Service 梦想服务
type Service struct {
	dreams        repository.DreamRepository
	steps         repository.StepRepository
	tx            repository.Transactor
	generator     planner.StepGenerator
	cache         ListCache
	titleMaxRunes int
	cacheTTL      time.Duration
}

// NewService 创建梦想服务；cache 可为 nil
func NewService(
	dreams repository.DreamRepository,
	steps repository.StepRepository,
	tx repository.Transactor,
	generator planner.StepGenerator,
	cache ListCache,
	cfg *config.PlannerConfig,
) *Service {
	s := &Service{
		dreams:        dreams,
		steps:         steps,
		tx:            tx,
		generator:     generator,
		cache:         cache,
		titleMaxRunes: entity.DefaultDreamTitleMaxRunes,
		cacheTTL:      defaultListCacheTTL,
	}
	if cfg != nil {
		if cfg.DreamTitleMaxRunes > 0 {
			s.titleMaxRunes = cfg.DreamTitleMaxRunes
		}
		if cfg.ListCacheTTL > 0 {
			s.cacheTTL = cfg.ListCacheTTL
		}
	}
	return s
}

// GenerateAndCreate 生成步骤后在同一事务内保存梦想与步骤。
// 生成失败时不写库，错误原样返回。
func (s *Service) GenerateAndCreate(ctx context.Context, userID, text string, domain entity.DreamDomain) (*entity.Dream, error) {
	ctx = llmctx.WithUserID(ctx, userID)
	ctx = llmctx.WithWorkflow(ctx, llmctx.WorkflowCreateDream)

	res, err := s.generator.Generate(ctx, planner.GenerationRequest{Dream: text, Domain: domain})
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, userID, text, domain, res.Steps, SourceGenerated)
}

// Import 保存调用方提供的步骤，步骤须满足与生成结果相同的约束
func (s *Service) Import(ctx context.Context, userID, text string, domain entity.DreamDomain, steps []wfmodel.ActionStep) (*entity.Dream, error) {
	if strings.TrimSpace(text) == "" {
		return nil, planner.ErrDreamRequired
	}
	if !domain.Valid() {
		return nil, planner.ErrDomainInvalid
	}
	if err := node.ValidateActionSteps(steps); err != nil {
		return nil, apperrors.ErrValidationFailed.WithDetail(err.Error())
	}
	return s.persist(ctx, userID, text, domain, steps, SourceImported)
}

func (s *Service) persist(ctx context.Context, userID, text string, domain entity.DreamDomain, generated []wfmodel.ActionStep, source string) (*entity.Dream, error) {
	ctx, span := tracer.Start(ctx, "dream.persist")
	defer span.End()

	d := entity.NewDream(userID, strings.TrimSpace(text), domain, s.titleMaxRunes)
	d.ID = uuid.NewString()

	steps := make([]*entity.Step, 0, len(generated))
	for i, g := range generated {
		st := entity.NewStep(d.ID, g.Title, g.Description, i)
		st.ID = uuid.NewString()
		steps = append(steps, st)
	}

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.dreams.Create(txCtx, d); err != nil {
			return err
		}
		return s.steps.CreateBatch(txCtx, steps)
	})
	if err != nil {
		span.RecordError(err)
		return nil, dbError(err)
	}

	d.Steps = steps
	s.invalidate(ctx, userID)

	metrics.DreamsCreatedTotal.WithLabelValues(string(domain), source).Inc()
	span.SetAttributes(
		attribute.String("dream.id", d.ID),
		attribute.Int("dream.steps", len(steps)),
	)
	logger.Info(logger.WithContext(ctx, logger.DreamIDKey, d.ID), "dream created",
		"domain", string(domain),
		"steps", len(steps),
		"source", source,
	)
	return d, nil
}

// List 返回用户全部梦想（创建时间倒序），每个梦想附带按序排列的步骤
func (s *Service) List(ctx context.Context, userID string) ([]*entity.Dream, error) {
	if s.cache == nil {
		return s.loadList(ctx, userID)
	}

	// 代数必须在回源之前读取：回源期间发生的写入会递增代数，
	// 本次加载的快照只会落在旧代数键上
	gen, err := s.cache.Generation(ctx, redis.BuildDreamListGenerationKey(userID))
	if err != nil {
		logger.Warn(ctx, "dream list cache generation unreadable, bypassing cache", "user_id", userID, "error", err.Error())
		return s.loadList(ctx, userID)
	}

	raw, err := s.cache.GetOrLoadSafe(ctx, redis.BuildDreamListKey(userID, gen), s.cacheTTL, func() (interface{}, error) {
		return s.loadList(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	var dreams []*entity.Dream
	if err := json.Unmarshal(raw, &dreams); err != nil {
		logger.Warn(ctx, "dream list cache entry unreadable, reloading", "error", err.Error())
		return s.loadList(ctx, userID)
	}
	if dreams == nil {
		dreams = []*entity.Dream{}
	}
	return dreams, nil
}

func (s *Service) loadList(ctx context.Context, userID string) ([]*entity.Dream, error) {
	dreams, err := s.dreams.ListByUser(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}
	if len(dreams) == 0 {
		return []*entity.Dream{}, nil
	}

	ids := make([]string, len(dreams))
	for i, d := range dreams {
		ids[i] = d.ID
	}
	steps, err := s.steps.ListByDreams(ctx, ids)
	if err != nil {
		return nil, dbError(err)
	}

	grouped := make(map[string][]*entity.Step, len(dreams))
	for _, st := range steps {
		grouped[st.DreamID] = append(grouped[st.DreamID], st)
	}
	for _, d := range dreams {
		d.Steps = sortSteps(grouped[d.ID])
	}
	return dreams, nil
}

// Get 获取单个梦想及其步骤；不存在或不属于该用户时返回 404
func (s *Service) Get(ctx context.Context, userID, id string) (*entity.Dream, error) {
	if !validID(id) {
		return nil, apperrors.ErrDreamNotFound
	}

	d, err := s.dreams.GetByID(ctx, userID, id)
	if err != nil {
		return nil, dbError(err)
	}
	if d == nil {
		return nil, apperrors.ErrDreamNotFound
	}

	steps, err := s.steps.ListByDream(ctx, d.ID)
	if err != nil {
		return nil, dbError(err)
	}
	d.Steps = sortSteps(steps)
	return d, nil
}

// Delete 删除梦想，步骤随外键级联删除
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return apperrors.ErrDreamNotFound
	}

	deleted, err := s.dreams.Delete(ctx, userID, id)
	if err != nil {
		return dbError(err)
	}
	if !deleted {
		return apperrors.ErrDreamNotFound
	}

	s.invalidate(ctx, userID)
	logger.Info(ctx, "dream deleted", "dream_id", id)
	return nil
}

// ToggleStep 切换步骤完成状态。completed 为 nil 时取反，否则设为指定值。
// 返回更新后的步骤与所属梦想的进度。
func (s *Service) ToggleStep(ctx context.Context, userID, stepID string, completed *bool) (*entity.Step, entity.Progress, error) {
	if !validID(stepID) {
		return nil, entity.Progress{}, apperrors.ErrStepNotFound
	}

	st, err := s.steps.GetForUser(ctx, userID, stepID)
	if err != nil {
		return nil, entity.Progress{}, dbError(err)
	}
	if st == nil {
		return nil, entity.Progress{}, apperrors.ErrStepNotFound
	}

	target := !st.Completed
	if completed != nil {
		target = *completed
	}

	if err := s.steps.SetCompleted(ctx, st.ID, target); err != nil {
		return nil, entity.Progress{}, dbError(err)
	}
	st.Completed = target
	st.UpdatedAt = time.Now()

	siblings, err := s.steps.ListByDream(ctx, st.DreamID)
	if err != nil {
		return nil, entity.Progress{}, dbError(err)
	}

	s.invalidate(ctx, userID)
	metrics.StepsToggledTotal.WithLabelValues(strconv.FormatBool(target)).Inc()
	logger.Debug(logger.WithContext(ctx, logger.DreamIDKey, st.DreamID), "step toggled",
		"step_id", st.ID,
		"completed", target,
	)

	return st, entity.ComputeProgress(siblings), nil
}

// invalidate 递增列表缓存代数，失败只记录日志；旧代数条目随 TTL 过期
func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.BumpGeneration(ctx, redis.BuildDreamListGenerationKey(userID)); err != nil {
		logger.Warn(ctx, "failed to invalidate dream list cache", "user_id", userID, "error", err.Error())
	}
}

func sortSteps(steps []*entity.Step) []*entity.Step {
	if steps == nil {
		return []*entity.Step{}
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].OrderIndex < steps[j].OrderIndex
	})
	return steps
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func dbError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Wrap(fmt.Errorf("dream store: %w", err), apperrors.CodeDatabaseError, "database error")
}
