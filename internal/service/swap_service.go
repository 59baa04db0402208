package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"swap-corner/config"
	"swap-corner/internal/catalog"
	"swap-corner/internal/dto"
	"swap-corner/internal/model"
	"swap-corner/internal/notify"
	"swap-corner/internal/observability"
	"swap-corner/internal/repository"
	pkgerrors "swap-corner/pkg/errors"
	"swap-corner/pkg/rollnumber"
)

// ── 换班配对业务错误 ──

var (
	ErrInvalidRollNumber = errors.New("学号格式无效，应为 23L-0632 形式")
	ErrIncompleteForm    = errors.New("请完整填写课程、班级与学期")
	ErrSameCourse        = errors.New("当前课程与目标课程不能相同")
	ErrUnknownCourse     = errors.New("课程不存在")
	ErrInvalidSection    = errors.New("班级无效")
	ErrInvalidSemester   = errors.New("学期应在 1-9 之间")
	ErrCrossDepartment   = errors.New("不允许跨院系换班")
	ErrStoreUnavailable  = errors.New("存储暂不可用，请稍后重试")
	ErrMatchBusy         = errors.New("配对繁忙，请稍后重试")
)

// IsInvalidInput 是否为表单输入类错误（由用户修正，不进入配对）
func IsInvalidInput(err error) bool {
	for _, target := range []error{
		ErrInvalidRollNumber, ErrIncompleteForm, ErrSameCourse, ErrUnknownCourse,
		ErrInvalidSection, ErrInvalidSemester, ErrCrossDepartment,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// MatchOutcome 一次配对尝试的结果，不落库
type MatchOutcome struct {
	Matched     bool
	Counterpart *model.SwapRequest // 命中时为被认领的候选
}

// MatchDispatcher 配对通知派发（异步，失败不回传）
type MatchDispatcher interface {
	Dispatch(roll1, roll2 string)
}

// SwapService 换班申请与配对业务接口
type SwapService interface {
	// BuildRequest 校验表单并构造待配对申请
	BuildRequest(req *dto.SubmitSwapRequest) (*model.SwapRequest, error)
	// AttemptMatch 查找互补申请：命中则删除候选并通知双方，否则保存本申请
	AttemptMatch(ctx context.Context, req *model.SwapRequest) (*MatchOutcome, error)
	// Submit BuildRequest + AttemptMatch，返回结果页数据
	Submit(ctx context.Context, req *dto.SubmitSwapRequest) (*dto.MatchResultResponse, error)
	// ListPending 分页查询待配对申请
	ListPending(ctx context.Context, req *dto.SwapRequestListRequest) ([]dto.SwapRequestResponse, int64, error)
}

type swapService struct {
	cfg        *config.MatchConfig
	repo       *repository.Repository
	catalog    *catalog.Catalog
	locker     Locker
	fallback   *LocalLocker
	dispatcher MatchDispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewSwapService 创建 SwapService 实例；locker 为 nil 时使用进程内锁
func NewSwapService(
	cfg *config.MatchConfig,
	repo *repository.Repository,
	cat *catalog.Catalog,
	locker Locker,
	dispatcher MatchDispatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) SwapService {
	fallback := NewLocalLocker()
	if locker == nil {
		locker = fallback
	}
	return &swapService{
		cfg:        cfg,
		repo:       repo,
		catalog:    cat,
		locker:     locker,
		fallback:   fallback,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// ────────────────────── BuildRequest ──────────────────────

func (s *swapService) BuildRequest(req *dto.SubmitSwapRequest) (*model.SwapRequest, error) {
	roll := rollnumber.Normalize(req.RollNumber)
	if !rollnumber.Validate(roll) {
		return nil, ErrInvalidRollNumber
	}

	currentCode := strings.ToUpper(strings.TrimSpace(req.CurrentCourse))
	currentSection := strings.ToUpper(strings.TrimSpace(req.CurrentSection))
	targetCode := strings.ToUpper(strings.TrimSpace(req.TargetCourse))
	targetSection := strings.ToUpper(strings.TrimSpace(req.TargetSection))
	if currentCode == "" || currentSection == "" || targetCode == "" || targetSection == "" || req.Semester == 0 {
		return nil, ErrIncompleteForm
	}
	if req.Semester < model.MinSemester || req.Semester > model.MaxSemester {
		return nil, ErrInvalidSemester
	}

	courseCurrent := catalog.FormatCourseWithSection(currentCode, currentSection)
	courseTarget := catalog.FormatCourseWithSection(targetCode, targetSection)
	if courseCurrent == courseTarget {
		return nil, ErrSameCourse
	}

	current, ok := s.catalog.Lookup(currentCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCourse, currentCode)
	}
	target, ok := s.catalog.Lookup(targetCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCourse, targetCode)
	}
	if !s.catalog.ValidSection(currentSection) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSection, currentSection)
	}
	if !s.catalog.ValidSection(targetSection) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSection, targetSection)
	}
	if current.Department != target.Department {
		return nil, ErrCrossDepartment
	}

	return &model.SwapRequest{
		RollNumber:    roll,
		CourseCurrent: courseCurrent,
		CourseTarget:  courseTarget,
		Semester:      req.Semester,
		Department:    current.Department,
	}, nil
}

// ────────────────────── AttemptMatch ──────────────────────

// pairKey 互补申请共用的锁键：课程对无序，A→B 与 B→A 得到同一个键
func pairKey(req *model.SwapRequest) string {
	courses := []string{req.CourseCurrent, req.CourseTarget}
	sort.Strings(courses)
	return fmt.Sprintf("%s:%d:%s|%s", req.Department, req.Semester, courses[0], courses[1])
}

func (s *swapService) AttemptMatch(ctx context.Context, req *model.SwapRequest) (*MatchOutcome, error) {
	start := time.Now()

	release, err := s.acquire(ctx, pairKey(req))
	if err != nil {
		s.metrics.ObserveMatch(observability.OutcomeError, time.Since(start))
		return nil, err
	}
	defer release()

	// 持锁期间的存储操作限定在 lock_ttl 内，先于锁过期结束
	workCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTTL)
	defer cancel()

	outcome, err := s.matchLocked(workCtx, req)
	switch {
	case err != nil:
		s.metrics.ObserveMatch(observability.OutcomeError, time.Since(start))
	case outcome.Matched:
		s.metrics.ObserveMatch(observability.OutcomeMatched, time.Since(start))
	default:
		s.metrics.ObserveMatch(observability.OutcomeUnmatched, time.Since(start))
	}
	return outcome, err
}

// lockHoldTTL 锁的存活时间，为持锁工作上限 lock_ttl 的两倍
func (s *swapService) lockHoldTTL() time.Duration {
	return 2 * s.cfg.LockTTL
}

// acquire 在 lock_ttl 内轮询抢锁；Redis 故障时退回进程内锁
func (s *swapService) acquire(ctx context.Context, key string) (func(), error) {
	locker := s.locker
	deadline := time.Now().Add(s.cfg.LockTTL)

	for {
		release, ok, err := locker.TryLock(ctx, key, s.lockHoldTTL())
		if err != nil {
			if locker == Locker(s.fallback) {
				return nil, err
			}
			s.logger.Warn("配对锁不可用，改用进程内锁", zap.String("key", key), zap.Error(err))
			locker = s.fallback
			continue
		}
		if ok {
			return release, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrMatchBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}
}

func (s *swapService) matchLocked(ctx context.Context, req *model.SwapRequest) (*MatchOutcome, error) {
	for attempt := 1; attempt <= s.cfg.MaxClaimRetries; attempt++ {
		claimed, err := s.repo.SwapRequest.ClaimReverse(ctx, req)
		switch {
		case err == nil:
			s.logger.Info("换班配对成功",
				zap.String("roll_number", req.RollNumber),
				zap.String("counterpart", claimed.RollNumber),
				zap.String("course_current", req.CourseCurrent),
				zap.String("course_target", req.CourseTarget),
			)
			// 候选已删除后再通知，认领失败不会发出通知
			if s.dispatcher != nil {
				s.dispatcher.Dispatch(req.RollNumber, claimed.RollNumber)
			}
			return &MatchOutcome{Matched: true, Counterpart: claimed}, nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			return s.storePending(ctx, req)

		case errors.Is(err, pkgerrors.ErrCandidateGone):
			s.metrics.IncClaimRetry()
			s.logger.Debug("候选已被并发请求认领，重新查找", zap.Int("attempt", attempt))
			continue

		default:
			s.logger.Error("查询互补申请失败", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	s.logger.Warn("多次认领候选失败，按未配对处理",
		zap.String("roll_number", req.RollNumber),
		zap.Int("max_claim_retries", s.cfg.MaxClaimRetries),
	)
	return s.storePending(ctx, req)
}

func (s *swapService) storePending(ctx context.Context, req *model.SwapRequest) (*MatchOutcome, error) {
	created, err := s.repo.SwapRequest.Create(ctx, req)
	if err != nil {
		s.logger.Error("保存换班申请失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !created {
		// 重复提交：回填已存在记录的 ID 与提交时间
		existing, err := s.repo.SwapRequest.GetPending(ctx, req.RollNumber, req.CourseCurrent, req.CourseTarget, req.Semester)
		if err != nil {
			s.logger.Warn("查询已存在的申请失败", zap.String("roll_number", req.RollNumber), zap.Error(err))
		} else {
			req.ID = existing.ID
			req.CreatedAt = existing.CreatedAt
		}
		s.logger.Info("相同申请已在等待配对",
			zap.String("roll_number", req.RollNumber),
			zap.String("request_id", req.ID),
		)
	}
	return &MatchOutcome{Matched: false}, nil
}

// ────────────────────── Submit ──────────────────────

func (s *swapService) Submit(ctx context.Context, input *dto.SubmitSwapRequest) (*dto.MatchResultResponse, error) {
	req, err := s.BuildRequest(input)
	if err != nil {
		return nil, err
	}
	outcome, err := s.AttemptMatch(ctx, req)
	if err != nil {
		return nil, err
	}
	return toMatchResult(req, outcome), nil
}

// 结果页提示
const (
	pendingMessage = "Your swap request has been added to the database. You'll be automatically matched when someone requests the reverse swap."
	matchedMessage = "Contact them directly to coordinate the swap."
)

// toMatchResult 结果页数据：命中时附带对方邮箱与写信链接
func toMatchResult(req *model.SwapRequest, outcome *MatchOutcome) *dto.MatchResultResponse {
	resp := &dto.MatchResultResponse{
		Status:        dto.MatchStatusPending,
		CourseCurrent: req.CourseCurrent,
		CourseTarget:  req.CourseTarget,
		Message:       pendingMessage,
	}
	if outcome == nil || !outcome.Matched || outcome.Counterpart == nil {
		return resp
	}

	counterpart := outcome.Counterpart.RollNumber
	resp.Status = dto.MatchStatusMatched
	resp.Matched = true
	resp.CounterpartRoll = counterpart
	resp.Message = matchedMessage
	// 学号均已校验，推导不会失败
	resp.CounterpartEmail, _ = rollnumber.ToEmail(counterpart)
	resp.ComposeLink, _ = notify.ComposeLink(req.RollNumber, counterpart, req.CourseCurrent, req.CourseTarget)
	return resp
}

// ────────────────────── ListPending ──────────────────────

func (s *swapService) ListPending(ctx context.Context, req *dto.SwapRequestListRequest) ([]dto.SwapRequestResponse, int64, error) {
	filter := &repository.SwapRequestFilter{
		RollNumber: rollnumber.Normalize(req.RollNumber),
		Semester:   req.Semester,
		Department: strings.ToUpper(strings.TrimSpace(req.Department)),
	}

	list, total, err := s.repo.SwapRequest.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询待配对申请失败", zap.Error(err))
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	result := make([]dto.SwapRequestResponse, 0, len(list))
	for i := range list {
		result = append(result, toSwapRequestResponse(&list[i]))
	}
	return result, total, nil
}

func toSwapRequestResponse(r *model.SwapRequest) dto.SwapRequestResponse {
	return dto.SwapRequestResponse{
		ID:            r.ID,
		RollNumber:    r.RollNumber,
		CourseCurrent: r.CourseCurrent,
		CourseTarget:  r.CourseTarget,
		Semester:      r.Semester,
		Department:    r.Department,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
}
