package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"swap-corner/config"
	"swap-corner/internal/dto"
	"swap-corner/internal/flow"
	"swap-corner/pkg/rollnumber"
)

// FlowService 页面流程：会话持久化 + 状态机驱动 + 调用配对
type FlowService interface {
	Create(ctx context.Context) (*dto.SessionResponse, error)
	Get(ctx context.Context, id string) (*dto.SessionResponse, error)
	EnterIdentifier(ctx context.Context, id string, req *dto.SessionIdentifierRequest) (*dto.SessionResponse, error)
	// Submit 提交选课：表单错误回到选课页并带提示；存储故障返回 ErrStoreUnavailable
	Submit(ctx context.Context, id string, req *dto.SessionSubmitRequest) (*dto.SessionResponse, error)
	StartOver(ctx context.Context, id string) (*dto.SessionResponse, error)
	ChangeSelection(ctx context.Context, id string) (*dto.SessionResponse, error)
}

type flowService struct {
	cfg    *config.Config
	store  SessionStore
	swap   SwapService
	locker Locker
	logger *zap.Logger
	now    func() time.Time
}

// NewFlowService 创建 FlowService 实例；locker 为 nil 时使用进程内锁
func NewFlowService(cfg *config.Config, store SessionStore, swap SwapService, locker Locker, logger *zap.Logger) FlowService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &flowService{
		cfg:    cfg,
		store:  store,
		swap:   swap,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

// loadingTimeout loading 状态超过该时长视为上次提交中断
func (s *flowService) loadingTimeout() time.Duration {
	return 2 * s.cfg.Match.LockTTL
}

// ────────────────────── Create / Get ──────────────────────

func (s *flowService) Create(ctx context.Context) (*dto.SessionResponse, error) {
	sess := flow.New(uuid.NewString(), s.now())
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return toSessionResponse(&sess), nil
}

func (s *flowService) Get(ctx context.Context, id string) (*dto.SessionResponse, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(sess), nil
}

// ────────────────────── 转移 ──────────────────────

func (s *flowService) EnterIdentifier(ctx context.Context, id string, req *dto.SessionIdentifierRequest) (*dto.SessionResponse, error) {
	return s.transition(ctx, id, func(sess flow.Session) (flow.Session, error) {
		return sess.EnterIdentifier(req.RollNumber, s.now())
	})
}

func (s *flowService) StartOver(ctx context.Context, id string) (*dto.SessionResponse, error) {
	return s.transition(ctx, id, func(sess flow.Session) (flow.Session, error) {
		return sess.StartOver(s.now())
	})
}

func (s *flowService) ChangeSelection(ctx context.Context, id string) (*dto.SessionResponse, error) {
	return s.transition(ctx, id, func(sess flow.Session) (flow.Session, error) {
		return sess.ChangeSelection(s.now())
	})
}

// transition 在会话锁内读取、转移、写回
func (s *flowService) transition(ctx context.Context, id string, fn func(flow.Session) (flow.Session, error)) (*dto.SessionResponse, error) {
	release, ok, err := s.locker.TryLock(ctx, "session:"+id, s.cfg.Match.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, flow.ErrBusy
	}
	defer release()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := fn(*sess)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	return toSessionResponse(&next), nil
}

// ────────────────────── Submit ──────────────────────

func (s *flowService) Submit(ctx context.Context, id string, req *dto.SessionSubmitRequest) (*dto.SessionResponse, error) {
	sel := flow.Selection{
		CurrentCourse:  req.CurrentCourse,
		CurrentSection: req.CurrentSection,
		TargetCourse:   req.TargetCourse,
		TargetSection:  req.TargetSection,
		Semester:       req.Semester,
	}

	// 1. 进入 loading，之后同一会话的提交返回 ErrBusy
	var loading flow.Session
	if _, err := s.transition(ctx, id, func(sess flow.Session) (flow.Session, error) {
		var err error
		loading, err = sess.BeginSubmit(sel, s.now())
		return loading, err
	}); err != nil {
		return nil, err
	}

	// 请求中途取消也要把会话带出 loading
	saveCtx := context.WithoutCancel(ctx)

	// 2. 表单校验
	swapReq, err := s.swap.BuildRequest(&dto.SubmitSwapRequest{
		RollNumber:     loading.RollNumber,
		CurrentCourse:  sel.CurrentCourse,
		CurrentSection: sel.CurrentSection,
		TargetCourse:   sel.TargetCourse,
		TargetSection:  sel.TargetSection,
		Semester:       sel.Semester,
	})
	if err != nil {
		if !IsInvalidInput(err) {
			return nil, s.fail(saveCtx, loading, err)
		}
		rejected, _ := loading.Reject(err.Error(), s.now())
		if err := s.save(saveCtx, rejected); err != nil {
			return nil, err
		}
		return toSessionResponse(&rejected), nil
	}

	// 3. 配对
	outcome, err := s.swap.AttemptMatch(ctx, swapReq)
	if err != nil {
		return nil, s.fail(saveCtx, loading, err)
	}

	result := toMatchResult(swapReq, outcome)
	done, _ := loading.CompleteMatch(flow.Outcome{
		Matched:          result.Matched,
		CounterpartRoll:  result.CounterpartRoll,
		CounterpartEmail: result.CounterpartEmail,
		ComposeLink:      result.ComposeLink,
		CourseCurrent:    result.CourseCurrent,
		CourseTarget:     result.CourseTarget,
	}, s.now())
	if err := s.save(saveCtx, done); err != nil {
		return nil, err
	}
	return toSessionResponse(&done), nil
}

// fail 配对失败：会话回到选课页并记录原因，原错误返回给调用方
func (s *flowService) fail(ctx context.Context, loading flow.Session, cause error) error {
	reason := cause.Error()
	if errors.Is(cause, ErrStoreUnavailable) {
		reason = ErrStoreUnavailable.Error()
	}
	failed, _ := loading.FailMatch(reason, s.now())
	if err := s.save(ctx, failed); err != nil {
		s.logger.Warn("回写失败会话出错", zap.String("session_id", loading.ID), zap.Error(err))
	}
	return cause
}

// ────────────────────── 存取 ──────────────────────

func (s *flowService) load(ctx context.Context, id string) (*flow.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		s.logger.Error("读取会话失败", zap.String("session_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// 上次提交中断（进程退出等）时解除 loading
	if sess.State == flow.StateLoading && s.now().Sub(sess.UpdatedAt) > s.loadingTimeout() {
		recovered, _ := sess.FailMatch("上次提交未完成，请重新提交", s.now())
		sess = &recovered
	}
	return sess, nil
}

func (s *flowService) save(ctx context.Context, sess flow.Session) error {
	if err := s.store.Save(ctx, sess, s.cfg.Session.TTL); err != nil {
		s.logger.Error("保存会话失败", zap.String("session_id", sess.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func toSessionResponse(sess *flow.Session) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:         sess.ID,
		State:      string(sess.State),
		RollNumber: sess.RollNumber,
		Selection: dto.SelectionResponse{
			CurrentCourse:  sess.Selection.CurrentCourse,
			CurrentSection: sess.Selection.CurrentSection,
			TargetCourse:   sess.Selection.TargetCourse,
			TargetSection:  sess.Selection.TargetSection,
			Semester:       sess.Selection.Semester,
		},
		Error:     sess.Error,
		UpdatedAt: sess.UpdatedAt.Format(time.RFC3339),
	}
	if sess.RollNumber != "" {
		resp.Email, _ = rollnumber.ToEmail(sess.RollNumber)
	}
	if o := sess.Outcome; o != nil {
		resp.Result = &dto.MatchResultResponse{
			Status:           dto.MatchStatusPending,
			Matched:          o.Matched,
			CounterpartRoll:  o.CounterpartRoll,
			CounterpartEmail: o.CounterpartEmail,
			ComposeLink:      o.ComposeLink,
			CourseCurrent:    o.CourseCurrent,
			CourseTarget:     o.CourseTarget,
			Message:          pendingMessage,
		}
		if o.Matched {
			resp.Result.Status = dto.MatchStatusMatched
			resp.Result.Message = matchedMessage
		}
	}
	return resp
}
