package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"swap-corner/internal/dto"
	"swap-corner/internal/flow"
	"swap-corner/internal/model"
)

// ── 测试辅助 ──

type flowFixture struct {
	svc   *flowService
	repo  *mockSwapRequestRepo
	store SessionStore
	clock time.Time
}

func setupTestFlowService(t *testing.T) *flowFixture {
	t.Helper()
	repo := newMockSwapRequestRepo()
	cfg := newTestConfig()
	swap := NewSwapService(&cfg.Match, newTestRepository(repo), newTestCatalog(t), nil, &recordingDispatcher{}, nil, testLogger)
	store := NewMemorySessionStore()

	f := &flowFixture{repo: repo, store: store, clock: mockBaseTime}
	svc := NewFlowService(cfg, store, swap, nil, testLogger).(*flowService)
	svc.now = func() time.Time { return f.clock }
	f.svc = svc
	return f
}

func (f *flowFixture) newSessionAtSelection(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	sess, err := f.svc.Create(ctx)
	if err != nil {
		t.Fatalf("创建会话失败: %v", err)
	}
	if _, err := f.svc.EnterIdentifier(ctx, sess.ID, &dto.SessionIdentifierRequest{RollNumber: "23l-0632"}); err != nil {
		t.Fatalf("输入学号失败: %v", err)
	}
	return sess.ID
}

func sessionSubmit() *dto.SessionSubmitRequest {
	return &dto.SessionSubmitRequest{
		CurrentCourse: "CS102", CurrentSection: "B",
		TargetCourse: "CS101", TargetSection: "A",
		Semester: 3,
	}
}

// ── 测试 ──

func TestFlowService_Create(t *testing.T) {
	f := setupTestFlowService(t)

	sess, err := f.svc.Create(context.Background())
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if sess.ID == "" || sess.State != string(flow.StateIdentifierEntry) {
		t.Errorf("新会话不符: %+v", sess)
	}
}

func TestFlowService_EnterIdentifier(t *testing.T) {
	f := setupTestFlowService(t)
	ctx := context.Background()
	sess, _ := f.svc.Create(ctx)

	_, err := f.svc.EnterIdentifier(ctx, sess.ID, &dto.SessionIdentifierRequest{RollNumber: "23L-632"})
	if !errors.Is(err, flow.ErrInvalidIdentifier) {
		t.Fatalf("期望 ErrInvalidIdentifier，实际: %v", err)
	}

	resp, err := f.svc.EnterIdentifier(ctx, sess.ID, &dto.SessionIdentifierRequest{RollNumber: "23L-0632"})
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if resp.State != string(flow.StateCourseSelection) || resp.Email != "l230632@lhr.nu.edu.pk" {
		t.Errorf("会话不符: %+v", resp)
	}
}

func TestFlowService_Submit_Pending(t *testing.T) {
	f := setupTestFlowService(t)
	id := f.newSessionAtSelection(t)

	resp, err := f.svc.Submit(context.Background(), id, sessionSubmit())
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if resp.State != string(flow.StateResult) || resp.Result == nil || resp.Result.Status != dto.MatchStatusPending {
		t.Fatalf("应进入结果页并显示 pending: %+v", resp)
	}
	if f.repo.count() != 1 {
		t.Error("未配对的申请应已保存")
	}
}

func TestFlowService_Submit_Matched(t *testing.T) {
	f := setupTestFlowService(t)
	f.repo.seed(model.SwapRequest{RollNumber: "22L-1234", CourseCurrent: "CS101 A", CourseTarget: "CS102 B", Semester: 3, Department: "CS"})
	id := f.newSessionAtSelection(t)

	resp, err := f.svc.Submit(context.Background(), id, sessionSubmit())
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if resp.Result == nil || !resp.Result.Matched || resp.Result.CounterpartRoll != "22L-1234" {
		t.Fatalf("应配对成功: %+v", resp.Result)
	}
	if resp.Result.ComposeLink == "" {
		t.Error("配对成功应提供写信链接")
	}

	// 重新读取会话，结果应已持久化
	got, err := f.svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("读取会话失败: %v", err)
	}
	if got.Result == nil || got.Result.CounterpartEmail != "l221234@lhr.nu.edu.pk" {
		t.Errorf("持久化结果不符: %+v", got.Result)
	}
}

func TestFlowService_Submit_InvalidInputStaysOnSelection(t *testing.T) {
	f := setupTestFlowService(t)
	id := f.newSessionAtSelection(t)

	in := sessionSubmit()
	in.TargetCourse = "EE101"
	resp, err := f.svc.Submit(context.Background(), id, in)
	if err != nil {
		t.Fatalf("表单错误应写入会话而非返回错误，实际: %v", err)
	}
	if resp.State != string(flow.StateCourseSelection) || resp.Error != ErrCrossDepartment.Error() {
		t.Errorf("应停留在选课页并提示: %+v", resp)
	}
	if f.repo.count() != 0 {
		t.Error("被拒绝的申请不应写入存储")
	}
}

func TestFlowService_Submit_StoreUnavailable(t *testing.T) {
	f := setupTestFlowService(t)
	f.repo.claimErrs = []error{errors.New("connection reset")}
	id := f.newSessionAtSelection(t)

	_, err := f.svc.Submit(context.Background(), id, sessionSubmit())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("期望 ErrStoreUnavailable，实际: %v", err)
	}

	got, _ := f.svc.Get(context.Background(), id)
	if got.State != string(flow.StateCourseSelection) || got.Error == "" {
		t.Errorf("存储故障后应回到选课页并提示: %+v", got)
	}
}

func TestFlowService_Submit_WrongState(t *testing.T) {
	f := setupTestFlowService(t)
	sess, _ := f.svc.Create(context.Background())

	_, err := f.svc.Submit(context.Background(), sess.ID, sessionSubmit())
	if !errors.Is(err, flow.ErrInvalidTransition) {
		t.Errorf("期望 ErrInvalidTransition，实际: %v", err)
	}
}

func TestFlowService_Submit_BusyWhileLoading(t *testing.T) {
	f := setupTestFlowService(t)
	ctx := context.Background()
	id := f.newSessionAtSelection(t)

	// 模拟另一个请求正处于 loading
	sess, _ := f.store.Get(ctx, id)
	loading, _ := sess.BeginSubmit(flow.Selection{}, f.clock)
	_ = f.store.Save(ctx, loading, time.Minute)

	if _, err := f.svc.Submit(ctx, id, sessionSubmit()); !errors.Is(err, flow.ErrBusy) {
		t.Errorf("期望 ErrBusy，实际: %v", err)
	}

	// loading 超时后视为中断，可重新提交
	f.clock = f.clock.Add(time.Minute)
	resp, err := f.svc.Submit(ctx, id, sessionSubmit())
	if err != nil {
		t.Fatalf("中断的 loading 应可恢复，实际: %v", err)
	}
	if resp.State != string(flow.StateResult) {
		t.Errorf("应进入结果页，实际: %s", resp.State)
	}
}

func TestFlowService_StartOverAndChangeSelection(t *testing.T) {
	f := setupTestFlowService(t)
	ctx := context.Background()
	id := f.newSessionAtSelection(t)
	if _, err := f.svc.Submit(ctx, id, sessionSubmit()); err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	resp, err := f.svc.ChangeSelection(ctx, id)
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if resp.State != string(flow.StateCourseSelection) || resp.RollNumber != "23L-0632" || resp.Result != nil {
		t.Errorf("返回选课页应保留学号并清除结果: %+v", resp)
	}

	resp, err = f.svc.StartOver(ctx, id)
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if resp.State != string(flow.StateIdentifierEntry) || resp.RollNumber != "" || resp.Selection.Semester != 0 {
		t.Errorf("重新开始应清空会话: %+v", resp)
	}
}

func TestFlowService_SessionNotFound(t *testing.T) {
	f := setupTestFlowService(t)

	if _, err := f.svc.Get(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际: %v", err)
	}
	if _, err := f.svc.StartOver(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际: %v", err)
	}
}
