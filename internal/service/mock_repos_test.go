package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"swap-corner/config"
	"swap-corner/internal/catalog"
	"swap-corner/internal/model"
	"swap-corner/internal/repository"
)

// ── Mock SwapRequestRepository ──

type mockSwapRequestRepo struct {
	mu    sync.Mutex
	items map[string]*model.SwapRequest
	seq   int

	claimErrs  []error // 依次返回的 ClaimReverse 错误，耗尽后恢复正常
	claimBlock bool    // ClaimReverse 阻塞到 ctx 结束
	createErr  error
	listErr   error
	creates   int
}

var mockBaseTime = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

func newMockSwapRequestRepo() *mockSwapRequestRepo {
	return &mockSwapRequestRepo{items: make(map[string]*model.SwapRequest)}
}

func (m *mockSwapRequestRepo) reverseLocked(req *model.SwapRequest) []model.SwapRequest {
	var result []model.SwapRequest
	for _, r := range m.items {
		if r.IsReverseOf(req) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (m *mockSwapRequestRepo) ClaimReverse(ctx context.Context, req *model.SwapRequest) (*model.SwapRequest, error) {
	if m.claimBlock {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.claimErrs) > 0 {
		err := m.claimErrs[0]
		m.claimErrs = m.claimErrs[1:]
		return nil, err
	}
	candidates := m.reverseLocked(req)
	if len(candidates) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	delete(m.items, candidates[0].ID)
	return &candidates[0], nil
}

func (m *mockSwapRequestRepo) Create(_ context.Context, req *model.SwapRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return false, m.createErr
	}
	for _, r := range m.items {
		if r.RollNumber == req.RollNumber && r.CourseCurrent == req.CourseCurrent &&
			r.CourseTarget == req.CourseTarget && r.Semester == req.Semester {
			return false, nil
		}
	}
	m.seq++
	m.creates++
	if req.ID == "" {
		req.ID = fmt.Sprintf("req-%03d", m.seq)
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = mockBaseTime.Add(time.Duration(m.seq) * time.Second)
	}
	stored := *req
	m.items[req.ID] = &stored
	return true, nil
}

func (m *mockSwapRequestRepo) GetPending(_ context.Context, rollNumber, courseCurrent, courseTarget string, semester int) (*model.SwapRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.RollNumber == rollNumber && r.CourseCurrent == courseCurrent &&
			r.CourseTarget == courseTarget && r.Semester == semester {
			stored := *r
			return &stored, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSwapRequestRepo) List(_ context.Context, filter *repository.SwapRequestFilter, offset, limit int) ([]model.SwapRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var all []model.SwapRequest
	for _, r := range m.items {
		if filter != nil {
			if filter.RollNumber != "" && r.RollNumber != filter.RollNumber {
				continue
			}
			if filter.Semester > 0 && r.Semester != filter.Semester {
				continue
			}
			if filter.Department != "" && r.Department != filter.Department {
				continue
			}
		}
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.SwapRequest{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *mockSwapRequestRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// seed 直接写入一条待配对申请
func (m *mockSwapRequestRepo) seed(r model.SwapRequest) model.SwapRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if r.ID == "" {
		r.ID = fmt.Sprintf("seed-%03d", m.seq)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = mockBaseTime.Add(time.Duration(m.seq) * time.Second)
	}
	stored := r
	m.items[r.ID] = &stored
	return r
}

// ── Mock Dispatcher ──

type recordingDispatcher struct {
	mu    sync.Mutex
	calls [][2]string
}

func (d *recordingDispatcher) Dispatch(roll1, roll2 string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, [2]string{roll1, roll2})
}

func (d *recordingDispatcher) snapshot() [][2]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][2]string(nil), d.calls...)
}

// ── Mock Locker ──

type stubLocker struct {
	err  error
	busy bool

	mu   sync.Mutex
	ttls []time.Duration
}

func (l *stubLocker) TryLock(_ context.Context, _ string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	l.ttls = append(l.ttls, ttl)
	l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.busy {
		return nil, false, nil
	}
	return func() {}, true, nil
}

// ── 测试辅助 ──

const testCatalogYAML = `
sections: [A, B, C]
courses:
  - { code: CS101, name: Programming Fundamentals, department: CS }
  - { code: CS102, name: Data Structures, department: CS }
  - { code: CS103, name: Database Systems, department: CS }
  - { code: EE101, name: Digital Logic Design, department: EE }
`

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("解析测试目录失败: %v", err)
	}
	return c
}

func newTestConfig() *config.Config {
	return &config.Config{
		Match:   config.MatchConfig{LockTTL: 200 * time.Millisecond, MaxClaimRetries: 3},
		Session: config.SessionConfig{TTL: 30 * time.Minute},
	}
}

func newTestRepository(swapRepo *mockSwapRequestRepo) *repository.Repository {
	return &repository.Repository{SwapRequest: swapRepo}
}

var testLogger = zap.NewNop()
