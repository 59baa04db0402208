//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"swap-corner/internal/model"
	"swap-corner/internal/repository"
	"swap-corner/pkg/database"
	pkgerrors "swap-corner/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("swap_corner_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "启动 PostgreSQL 容器失败: %v\n", err)
		os.Exit(1)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取连接串失败: %v\n", err)
		os.Exit(1)
	}

	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "执行迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	sqlDB.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func cleanTable(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.Exec("DELETE FROM swap_requests").Error)
}

// ═══════════════════════════════════════════════════════════
// Test: 迁移约束
// ═══════════════════════════════════════════════════════════

func TestMigration_RejectsIdenticalCourses(t *testing.T) {
	cleanTable(t)
	err := testDB.Create(&model.SwapRequest{
		RollNumber: "23L-0632", CourseCurrent: "CS2001 A", CourseTarget: "CS2001 A", Semester: 3, Department: "CS",
	}).Error
	assert.Error(t, err, "course_current = course_target 应被 CHECK 约束拒绝")
}

func TestMigration_RejectsSemesterOutOfRange(t *testing.T) {
	cleanTable(t)
	err := testDB.Create(&model.SwapRequest{
		RollNumber: "23L-0632", CourseCurrent: "CS2001 A", CourseTarget: "CS2001 B", Semester: 10, Department: "CS",
	}).Error
	assert.Error(t, err, "semester 超出 1-9 应被拒绝")
}

// ═══════════════════════════════════════════════════════════
// Test: 配对认领
// ═══════════════════════════════════════════════════════════

func TestClaimReverse_Postgres(t *testing.T) {
	cleanTable(t)
	repo := repository.NewSwapRequestRepo(testDB)
	ctx := context.Background()

	stored := &model.SwapRequest{RollNumber: "23L-0001", CourseCurrent: "CS2001 A", CourseTarget: "CS2005 B", Semester: 3, Department: "CS"}
	created, err := repo.Create(ctx, stored)
	require.NoError(t, err)
	require.True(t, created)

	incoming := &model.SwapRequest{RollNumber: "23L-0632", CourseCurrent: "CS2005 B", CourseTarget: "CS2001 A", Semester: 3, Department: "CS"}
	claimed, err := repo.ClaimReverse(ctx, incoming)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claimed.ID)

	_, err = repo.ClaimReverse(ctx, incoming)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

// 多个并发反向请求争抢同一候选：只有一个能认领成功
func TestClaimReverse_ConcurrentSingleWinner(t *testing.T) {
	cleanTable(t)
	repo := repository.NewSwapRequestRepo(testDB)
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.SwapRequest{RollNumber: "23L-0001", CourseCurrent: "CS2001 A", CourseTarget: "CS2005 B", Semester: 3, Department: "CS"})
	require.NoError(t, err)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		failures []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			incoming := &model.SwapRequest{
				RollNumber: fmt.Sprintf("23L-1%03d", i), CourseCurrent: "CS2005 B", CourseTarget: "CS2001 A", Semester: 3, Department: "CS",
			}
			_, err := repo.ClaimReverse(ctx, incoming)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, pkgerrors.ErrCandidateGone):
			default:
				failures = append(failures, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, failures)
	assert.Equal(t, 1, winners, "同一候选只能被认领一次")
}

func TestCreate_DuplicateIgnored_Postgres(t *testing.T) {
	cleanTable(t)
	repo := repository.NewSwapRequestRepo(testDB)
	ctx := context.Background()

	req := model.SwapRequest{RollNumber: "23L-0632", CourseCurrent: "CS2001 A", CourseTarget: "CS2001 B", Semester: 3, Department: "CS"}
	first := req
	created, err := repo.Create(ctx, &first)
	require.NoError(t, err)
	assert.True(t, created)

	second := req
	created, err = repo.Create(ctx, &second)
	require.NoError(t, err)
	assert.False(t, created)
}
