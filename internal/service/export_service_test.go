package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"swap-corner/internal/dto"
	"swap-corner/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() (*exportService, *mockSwapRequestRepo) {
	repo := newMockSwapRequestRepo()
	svc := NewExportService(newTestRepository(repo), testLogger).(*exportService)
	svc.now = func() time.Time { return mockBaseTime }
	return svc, repo
}

// ── ExportPending 测试 ──

func TestExportService_ExportPending_NoItems(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportPending(context.Background(), &dto.ExportPendingRequest{})
	if !errors.Is(err, ErrExportNoItems) {
		t.Errorf("期望 ErrExportNoItems，实际: %v", err)
	}
}

func TestExportService_ExportPending_StoreError(t *testing.T) {
	svc, repo := setupTestExportService()
	repo.listErr = errors.New("timeout")

	_, _, err := svc.ExportPending(context.Background(), &dto.ExportPendingRequest{})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("期望 ErrStoreUnavailable，实际: %v", err)
	}
}

func TestExportService_ExportPending_Success(t *testing.T) {
	svc, repo := setupTestExportService()
	repo.seed(model.SwapRequest{RollNumber: "22L-0001", CourseCurrent: "CS101 A", CourseTarget: "CS102 B", Semester: 3, Department: "CS"})
	repo.seed(model.SwapRequest{RollNumber: "22L-0002", CourseCurrent: "CS103 A", CourseTarget: "CS103 C", Semester: 3, Department: "CS"})
	repo.seed(model.SwapRequest{RollNumber: "22L-0003", CourseCurrent: "EE101 A", CourseTarget: "EE101 B", Semester: 5, Department: "EE"})

	buf, filename, err := svc.ExportPending(context.Background(), &dto.ExportPendingRequest{Department: "cs", Semester: 3})
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if filename != "待配对申请_20250901.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("生成的文件无法打开: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("待配对申请")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	// 标题 + 表头 + 2 条 CS 学期 3 的申请
	if len(rows) != 4 {
		t.Fatalf("期望 4 行，实际: %d", len(rows))
	}
	if rows[1][0] != "学号" {
		t.Errorf("表头不符: %v", rows[1])
	}
	if rows[2][0] != "22L-0001" || rows[2][1] != "l220001@lhr.nu.edu.pk" || rows[2][2] != "CS101 A" {
		t.Errorf("数据行不符: %v", rows[2])
	}
	if !strings.Contains(rows[0][0], "CS") || !strings.Contains(rows[0][0], "第3学期") {
		t.Errorf("标题应包含过滤条件: %s", rows[0][0])
	}
}
