package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"swap-corner/internal/dto"
	"swap-corner/internal/repository"
	"swap-corner/pkg/rollnumber"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoItems      = errors.New("暂无待配对申请")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 或命令行设置输出位置
type ExportService interface {
	// ExportPending 导出待配对申请为 Excel，可按学期、院系过滤
	ExportPending(ctx context.Context, req *dto.ExportPendingRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

var exportHeaders = []string{"学号", "邮箱", "当前课程", "目标课程", "学期", "院系", "提交时间"}

// ═══════════════════════════════════════════════════════════
// ExportPending 导出待配对申请
// ═══════════════════════════════════════════════════════════
//
// 输出格式：单个 Sheet "待配对申请"，第 1 行标题，第 2 行表头，
// 之后每行一条申请，按提交时间升序。
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportPending(ctx context.Context, req *dto.ExportPendingRequest) (*bytes.Buffer, string, error) {
	filter := &repository.SwapRequestFilter{
		Semester:   req.Semester,
		Department: strings.ToUpper(strings.TrimSpace(req.Department)),
	}
	list, _, err := s.repo.SwapRequest.List(ctx, filter, 0, 0)
	if err != nil {
		s.logger.Error("查询待配对申请失败", zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(list) == 0 {
		return nil, "", ErrExportNoItems
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "待配对申请"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	widths := []float64{12, 26, 14, 14, 8, 8, 22}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", exportTitle(req))
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	f.MergeCell(sheetName, "A1", lastCol+"1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range exportHeaders {
		cellName, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheetName, cellName, h)
	}
	f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle)

	// 数据行
	for i := range list {
		r := &list[i]
		email, _ := rollnumber.ToEmail(r.RollNumber)
		values := []interface{}{
			r.RollNumber, email, r.CourseCurrent, r.CourseTarget,
			r.Semester, r.Department, r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		cellName, _ := excelize.CoordinatesToCellName(1, i+3)
		if err := f.SetSheetRow(sheetName, cellName, &values); err != nil {
			s.logger.Error("写入 Excel 行失败", zap.Int("row", i+3), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("待配对申请_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

func exportTitle(req *dto.ExportPendingRequest) string {
	title := "待配对换班申请"
	if req.Department != "" {
		title += " · " + strings.ToUpper(strings.TrimSpace(req.Department))
	}
	if req.Semester > 0 {
		title += fmt.Sprintf(" · 第%d学期", req.Semester)
	}
	return title
}
