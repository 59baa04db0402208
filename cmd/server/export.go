package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swap-corner/internal/dto"
	"swap-corner/internal/repository"
	"swap-corner/internal/service"
)

var (
	exportSemester   int
	exportDepartment string
	exportOutDir     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出待配对申请为 Excel",
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().IntVar(&exportSemester, "semester", 0, "按学期过滤（1-9）")
	exportCmd.Flags().StringVar(&exportDepartment, "department", "", "按院系过滤")
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", ".", "输出目录")
}

func runExport(cmd *cobra.Command, _ []string) error {
	if exportSemester < 0 || exportSemester > 9 {
		return fmt.Errorf("--semester 必须在 1-9 之间")
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	exportSvc := service.NewExportService(repository.NewRepository(a.db), a.logger)
	buf, filename, err := exportSvc.ExportPending(cmd.Context(), &dto.ExportPendingRequest{
		Semester:   exportSemester,
		Department: exportDepartment,
	})
	if err != nil {
		return err
	}

	path := filepath.Join(exportOutDir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入导出文件失败: %w", err)
	}
	a.logger.Info("导出完成", zap.String("path", path), zap.Int("bytes", buf.Len()))
	return nil
}
