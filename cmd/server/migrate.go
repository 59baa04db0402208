package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swap-corner/pkg/database"
)

var migrateDown int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移",
	Long:  "默认执行全部未应用的迁移；--down N 回滚最近 N 个版本",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().IntVar(&migrateDown, "down", 0, "回滚的版本数")
}

func runMigrate(_ *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	sqlDB, err := a.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	if migrateDown > 0 {
		a.logger.Info("开始回滚迁移", zap.Int("steps", migrateDown))
		return database.RollbackMigrations(sqlDB, migrateDown, a.logger)
	}
	return database.RunMigrations(sqlDB, a.logger)
}
