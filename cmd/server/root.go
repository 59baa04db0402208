package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"swap-corner/config"
	"swap-corner/pkg/database"
	applogger "swap-corner/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "swap-corner",
	Short:         "课程换班配对服务",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认 ./config.yaml）")
}

// app 各子命令共享的启动依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

// bootstrap 加载配置、初始化日志并连接数据库
func bootstrap() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	return &app{cfg: cfg, logger: logger, db: db}, nil
}

// close 释放数据库连接并刷新日志
func (a *app) close() {
	if sqlDB, _ := a.db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	a.logger.Sync()
}
