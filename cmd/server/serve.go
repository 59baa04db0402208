package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swap-corner/config"
	"swap-corner/internal/api/handler"
	"swap-corner/internal/api/router"
	"swap-corner/internal/catalog"
	"swap-corner/internal/notify"
	"swap-corner/internal/observability"
	"swap-corner/internal/repository"
	"swap-corner/internal/service"
	"swap-corner/pkg/database"
	"swap-corner/pkg/redis"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	cfg, logger := a.cfg, a.logger
	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("notifier_mode", cfg.Notifier.Mode),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 执行数据库迁移
	sqlDB, err := a.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	// 2. 连接 Redis（可选：连接失败时降级为进程内锁与会话，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，配对锁与会话降级为单实例模式", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// 3. 课程目录
	cat, err := loadCatalog(ctx, &cfg.Catalog, logger)
	if err != nil {
		return err
	}

	// 4. 指标与通知
	metrics := observability.NewMetrics("swap_corner")
	mailer := notify.NewLogMailer(logger)

	var notifier notify.Notifier
	switch cfg.Notifier.Mode {
	case config.NotifierModeHTTP:
		httpNotifier := notify.NewHTTPNotifier(&cfg.Notifier)
		defer httpNotifier.CloseIdleConnections()
		notifier = httpNotifier
	default:
		notifier = service.NewNotificationService(mailer, logger)
	}
	dispatcher := notify.NewDispatcher(notifier, cfg.Notifier.Timeout, logger, metrics)

	// 5. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(a.db)
	svc := service.NewService(cfg, repo, cat, rdb, dispatcher, mailer, metrics, logger)
	h := handler.NewHandler(cfg, svc)

	// 6. 初始化路由
	deps := router.Deps{
		Metrics: metrics,
		Health: map[string]handler.Pinger{
			"db": handler.PingFunc(sqlDB.PingContext),
		},
	}
	if rdb != nil {
		deps.Limiter = rdb
		deps.Health["redis"] = rdb
	} else {
		logger.Warn("Redis 不可用，提交接口不限流")
	}
	engine := router.Setup(cfg, h, deps, logger)

	// 7. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 8. 等待关闭信号或服务器异常
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
	case <-ctx.Done():
		logger.Info("收到关闭信号，开始优雅关闭...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 服务器停止接收请求后，等待在途通知发送完成
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("等待配对通知完成超时", zap.Error(err))
	}

	logger.Info("服务器已关闭")
	return nil
}

// loadCatalog 加载课程目录；配置了文件路径且开启 watch 时热加载
func loadCatalog(ctx context.Context, cfg *config.CatalogConfig, logger *zap.Logger) (*catalog.Catalog, error) {
	if cfg.Path == "" {
		logger.Info("使用内置课程目录")
		return catalog.Default(), nil
	}

	cat, err := catalog.LoadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("加载课程目录失败: %w", err)
	}
	logger.Info("课程目录已加载",
		zap.String("path", cfg.Path),
		zap.Int("courses", len(cat.Courses())),
	)

	if cfg.Watch {
		if err := catalog.Watch(ctx, cat, cfg.Path, logger); err != nil {
			logger.Warn("课程目录监听失败，热加载不可用", zap.Error(err))
		}
	}
	return cat, nil
}
