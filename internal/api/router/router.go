package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"swap-corner/config"
	"swap-corner/internal/api/handler"
	"swap-corner/internal/api/middleware"
	"swap-corner/internal/observability"
)

// maxBodyBytes 表单类接口的请求体上限
const maxBodyBytes = 64 << 10

// Deps 路由依赖；Limiter 与 Metrics 可为 nil
type Deps struct {
	Limiter middleware.RateLimiter
	Metrics *observability.Metrics
	Health  map[string]handler.Pinger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查与指标 ──
	r.GET("/health", handler.Health(deps.Health))
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	limit := middleware.RateLimit(deps.Limiter, cfg.Feature.RateLimitPerMinute, time.Minute, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 课程目录
		v1.GET("/courses", h.Catalog.ListCourses)
		v1.GET("/courses/:code", h.Catalog.GetCourse)
		v1.GET("/sections", h.Catalog.ListSections)
		v1.GET("/departments", h.Catalog.ListDepartments)
		v1.POST("/roll-numbers/validate", h.Catalog.ValidateRollNumber)

		// 换班申请
		swaps := v1.Group("/swap-requests")
		{
			swaps.POST("", limit, h.Swap.Submit)
			swaps.GET("", h.Swap.ListPending)
		}

		// 页面流程会话
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", h.Session.Create)
			sessions.GET("/:id", h.Session.Get)
			sessions.POST("/:id/identifier", h.Session.EnterIdentifier)
			sessions.POST("/:id/submit", limit, h.Session.Submit)
			sessions.POST("/:id/start-over", h.Session.StartOver)
			sessions.POST("/:id/change-selection", h.Session.ChangeSelection)
		}

		// 导出（feature.export_enabled 关闭时返回 404）
		v1.GET("/export/pending", h.Export.ExportPending)
	}

	// ── 配对通知函数 ──
	functions := r.Group("/functions/v1")
	{
		functions.POST("/send-match-email", limit, h.Notify.SendMatchEmail)
	}

	return r
}
