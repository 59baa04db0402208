package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"swap-corner/internal/observability"
)

// Metrics 记录请求计数与耗时；route 使用路由模板，避免路径参数撑爆标签
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
