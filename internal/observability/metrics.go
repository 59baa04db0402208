// Package observability 提供 Prometheus 指标
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 配对结果标签
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeError     = "error"
)

// Metrics 应用指标集合；所有方法对 nil 接收者安全
type Metrics struct {
	registry *prometheus.Registry

	MatchAttempts *prometheus.CounterVec
	MatchDuration prometheus.Histogram
	ClaimRetries  prometheus.Counter
	Notifications *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics 创建独立注册表上的指标，避免测试间重复注册
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swap_corner"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MatchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "attempts_total",
			Help:      "Total number of match attempts by outcome",
		}, []string{"outcome"}),
		MatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "attempt_duration_seconds",
			Help:      "Match attempt latency including lock and store round trips",
			Buckets:   prometheus.DefBuckets,
		}),
		ClaimRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "claim_retries_total",
			Help:      "Total number of candidate claims lost to a concurrent request",
		}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "notifications_total",
			Help:      "Total number of match notifications by result",
		}, []string{"result"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 返回底层注册表
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveMatch 记录一次配对尝试
func (m *Metrics) ObserveMatch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.MatchAttempts.WithLabelValues(outcome).Inc()
	m.MatchDuration.Observe(d.Seconds())
}

// IncClaimRetry 记录一次认领竞争失败
func (m *Metrics) IncClaimRetry() {
	if m == nil {
		return
	}
	m.ClaimRetries.Inc()
}

// ObserveNotification 记录一次通知结果
func (m *Metrics) ObserveNotification(ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.Notifications.WithLabelValues(result).Inc()
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
