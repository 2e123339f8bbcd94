// Package metrics 基于 Prometheus 提供统一的指标采集注册表，
// 并预定义 HTTP 与配比优化域的标准监控指标。
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 封装了基于 Prometheus 的指标采集注册表及预定义的标准监控指标。
type Metrics struct {
	registry *prometheus.Registry // 内部独立的 Prometheus 注册中心

	// 预定义的标准指标，减少各业务模块的样板代码
	HTTPRequestsTotal   *prometheus.CounterVec   // HTTP 请求总量 (维度: method, path, status)
	HTTPRequestDuration *prometheus.HistogramVec // HTTP 请求耗时分布
	BuildInfo           *prometheus.GaugeVec     // 构建信息

	// 配比优化域指标
	OptimizationsTotal    *prometheus.CounterVec   // 优化求解总量 (维度: formulation, status)
	SolveDuration         *prometheus.HistogramVec // 求解耗时分布 (维度: formulation)
	FeedObservationsTotal *prometheus.CounterVec   // 进料观测帧总量 (维度: source)
	WSClients             prometheus.Gauge         // 当前 WebSocket 连接数
	StockLevel            *prometheus.GaugeVec     // 当前库存水位 (维度: material)
}

// NewMetrics 初始化并返回一个新的指标采集器。
// 它会自动注册 Go 运行时指标和进程指标。
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	// 初始化各标准指标...
	m.HTTPRequestsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "http_server_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_server_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	m.OptimizationsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "blend_optimizations_total",
		Help: "Total number of blend optimization runs",
	}, []string{"formulation", "status"})

	m.SolveDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blend_solve_duration_seconds",
		Help:    "Linear programming solve latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"formulation"})

	m.FeedObservationsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_observations_total",
		Help: "Total number of ingested feed observation frames",
	}, []string{"source"})

	m.WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_clients",
		Help: "Number of connected websocket clients",
	})
	m.registry.MustRegister(m.WSClients)

	m.StockLevel = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stock_level_tons",
		Help: "Current stock level per material in tons",
	}, []string{"material"})

	slog.Info("unified metrics registry initialized", "service", serviceName)
	return m
}

// RegisterBuildInfo 注册构建信息指标。
func (m *Metrics) RegisterBuildInfo(serviceName, version string) {
	if m == nil || m.BuildInfo != nil {
		return
	}
	if serviceName == "" {
		serviceName = "unknown"
	}
	if version == "" {
		version = "unknown"
	}

	m.BuildInfo = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build information for the service",
	}, []string{"service", "version"})

	m.BuildInfo.WithLabelValues(serviceName, version).Set(1)
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Registry 返回底层注册中心，供 Redis 客户端等组件注册自有指标。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回用于暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ExposeHttp 在指定端口启动一个独立的 HTTP 服务器用于暴露指标数据。
// 返回一个清理函数用于优雅关闭该服务器。
func (m *Metrics) ExposeHttp(port string) func() {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: m.Handler(),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown metrics server", "error", err)
		}
	}
}
