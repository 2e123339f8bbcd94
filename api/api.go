// Package api 暴露配比优化服务的 HTTP 接口层：
// 优化求解、库存维护、配方预设、进料遥测与批次情报查询。
package api

import (
	"github.com/wyfcoding/optiblend/analysis"
	"github.com/wyfcoding/optiblend/blend"
	"github.com/wyfcoding/optiblend/history"
	"github.com/wyfcoding/optiblend/inventory"
	"github.com/wyfcoding/optiblend/logging"
	"github.com/wyfcoding/optiblend/metrics"
	"github.com/wyfcoding/optiblend/recipe"
	"github.com/wyfcoding/optiblend/response"
	"github.com/wyfcoding/optiblend/server"

	"github.com/gin-gonic/gin"
)

// Handler 聚合接口层依赖。history 与 ws 允许为 nil，对应能力降级。
type Handler struct {
	cfg       blend.Config
	optimizer *blend.Optimizer
	store     inventory.Store
	recipes   *recipe.Manager
	analyzer  *analysis.Analyzer
	hist      *history.Store
	ws        *server.WSManager
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewHandler 创建接口层。
func NewHandler(
	cfg blend.Config,
	store inventory.Store,
	recipes *recipe.Manager,
	analyzer *analysis.Analyzer,
	hist *history.Store,
	ws *server.WSManager,
	m *metrics.Metrics,
	logger *logging.Logger,
) *Handler {
	return &Handler{
		cfg:       cfg,
		optimizer: blend.New(cfg),
		store:     store,
		recipes:   recipes,
		analyzer:  analyzer,
		hist:      hist,
		ws:        ws,
		metrics:   m,
		logger:    logger,
	}
}

// RegisterRoutes 挂载全部业务路由。
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	{
		optimize := api.Group("/optimize")
		{
			optimize.POST("/protocol", h.OptimizeProtocol)
			optimize.POST("/free", h.OptimizeFree)
			optimize.POST("/preset/:id", h.OptimizeWithPreset)
		}

		inv := api.Group("/inventory")
		{
			inv.GET("", h.GetInventory)
			inv.POST("", h.SetInventory)
			inv.POST("/adjust", h.AdjustInventory)
		}

		presets := api.Group("/presets")
		{
			presets.GET("", h.ListPresets)
			presets.GET("/:id", h.GetPreset)
		}

		api.POST("/telemetry", h.IngestTelemetry)

		an := api.Group("/analysis")
		{
			an.GET("/latest", h.LatestAnalysis)
			an.GET("/supply-gap", h.SupplyGap)
			an.GET("/batch-summary", h.BatchSummary)
		}

		api.GET("/history/runs", h.RecentRuns)
	}
}

// Healthz 就绪探针。
func (h *Handler) Healthz(c *gin.Context) {
	response.SuccessWithRawData(c, gin.H{"status": "ok"})
}
