package api

import (
	"encoding/json"
	"net/http"

	"github.com/wyfcoding/optiblend/analysis"
	"github.com/wyfcoding/optiblend/history"
	"github.com/wyfcoding/optiblend/response"
	"github.com/wyfcoding/optiblend/xerrors"

	"github.com/gin-gonic/gin"
)

// TelemetryRequest 是一帧进料遥测。
// 既支持视觉检测对象列表，也支持直接上报帧级指标（如人工抽检）。
type TelemetryRequest struct {
	Source   string                    `json:"source"   binding:"required,oneof=scale vision manual"`
	Objects  []analysis.DetectedObject `json:"objects"`
	PCI      float64                   `json:"pci"       binding:"gte=0"`
	WeightKg float64                   `json:"weight_kg" binding:"gte=0"`
}

// IngestTelemetry 接收一帧进料观测：估算重量与热值，
// 写入滚动窗口、落库并向订阅者广播。
func (h *Handler) IngestTelemetry(c *gin.Context) {
	var req TelemetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	pci, weight := req.PCI, req.WeightKg
	if len(req.Objects) > 0 {
		frame := h.analyzer.EstimateFrame(req.Objects)
		pci, weight = frame.EstimatedPCI, frame.TotalWeightKg
	}

	h.analyzer.AddObservation(analysis.Observation{PCI: pci, WeightKg: weight})

	if h.metrics != nil {
		h.metrics.FeedObservationsTotal.WithLabelValues(req.Source).Inc()
	}

	if h.hist != nil {
		items, err := json.Marshal(req.Objects)
		if err != nil {
			items = []byte("[]")
		}
		obs := &history.FeedObservation{
			Source:   req.Source,
			PCI:      pci,
			WeightKg: weight,
			Items:    string(items),
		}
		if err := h.hist.SaveObservation(c.Request.Context(), obs); err != nil {
			h.logger.WarnContext(c.Request.Context(), "failed to persist observation", "error", err)
		}
	}

	payload := gin.H{"source": req.Source, "pci": pci, "weight_kg": weight}
	if h.ws != nil {
		h.ws.Broadcast("feed", payload)
	}

	response.Success(c, payload)
}

// LatestAnalysis 返回滚动窗口的当前平均热值。
func (h *Handler) LatestAnalysis(c *gin.Context) {
	response.Success(c, gin.H{
		"rolling_pci": h.analyzer.RollingPCI(),
	})
}

// SupplyGap 返回相对目标热值的供给缺口报告。
func (h *Handler) SupplyGap(c *gin.Context) {
	response.Success(c, h.analyzer.Gap())
}

const defaultSummaryLimit = 50

// BatchSummary 汇总历史库中最近的观测批次。
func (h *Handler) BatchSummary(c *gin.Context) {
	if h.hist == nil {
		response.Error(c, xerrors.ErrHistoryUnavailable)
		return
	}

	summary, err := h.hist.BatchSummary(c.Request.Context(), defaultSummaryLimit)
	if err != nil {
		response.Error(c, xerrors.WrapInternal(err, "failed to summarize batch"))
		return
	}

	response.Success(c, summary)
}

// RecentRuns 返回最近的配比优化记录。
func (h *Handler) RecentRuns(c *gin.Context) {
	if h.hist == nil {
		response.Error(c, xerrors.ErrHistoryUnavailable)
		return
	}

	runs, err := h.hist.RecentRuns(c.Request.Context(), defaultSummaryLimit)
	if err != nil {
		response.Error(c, xerrors.WrapInternal(err, "failed to list runs"))
		return
	}

	response.Success(c, runs)
}
