package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wyfcoding/optiblend/blend"
	"github.com/wyfcoding/optiblend/history"
	"github.com/wyfcoding/optiblend/response"
	"github.com/wyfcoding/optiblend/xerrors"

	"github.com/gin-gonic/gin"
)

// OptimizeRequest 是优化接口的请求体。
// UseInventory 为真时以库存快照覆盖各物料的 Stock 字段。
type OptimizeRequest struct {
	Materials    []blend.Material `json:"materials"     binding:"required,min=1,dive"`
	Limits       blend.Limits     `json:"limits"`
	UseInventory bool             `json:"use_inventory"`
}

// OptimizeProtocol 求解固定配比协议模式。
func (h *Handler) OptimizeProtocol(c *gin.Context) {
	h.optimize(c, blend.FormulationProtocol)
}

// OptimizeFree 求解自由配比模式。
func (h *Handler) OptimizeFree(c *gin.Context) {
	h.optimize(c, blend.FormulationFree)
}

// OptimizeWithPreset 按配方预设求解，请求体只需提供物料清单。
func (h *Handler) OptimizeWithPreset(c *gin.Context) {
	preset, err := h.recipes.Get(c.Param("id"))
	if err != nil {
		response.Error(c, xerrors.ErrPresetNotFound)
		return
	}

	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	// 预设可覆盖基底燃料标定，此时用临时优化器求解。
	optimizer := h.optimizer
	if preset.Base != nil {
		cfg := h.cfg
		cfg.Base = *preset.Base
		optimizer = blend.New(cfg)
	}

	h.solveWith(c, optimizer, blend.Request{
		Materials:   req.Materials,
		Limits:      preset.Limits,
		Formulation: preset.Formulation,
	}, req.UseInventory)
}

func (h *Handler) optimize(c *gin.Context, formulation blend.Formulation) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	h.solve(c, blend.Request{
		Materials:   req.Materials,
		Limits:      req.Limits,
		Formulation: formulation,
	}, req.UseInventory)
}

func (h *Handler) solve(c *gin.Context, req blend.Request, useInventory bool) {
	h.solveWith(c, h.optimizer, req, useInventory)
}

func (h *Handler) solveWith(c *gin.Context, optimizer *blend.Optimizer, req blend.Request, useInventory bool) {
	ctx := c.Request.Context()

	if useInventory {
		snapshot, err := h.store.Snapshot(ctx)
		if err != nil {
			response.Error(c, xerrors.WrapInternal(err, "failed to read inventory"))
			return
		}
		for i := range req.Materials {
			if stock, ok := snapshot[req.Materials[i].Name]; ok {
				req.Materials[i].Stock = stock
			}
		}
	}

	start := time.Now()
	result, err := optimizer.Solve(req)
	elapsed := time.Since(start)

	if err != nil {
		// 求解从未开始：输入校验失败。
		response.Error(c, requestError(err))
		return
	}

	if h.metrics != nil {
		h.metrics.OptimizationsTotal.WithLabelValues(string(req.Formulation), string(result.Status)).Inc()
		h.metrics.SolveDuration.WithLabelValues(string(req.Formulation)).Observe(elapsed.Seconds())
	}

	h.recordRun(c, req, result)

	if h.ws != nil {
		h.ws.Broadcast("optimization", result)
	}

	response.Success(c, result)
}

// requestError 将核心校验错误归类到带业务码的哨兵错误，
// 每次派生新实例以携带具体原因，不污染共享的哨兵。
func requestError(err error) *xerrors.Error {
	sentinel := xerrors.ErrInvalidMaterial
	switch {
	case errors.Is(err, blend.ErrUnknownFormulation):
		sentinel = xerrors.ErrUnknownFormulation
	case errors.Is(err, blend.ErrCapacityRequired), errors.Is(err, blend.ErrTargetPCIRequired),
		errors.Is(err, blend.ErrBaseShareRange):
		sentinel = xerrors.ErrInvalidLimits
	}

	return xerrors.New(sentinel.Type, sentinel.Code, sentinel.Message, err.Error(), err)
}

// recordRun 异步无关紧要，这里同步落库但失败只记日志，不影响响应。
func (h *Handler) recordRun(c *gin.Context, req blend.Request, result *blend.Result) {
	if h.hist == nil {
		return
	}

	mix, err := json.Marshal(result.Mix)
	if err != nil {
		mix = []byte("{}")
	}
	details, err := json.Marshal(result.Details)
	if err != nil {
		details = []byte("{}")
	}

	run := &history.BlendRun{
		Formulation: string(req.Formulation),
		Status:      string(result.Status),
		Objective:   result.Objective,
		Mix:         string(mix),
		Details:     string(details),
	}
	if err := h.hist.SaveRun(c.Request.Context(), run); err != nil {
		h.logger.WarnContext(c.Request.Context(), "failed to persist blend run", "error", err)
	}
}
