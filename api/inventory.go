package api

import (
	"errors"
	"net/http"

	"github.com/wyfcoding/optiblend/inventory"
	"github.com/wyfcoding/optiblend/response"
	"github.com/wyfcoding/optiblend/xerrors"

	"github.com/gin-gonic/gin"
)

// SetInventoryRequest 覆盖写入单一物料库存。
type SetInventoryRequest struct {
	Name  string  `json:"name"  binding:"required"`
	Stock float64 `json:"stock" binding:"gte=0"`
}

// AdjustInventoryRequest 按增量批量调整库存，正值入库、负值出库。
type AdjustInventoryRequest struct {
	Deltas map[string]float64 `json:"deltas" binding:"required,min=1"`
}

// GetInventory 返回全部物料的库存快照。
func (h *Handler) GetInventory(c *gin.Context) {
	snapshot, err := h.store.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, xerrors.WrapInternal(err, "failed to read inventory"))
		return
	}

	response.Success(c, snapshot)
}

// SetInventory 覆盖写入单一物料库存。
func (h *Handler) SetInventory(c *gin.Context) {
	var req SetInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.store.Set(c.Request.Context(), req.Name, req.Stock); err != nil {
		response.Error(c, xerrors.WrapInternal(err, "failed to write inventory"))
		return
	}

	if h.metrics != nil {
		h.metrics.StockLevel.WithLabelValues(req.Name).Set(req.Stock)
	}

	response.Success(c, gin.H{"name": req.Name, "stock": req.Stock})
}

// AdjustInventory 增量调整库存并返回调整后的完整快照。
func (h *Handler) AdjustInventory(c *gin.Context) {
	var req AdjustInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	snapshot, err := h.store.Adjust(c.Request.Context(), req.Deltas)
	if err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			response.Error(c, xerrors.ErrMaterialNotFound)
			return
		}
		response.Error(c, xerrors.WrapInternal(err, "failed to adjust inventory"))
		return
	}

	if h.metrics != nil {
		for name, stock := range snapshot {
			h.metrics.StockLevel.WithLabelValues(name).Set(stock)
		}
	}

	response.Success(c, snapshot)
}
