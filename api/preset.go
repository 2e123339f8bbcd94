package api

import (
	"github.com/wyfcoding/optiblend/response"
	"github.com/wyfcoding/optiblend/xerrors"

	"github.com/gin-gonic/gin"
)

// ListPresets 返回全部配方预设，按 ID 排序。
func (h *Handler) ListPresets(c *gin.Context) {
	response.Success(c, h.recipes.List())
}

// GetPreset 返回单个配方预设。
func (h *Handler) GetPreset(c *gin.Context) {
	preset, err := h.recipes.Get(c.Param("id"))
	if err != nil {
		response.Error(c, xerrors.ErrPresetNotFound)
		return
	}

	response.Success(c, preset)
}
