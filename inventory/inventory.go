// Package inventory 实现了持久化的物料库存存取。
// 库存只作为优化核心的只读输入（Material.Stock），核心本身从不改写库存。
package inventory

import (
	"context"
	"errors"
)

// ErrNotFound 指定物料不存在。
var ErrNotFound = errors.New("material not found in inventory")

// DefaultInitialStock 返回默认初始库存（吨），用于未配置初始库存的部署。
func DefaultInitialStock() map[string]float64 {
	return map[string]float64{
		"Tires":   500,
		"Plastic": 350,
		"Wood":    1200,
		"Biomass": 800,
	}
}

// Store 定义库存存储的统一契约。
// Adjust 的增量语义：正值入库、负值出库，扣减后余量被钳制为非负，
// 不做静默失败，返回调整后的完整快照。
type Store interface {
	// Snapshot 返回当前全部物料的库存吨数。
	Snapshot(ctx context.Context) (map[string]float64, error)
	// Get 返回单一物料的库存吨数。
	Get(ctx context.Context, name string) (float64, error)
	// Adjust 按增量批量调整库存，余量钳制为非负。
	Adjust(ctx context.Context, deltas map[string]float64) (map[string]float64, error)
	// Set 覆盖写入单一物料的库存。
	Set(ctx context.Context, name string, qty float64) error
	// Seed 仅当存储为空时写入初始库存。
	Seed(ctx context.Context, initial map[string]float64) error
}
