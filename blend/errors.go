package blend

import "errors"

var (
	// ErrEmptyName 物料名称为空。
	ErrEmptyName = errors.New("material name must not be empty")
	// ErrNegativePCI 热值为负。
	ErrNegativePCI = errors.New("pci value cannot be negative")
	// ErrNegativeStock 库存为负。
	ErrNegativeStock = errors.New("available stock cannot be negative")
	// ErrHumidityRange 湿度不在 [0,1] 区间内。
	ErrHumidityRange = errors.New("humidity must be within [0, 1]")
	// ErrDuplicateMaterial 同一请求中物料名称重复。
	ErrDuplicateMaterial = errors.New("duplicate material name")
	// ErrCapacityRequired 自由配比模式必须给定总进料能力。
	ErrCapacityRequired = errors.New("feed rate capacity must be positive")
	// ErrTargetPCIRequired 自由配比模式必须给定目标热值。
	ErrTargetPCIRequired = errors.New("target pci must be positive")
	// ErrBaseShareRange 基底燃料占比必须在 (0,1) 区间内。
	ErrBaseShareRange = errors.New("base fuel share must be within (0, 1)")
	// ErrUnknownFormulation 未知的建模方式。
	ErrUnknownFormulation = errors.New("unknown formulation")
)
