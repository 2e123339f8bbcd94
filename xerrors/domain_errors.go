package xerrors

var (
	// ErrInvalidMaterial 物料参数非法。
	ErrInvalidMaterial = New(ErrInvalidArg, 400001, "invalid material", "check material name, pci, stock and humidity", nil)
	// ErrInvalidLimits 约束参数非法。
	ErrInvalidLimits = New(ErrInvalidArg, 400002, "invalid limits", "capacity and target pci must be positive for free allocation", nil)
	// ErrUnknownFormulation 未知的配比模式。
	ErrUnknownFormulation = New(ErrInvalidArg, 400003, "unknown formulation", "supported formulations: protocol, free", nil)
	// ErrPresetNotFound 配方预设不存在。
	ErrPresetNotFound = New(ErrNotFound, 404001, "preset not found", "no recipe preset with the given id", nil)
	// ErrMaterialNotFound 库存中不存在该物料。
	ErrMaterialNotFound = New(ErrNotFound, 404002, "material not found", "no stock entry for the given material", nil)
	// ErrHistoryUnavailable 历史库未启用。
	ErrHistoryUnavailable = New(ErrUnavailable, 503001, "history unavailable", "database is disabled or unreachable", nil)
)
