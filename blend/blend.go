package blend

import (
	"math"

	"github.com/wyfcoding/optiblend/solver"
)

// Status 表示一次配比优化的结果状态。
// 求解器层面的失败（不可行/无界/数值错误）是预期内的业务结果而非异常，
// 调用方通过状态分支处理，核心不抛错也不打日志。
type Status string

const (
	// StatusOptimal 求得最优配比。
	StatusOptimal Status = "Optimal"
	// StatusInfeasible 约束冲突，不存在可行配比。
	StatusInfeasible Status = "Infeasible"
	// StatusUnbounded 目标无界（变量有界时不应出现，但必须被识别）。
	StatusUnbounded Status = "Unbounded"
	// StatusSolverError 求解器数值或实现失败。
	StatusSolverError Status = "SolverError"
	// StatusNoMaterials 请求中没有任何物料，与约束不可行是不同的终态。
	StatusNoMaterials Status = "NoMaterials"
)

// Details 是从解向量重新计算出的混合性质。
// 所有数值均由解向量重算得出，绝不直接转述求解器内部值。
type Details struct {
	PCI       float64 `json:"pci"`        // 实际混合热值 (kcal/kg)。
	Sulfur    float64 `json:"sulfur"`     // 实际硫含量。
	Chloride  float64 `json:"chloride"`   // 实际氯含量。
	Humidity  float64 `json:"humidity"`   // 实际湿度。
	TotalMass float64 `json:"total_mass"` // 总质量流量 (t/h)，仅自由配比。
	TotalCost float64 `json:"total_cost"` // 每小时总成本，仅自由配比。
	Protocol  string  `json:"protocol,omitempty"`
}

// Result 是一次配比优化的结构化结果。
// Mix 的取值语义随建模方式而变：协议模式为全局配比百分数 (0-100)，
// 自由模式为绝对质量流量 (t/h)。
type Result struct {
	Status      Status             `json:"status"`
	Mix         map[string]float64 `json:"mix"`
	Objective   float64            `json:"objective_value"`
	Details     Details            `json:"details"`
	Diagnostics string             `json:"diagnostics,omitempty"` // 求解器诊断信息，仅失败时。
}

// BaseFuel 描述协议模式下占固定份额的基底燃料（典型为石油焦）。
// 化学性质表通过显式配置传入而非包级可变状态，保证并发请求可使用不同标定。
type BaseFuel struct {
	Name     string  `mapstructure:"name"     json:"name"`
	PCI      float64 `mapstructure:"pci"      json:"pci"`
	Chloride float64 `mapstructure:"chloride" json:"chloride"`
	Sulfur   float64 `mapstructure:"sulfur"   json:"sulfur"`
	Humidity float64 `mapstructure:"humidity" json:"humidity"`
	Share    float64 `mapstructure:"share"    json:"share"` // 全局配比中的固定份额，(0,1)。
}

// Config 是优化核心的标定参数。
type Config struct {
	Base BaseFuel `mapstructure:"base"`
	// UtilizationWeight 自由配比目标中的利用率权重常数 W：
	// 每个变量的目标系数为 (cost - W)，使最小化方向压倒性地倾向于
	// 用满进料能力，成本只在利用率相同的解之间起次级裁决作用。
	// 这是对两阶段字典序优化的单目标近似，W 必须远大于可能的成本区间；
	// 若需要精确的字典序语义，应改为两次求解（先定质量再定成本）。
	UtilizationWeight float64 `mapstructure:"utilization_weight"`
	// MinAllocation 自由配比结果中低于该阈值 (t/h) 的分配按零处理。
	MinAllocation float64 `mapstructure:"min_allocation"`
}

// DefaultConfig 返回与产线标定一致的默认参数。
func DefaultConfig() Config {
	return Config{
		Base: BaseFuel{
			Name:     "Petcoke",
			PCI:      8200,
			Chloride: 0.0005,
			Sulfur:   0.04,
			Humidity: 0.01,
			Share:    0.5,
		},
		UtilizationWeight: 100000,
		MinAllocation:     1e-3,
	}
}

const defaultPCITolerance = 0.05

// Optimizer 按给定标定执行配比优化。
// 纯同步无副作用计算：每次调用独立构造 LP，不保留跨请求状态，可安全并发使用。
type Optimizer struct {
	cfg Config
}

// New 创建一个配比优化器。零值字段回填默认标定。
func New(cfg Config) *Optimizer {
	def := DefaultConfig()
	if cfg.Base.Share == 0 {
		cfg.Base = def.Base
	}
	if cfg.UtilizationWeight == 0 {
		cfg.UtilizationWeight = def.UtilizationWeight
	}
	if cfg.MinAllocation == 0 {
		cfg.MinAllocation = def.MinAllocation
	}

	return &Optimizer{cfg: cfg}
}

// Solve 执行一次配比优化。
// 校验错误在任何 LP 构造之前快速返回；求解器终态只体现在 Result.Status 中。
func (o *Optimizer) Solve(req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if len(req.Materials) == 0 {
		return &Result{Status: StatusNoMaterials, Mix: map[string]float64{}}, nil
	}

	switch req.Formulation {
	case FormulationProtocol:
		return o.solveProtocol(req)
	default:
		return o.solveFree(req)
	}
}

// statusOf 将求解器终态映射为业务结果状态。
func statusOf(sol *solver.Solution) Status {
	switch sol.Status {
	case solver.StatusOptimal:
		return StatusOptimal
	case solver.StatusInfeasible:
		return StatusInfeasible
	case solver.StatusUnbounded:
		return StatusUnbounded
	default:
		return StatusSolverError
	}
}

func failure(sol *solver.Solution) *Result {
	return &Result{
		Status:      statusOf(sol),
		Mix:         map[string]float64{},
		Diagnostics: sol.Message,
	}
}

// round 按固定小数位取整，保证不同求解器实现间的报告稳定性。
func round(v float64, places int) float64 {
	p := math.Pow10(places)

	return math.Round(v*p) / p
}
