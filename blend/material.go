// Package blend 实现了水泥窑替代燃料的配比优化核心：
// 将一组候选物料与操作限值翻译为规范的线性规划描述，
// 调用外部求解器，并把数值解还原为领域语义的配比结果。
package blend

import "fmt"

// Material 描述一种候选进料物料。每次请求内不可变。
type Material struct {
	Name     string  `json:"name"`     // 唯一名称。
	PCI      float64 `json:"pci"`      // 净热值 (kcal/kg)，非负。
	Humidity float64 `json:"humidity"` // 湿度，[0,1] 区间的分数。
	Chloride float64 `json:"chloride"` // 氯含量分数。
	Sulfur   float64 `json:"sulfur"`   // 硫含量分数。
	Density  float64 `json:"density"`  // 密度 (t/m3)。
	Cost     float64 `json:"cost"`     // 单位成本，负值表示处置收入。
	Stock    float64 `json:"stock"`    // 可用库存（吨），封顶分配量。
}

// Validate 校验物料不变量。违反约束的物料在任何建模开始前即被拒绝。
func (m Material) Validate() error {
	switch {
	case m.Name == "":
		return ErrEmptyName
	case m.PCI < 0:
		return fmt.Errorf("%s: %w", m.Name, ErrNegativePCI)
	case m.Stock < 0:
		return fmt.Errorf("%s: %w", m.Name, ErrNegativeStock)
	case m.Humidity < 0 || m.Humidity > 1:
		return fmt.Errorf("%s: %w", m.Name, ErrHumidityRange)
	}

	return nil
}

// Limits 定义窑的操作限值与目标。
// 指针字段为可选限值：nil 表示该约束不施加任何限制。
type Limits struct {
	TargetPCI          float64  `json:"target_pci"`          // 目标混合热值 (kcal/kg)。
	PCITolerance       float64  `json:"pci_tolerance"`       // 热值稳定带宽度（分数），0 取默认 5%。
	MaxSulfur          *float64 `json:"max_sulfur"`          // 混合硫含量上限。
	MaxChloride        *float64 `json:"max_chloride"`        // 混合氯含量上限。
	MaxHumidity        *float64 `json:"max_humidity"`        // 混合湿度上限。
	MinPCI             *float64 `json:"min_pci"`             // 混合热值下限。
	Capacity           float64  `json:"capacity"`            // 总进料能力 (t/h)。
	TargetSubstitution float64  `json:"target_substitution"` // 目标替代率 (0-1)。
}

// Float 返回浮点数指针，用于装配可选限值。
func Float(v float64) *float64 {
	return &v
}

// Formulation 选择建模方式。
type Formulation string

const (
	// FormulationProtocol 固定配比协议：基底燃料占固定份额，仅优化剩余份额的分数分配。
	FormulationProtocol Formulation = "protocol"
	// FormulationFree 自由配比：所有物料按绝对质量流量分配，在能力范围内自由取值。
	FormulationFree Formulation = "free"
)

// Request 是一次配比优化请求。
type Request struct {
	Materials   []Material  `json:"materials"`
	Limits      Limits      `json:"limits"`
	Formulation Formulation `json:"formulation"`
}

func (r Request) validate() error {
	seen := make(map[string]struct{}, len(r.Materials))
	for _, m := range r.Materials {
		if err := m.Validate(); err != nil {
			return err
		}
		if _, ok := seen[m.Name]; ok {
			return fmt.Errorf("%s: %w", m.Name, ErrDuplicateMaterial)
		}
		seen[m.Name] = struct{}{}
	}

	switch r.Formulation {
	case FormulationProtocol:
	case FormulationFree:
		if r.Limits.Capacity <= 0 {
			return ErrCapacityRequired
		}
		if r.Limits.TargetPCI <= 0 {
			return ErrTargetPCIRequired
		}
	default:
		return fmt.Errorf("%q: %w", r.Formulation, ErrUnknownFormulation)
	}

	return nil
}
