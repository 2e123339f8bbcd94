package solver

// Status 表示一次求解的终态。
type Status int

const (
	// StatusOptimal 找到最优解。
	StatusOptimal Status = iota
	// StatusInfeasible 约束无交集，不存在可行点。
	StatusInfeasible
	// StatusUnbounded 目标函数可以无限改善。
	StatusUnbounded
	// StatusFailed 求解器因数值或实现原因失败。
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "failed"
	}
}

// Solution 承载求解结果。
// 仅当 Status 为 StatusOptimal 时 X 与 Objective 有意义。
type Solution struct {
	Status    Status    // 求解终态。
	X         []float64 // 最优变量向量。
	Objective float64   // 最优目标值。
	Message   string    // 求解器诊断信息（失败时）。
}

// IsOptimal 判断是否求得最优解。
func (s *Solution) IsOptimal() bool {
	return s.Status == StatusOptimal
}

// IsInfeasible 判断问题是否不可行。
func (s *Solution) IsInfeasible() bool {
	return s.Status == StatusInfeasible
}

// IsUnbounded 判断问题是否无界。
func (s *Solution) IsUnbounded() bool {
	return s.Status == StatusUnbounded
}

// Value 按下标读取解向量分量，越界返回 0。
func (s *Solution) Value(i int) float64 {
	if i < 0 || i >= len(s.X) {
		return 0
	}

	return s.X[i]
}
