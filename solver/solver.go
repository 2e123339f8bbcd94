// Package solver 封装了外部线性规划求解器的统一调用契约。
// 上层只负责构造规范形式的问题描述（目标向量、不等式矩阵、变量边界），
// 求解算法本身由 gonum 的单纯形实现承担。
package solver

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

var (
	// ErrNoVariables 问题中没有决策变量。
	ErrNoVariables = errors.New("problem has no variables")
	// ErrDimMismatch 系数矩阵与目标向量维度不匹配。
	ErrDimMismatch = errors.New("constraint dimensions do not match objective")
	// ErrBadBounds 变量边界非法（下界为无穷或大于上界）。
	ErrBadBounds = errors.New("invalid variable bounds")
)

// Problem 描述一个规范形式的线性规划问题：
//
//	minimize  Cost · x
//	subject to  A·x ≤ B,  AEq·x = BEq,  Lower ≤ x ≤ Upper
//
// Upper 中的 math.Inf(1) 表示该变量无上界；Lower 必须有限。
type Problem struct {
	Cost  []float64   // 目标函数系数（最小化方向）。
	A     [][]float64 // 不等式约束系数（每行一条 ≤ 约束）。
	B     []float64   // 不等式约束右端项。
	AEq   [][]float64 // 等式约束系数。
	BEq   []float64   // 等式约束右端项。
	Lower []float64   // 变量下界。
	Upper []float64   // 变量上界。
}

// NewProblem 初始化一个 n 变量的问题，默认边界 [0, +Inf)。
func NewProblem(cost []float64) *Problem {
	n := len(cost)
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := range upper {
		upper[i] = math.Inf(1)
	}

	return &Problem{
		Cost:  cost,
		Lower: lower,
		Upper: upper,
	}
}

// AddRow 追加一条 coeffs·x ≤ rhs 形式的不等式约束。
func (p *Problem) AddRow(coeffs []float64, rhs float64) {
	p.A = append(p.A, coeffs)
	p.B = append(p.B, rhs)
}

// AddEqRow 追加一条 coeffs·x = rhs 形式的等式约束。
func (p *Problem) AddEqRow(coeffs []float64, rhs float64) {
	p.AEq = append(p.AEq, coeffs)
	p.BEq = append(p.BEq, rhs)
}

// SetBounds 设置第 i 个变量的边界。
func (p *Problem) SetBounds(i int, lower, upper float64) {
	p.Lower[i] = lower
	p.Upper[i] = upper
}

func (p *Problem) validate() error {
	n := len(p.Cost)
	if n == 0 {
		return ErrNoVariables
	}
	if len(p.Lower) != n || len(p.Upper) != n {
		return ErrDimMismatch
	}
	for _, row := range p.A {
		if len(row) != n {
			return ErrDimMismatch
		}
	}
	for _, row := range p.AEq {
		if len(row) != n {
			return ErrDimMismatch
		}
	}
	if len(p.A) != len(p.B) || len(p.AEq) != len(p.BEq) {
		return ErrDimMismatch
	}
	for i := 0; i < n; i++ {
		if math.IsInf(p.Lower[i], 0) || p.Lower[i] > p.Upper[i] {
			return ErrBadBounds
		}
	}

	return nil
}

// Solve 求解问题并返回结果。
// 不可行、无界与数值失败均作为 Solution.Status 返回，而不是 error；
// error 仅在问题描述本身非法时产生。
func Solve(p *Problem) (*Solution, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	n := len(p.Cost)

	// 变量代换 y = x - Lower，使所有变量满足 y ≥ 0。
	// 目标函数因此产生常数偏移 Cost·Lower，求解后补回。
	offset := 0.0
	for i := 0; i < n; i++ {
		offset += p.Cost[i] * p.Lower[i]
	}

	// 收集全部 ≤ 约束：显式行 + 有限上界行。
	type ineq struct {
		coeffs []float64
		rhs    float64
	}

	ineqs := make([]ineq, 0, len(p.A)+n)
	for r, row := range p.A {
		rhs := p.B[r]
		for i, v := range row {
			rhs -= v * p.Lower[i]
		}
		ineqs = append(ineqs, ineq{coeffs: row, rhs: rhs})
	}
	for i := 0; i < n; i++ {
		if math.IsInf(p.Upper[i], 1) {
			continue
		}
		row := make([]float64, n)
		row[i] = 1
		ineqs = append(ineqs, ineq{coeffs: row, rhs: p.Upper[i] - p.Lower[i]})
	}

	rows := len(ineqs) + len(p.AEq)
	if rows == 0 {
		return solveUnconstrained(p, offset), nil
	}

	// 标准形式：每条不等式引入一个松弛变量，等式约束原样加入。
	cols := n + len(ineqs)
	cStd := make([]float64, cols)
	copy(cStd, p.Cost)

	data := make([]float64, rows*cols)
	bStd := make([]float64, rows)
	for r, iq := range ineqs {
		copy(data[r*cols:], iq.coeffs)
		data[r*cols+n+r] = 1
		bStd[r] = iq.rhs
	}
	for e, row := range p.AEq {
		r := len(ineqs) + e
		copy(data[r*cols:], row)
		rhs := p.BEq[e]
		for i, v := range row {
			rhs -= v * p.Lower[i]
		}
		bStd[r] = rhs
	}

	optF, optX, err := lp.Simplex(cStd, mat.NewDense(rows, cols, data), bStd, 0, nil)
	if err != nil {
		return solutionFromError(err), nil
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = optX[i] + p.Lower[i]
	}

	return &Solution{
		Status:    StatusOptimal,
		X:         x,
		Objective: optF + offset,
	}, nil
}

// solveUnconstrained 处理没有任何约束行的退化情形：
// 每个变量独立取使目标最小的边界值。
func solveUnconstrained(p *Problem, offset float64) *Solution {
	n := len(p.Cost)
	x := make([]float64, n)
	obj := offset

	for i := 0; i < n; i++ {
		if p.Cost[i] >= 0 {
			x[i] = p.Lower[i]
			continue
		}
		if math.IsInf(p.Upper[i], 1) {
			return &Solution{
				Status:  StatusUnbounded,
				Message: "objective decreases without bound",
			}
		}
		x[i] = p.Upper[i]
		obj += p.Cost[i] * (p.Upper[i] - p.Lower[i])
	}

	return &Solution{Status: StatusOptimal, X: x, Objective: obj}
}

func solutionFromError(err error) *Solution {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return &Solution{Status: StatusInfeasible, Message: err.Error()}
	case errors.Is(err, lp.ErrUnbounded):
		return &Solution{Status: StatusUnbounded, Message: err.Error()}
	default:
		return &Solution{Status: StatusFailed, Message: err.Error()}
	}
}
