package blend

import (
	"fmt"

	"github.com/wyfcoding/optiblend/solver"
)

// solveProtocol 实现固定配比协议：基底燃料占固定份额（典型 50%），
// 仅在剩余份额内优化各废料的全局配比分数，目标为最大化混合热值。
func (o *Optimizer) solveProtocol(req Request) (*Result, error) {
	base := o.cfg.Base
	if base.Share <= 0 || base.Share >= 1 {
		return nil, ErrBaseShareRange
	}
	share := 1 - base.Share

	mats := req.Materials
	n := len(mats)

	// 决策变量：每种废料在全局混合中的分数，[0, share]；
	// 库存耗尽的物料上界压为 0。
	// 最大化 Σ x·pci 以最小化形式表达为 minimize Σ -pci·x，
	// 基底燃料的贡献是常数偏移，报告时补回。
	cost := make([]float64, n)
	for i, m := range mats {
		cost[i] = -m.PCI
	}
	p := solver.NewProblem(cost)
	for i, m := range mats {
		upper := share
		if m.Stock <= 0 {
			upper = 0
		}
		p.SetBounds(i, 0, upper)
	}

	// 协议质量平衡：废料分数之和严格等于剩余份额。
	// 等式而非不等式是协议模式区别于自由配比的关键。
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	p.AddEqRow(ones, share)

	// 质量约束统一形式：基底贡献（常数）移到右端项，
	// 左端只保留 Σ x·性质。限值缺省时不添加对应约束行。
	lim := req.Limits
	if lim.MaxChloride != nil {
		p.AddRow(propertyRow(mats, func(m Material) float64 { return m.Chloride }),
			*lim.MaxChloride-base.Share*base.Chloride)
	}
	if lim.MaxHumidity != nil {
		p.AddRow(propertyRow(mats, func(m Material) float64 { return m.Humidity }),
			*lim.MaxHumidity-base.Share*base.Humidity)
	}
	if lim.MaxSulfur != nil {
		p.AddRow(propertyRow(mats, func(m Material) float64 { return m.Sulfur }),
			*lim.MaxSulfur-base.Share*base.Sulfur)
	}
	if lim.MinPCI != nil {
		// Σ x·pci ≥ minPCI - 基底贡献，取负转为 ≤ 约束。
		row := make([]float64, n)
		for i, m := range mats {
			row[i] = -m.PCI
		}
		p.AddRow(row, -(*lim.MinPCI - base.Share*base.PCI))
	}

	sol, err := solver.Solve(p)
	if err != nil {
		return nil, err
	}
	if !sol.IsOptimal() {
		return failure(sol), nil
	}

	return o.interpretProtocol(mats, sol), nil
}

func propertyRow(mats []Material, prop func(Material) float64) []float64 {
	row := make([]float64, len(mats))
	for i, m := range mats {
		row[i] = prop(m)
	}

	return row
}

// interpretProtocol 将解向量还原为配比百分数并重算衍生化学性质。
// 所有衍生量都由求解后的分数重新累加（基底贡献 + Σ 分数·性质），
// 不转述求解器目标值；化学性质统一保留 5 位小数以稳定报告。
func (o *Optimizer) interpretProtocol(mats []Material, sol *solver.Solution) *Result {
	base := o.cfg.Base

	mix := make(map[string]float64, len(mats)+1)
	// 基底燃料不是决策变量，但必须显式出现在配比结果中。
	mix[base.Name+" (Base)"] = round(base.Share*100, 2)

	pci := base.Share * base.PCI
	cl := base.Share * base.Chloride
	hum := base.Share * base.Humidity
	sul := base.Share * base.Sulfur

	for i, m := range mats {
		frac := sol.Value(i)
		pci += frac * m.PCI
		cl += frac * m.Chloride
		hum += frac * m.Humidity
		sul += frac * m.Sulfur

		// 分数换算为百分数，取整后仍为零的微小分配按零处理。
		pct := round(frac*100, 2)
		if pct > 0 {
			mix[m.Name] = pct
		}
	}

	achieved := round(pci, 2)

	return &Result{
		Status:    StatusOptimal,
		Mix:       mix,
		Objective: achieved,
		Details: Details{
			PCI:      achieved,
			Chloride: round(cl, 5),
			Humidity: round(hum, 5),
			Sulfur:   round(sul, 5),
			Protocol: fmt.Sprintf("%.0f/%.0f %s protocol", base.Share*100, (1-base.Share)*100, base.Name),
		},
	}
}
