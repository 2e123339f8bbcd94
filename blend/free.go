package blend

import "github.com/wyfcoding/optiblend/solver"

// solveFree 实现自由配比：所有物料按绝对质量流量 (t/h) 分配，
// 总量在进料能力内自由取值，目标为利用率优先、成本次之。
func (o *Optimizer) solveFree(req Request) (*Result, error) {
	mats := req.Materials
	lim := req.Limits
	n := len(mats)

	tol := lim.PCITolerance
	if tol <= 0 {
		tol = defaultPCITolerance
	}

	// 目标系数 (cost - W)：W 压倒性地驱动总质量最大化，
	// 成本只在同等利用率的解之间决定取舍。见 Config.UtilizationWeight。
	cost := make([]float64, n)
	for i, m := range mats {
		cost[i] = m.Cost - o.cfg.UtilizationWeight
	}
	p := solver.NewProblem(cost)
	for i, m := range mats {
		p.SetBounds(i, 0, m.Stock)
	}

	// 进料能力：Σ x ≤ capacity。与协议模式不同，这里是不等式，总质量可变。
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	p.AddRow(ones, lim.Capacity)

	// 加权平均约束的线性化：总质量本身是变量时，
	// (Σ x·P)/(Σ x) ≤ L 不是线性约束，等价改写为 Σ x·(P-L) ≤ 0。
	// 该代换是精确的，对每条加权平均约束一致套用。
	if lim.MaxSulfur != nil {
		p.AddRow(limitRow(mats, func(m Material) float64 { return m.Sulfur }, *lim.MaxSulfur), 0)
	}
	if lim.MaxChloride != nil {
		p.AddRow(limitRow(mats, func(m Material) float64 { return m.Chloride }, *lim.MaxChloride), 0)
	}
	if lim.MaxHumidity != nil {
		p.AddRow(limitRow(mats, func(m Material) float64 { return m.Humidity }, *lim.MaxHumidity), 0)
	}

	// 热值稳定带 [target·(1-tol), target·(1+tol)]，两侧各用一次同样的线性化。
	lower := limitRow(mats, func(m Material) float64 { return m.PCI }, (1-tol)*lim.TargetPCI)
	for i := range lower {
		lower[i] = -lower[i]
	}
	p.AddRow(lower, 0)
	p.AddRow(limitRow(mats, func(m Material) float64 { return m.PCI }, (1+tol)*lim.TargetPCI), 0)

	sol, err := solver.Solve(p)
	if err != nil {
		return nil, err
	}
	if !sol.IsOptimal() {
		return failure(sol), nil
	}

	return o.interpretFree(mats, sol), nil
}

func limitRow(mats []Material, prop func(Material) float64, limit float64) []float64 {
	row := make([]float64, len(mats))
	for i, m := range mats {
		row[i] = prop(m) - limit
	}

	return row
}

// interpretFree 由解向量重算总质量、加权热值、加权化学性质与真实总成本。
// 求解器目标值编码的是 (cost - W) 的扭曲项，绝不能当作成本报告。
func (o *Optimizer) interpretFree(mats []Material, sol *solver.Solution) *Result {
	mix := make(map[string]float64, len(mats))

	var totalMass, totalHeat, totalSulfur, totalChloride, totalHumidity, totalCost float64
	for i, m := range mats {
		val := sol.Value(i)
		if val <= o.cfg.MinAllocation {
			continue
		}

		mix[m.Name] = round(val, 2)
		totalMass += val
		totalHeat += val * m.PCI
		totalSulfur += val * m.Sulfur
		totalChloride += val * m.Chloride
		totalHumidity += val * m.Humidity
		totalCost += val * m.Cost
	}

	var avgPCI, avgSulfur, avgChloride, avgHumidity float64
	if totalMass > 0 {
		avgPCI = totalHeat / totalMass
		avgSulfur = totalSulfur / totalMass
		avgChloride = totalChloride / totalMass
		avgHumidity = totalHumidity / totalMass
	}

	cost := round(totalCost, 2)

	return &Result{
		Status:    StatusOptimal,
		Mix:       mix,
		Objective: cost,
		Details: Details{
			PCI:       round(avgPCI, 2),
			Sulfur:    round(avgSulfur, 4),
			Chloride:  round(avgChloride, 4),
			Humidity:  round(avgHumidity, 4),
			TotalMass: round(totalMass, 2),
			TotalCost: cost,
			Protocol:  "free allocation",
		},
	}
}
