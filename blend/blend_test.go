package blend

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func wasteStreams() []Material {
	return []Material{
		{Name: "Tires", PCI: 7500, Humidity: 0.02, Chloride: 0.01, Sulfur: 1.5, Density: 0.4, Cost: 50, Stock: 5},
		{Name: "RDF", PCI: 4500, Humidity: 0.15, Chloride: 0.5, Sulfur: 0.3, Density: 0.2, Cost: 20, Stock: 10},
		{Name: "Biomass", PCI: 3200, Humidity: 0.30, Chloride: 0.05, Sulfur: 0.1, Density: 0.3, Cost: 10, Stock: 20},
		{Name: "Sludge", PCI: 1200, Humidity: 0.60, Chloride: 0.02, Sulfur: 0.8, Density: 1.1, Cost: -10, Stock: 8},
	}
}

func TestProtocolPicksHighestPCI(t *testing.T) {
	opt := New(DefaultConfig())

	res, err := opt.Solve(Request{
		Formulation: FormulationProtocol,
		Materials: []Material{
			{Name: "Waste A", PCI: 8000, Stock: 100},
			{Name: "Waste B", PCI: 4000, Stock: 50},
		},
	})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %s (%s)", res.Status, res.Diagnostics)
	}

	// 无质量约束时，剩余份额应全部分配给热值最高的物料。
	if got := res.Mix["Waste A"]; math.Abs(got-50) > 1e-6 {
		t.Errorf("expected Waste A at 50%%, got %f", got)
	}
	if _, ok := res.Mix["Waste B"]; ok {
		t.Errorf("expected Waste B filtered out, mix=%v", res.Mix)
	}
	// 基底燃料不是决策变量，但必须显式出现在结果中。
	if got := res.Mix["Petcoke (Base)"]; got != 50 {
		t.Errorf("expected explicit base share 50%%, got %f", got)
	}

	want := round(0.5*8200+0.5*8000, 2)
	if res.Objective != want {
		t.Errorf("expected objective %f, got %f", want, res.Objective)
	}
}

func TestProtocolAllocationsNeverExceedWhole(t *testing.T) {
	opt := New(DefaultConfig())

	res, err := opt.Solve(Request{
		Formulation: FormulationProtocol,
		Materials:   wasteStreams(),
		Limits: Limits{
			MaxSulfur:   Float(1.0),
			MaxChloride: Float(0.3),
			MaxHumidity: Float(0.25),
		},
	})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %s (%s)", res.Status, res.Diagnostics)
	}

	var totalPct float64
	for _, pct := range res.Mix {
		totalPct += pct
	}
	if totalPct > 100+1e-6 {
		t.Errorf("allocations sum to %f%%, above 100%%", totalPct)
	}
}

func TestProtocolDerivedPropertiesMatchAllocation(t *testing.T) {
	cfg := DefaultConfig()
	opt := New(cfg)

	res, err := opt.Solve(Request{
		Formulation: FormulationProtocol,
		Materials:   wasteStreams(),
		Limits: Limits{
			MaxSulfur:   Float(1.0),
			MaxHumidity: Float(0.25),
			MinPCI:      Float(4000),
		},
	})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %s (%s)", res.Status, res.Diagnostics)
	}

	// 独立于求解器，从报告的配比重算各衍生性质，与 details 必须在舍入容差内一致。
	base := cfg.Base
	pci := base.Share * base.PCI
	sul := base.Share * base.Sulfur
	cl := base.Share * base.Chloride
	hum := base.Share * base.Humidity
	byName := make(map[string]Material)
	for _, m := range wasteStreams() {
		byName[m.Name] = m
	}
	for name, pct := range res.Mix {
		m, ok := byName[name]
		if !ok {
			continue // 基底燃料。
		}
		frac := pct / 100
		pci += frac * m.PCI
		sul += frac * m.Sulfur
		cl += frac * m.Chloride
		hum += frac * m.Humidity
	}

	if math.Abs(pci-res.Details.PCI) > 1.0 {
		t.Errorf("recomputed pci %f vs reported %f", pci, res.Details.PCI)
	}
	if math.Abs(sul-res.Details.Sulfur) > 1e-3 {
		t.Errorf("recomputed sulfur %f vs reported %f", sul, res.Details.Sulfur)
	}
	if math.Abs(cl-res.Details.Chloride) > 1e-3 {
		t.Errorf("recomputed chloride %f vs reported %f", cl, res.Details.Chloride)
	}
	if math.Abs(hum-res.Details.Humidity) > 1e-3 {
		t.Errorf("recomputed humidity %f vs reported %f", hum, res.Details.Humidity)
	}
	if sLim := 1.0; res.Details.Sulfur > sLim+1e-6 {
		t.Errorf("sulfur %f above limit", res.Details.Sulfur)
	}
	if hLim := 0.25; res.Details.Humidity > hLim+1e-6 {
		t.Errorf("humidity %f above limit", res.Details.Humidity)
	}
}

func TestProtocolInfeasibleMinPCI(t *testing.T) {
	opt := New(DefaultConfig())

	// 下限高于任何可达混合热值：0.5·8200 + 0.5·4000 = 6100 < 7000。
	res, err := opt.Solve(Request{
		Formulation: FormulationProtocol,
		Materials: []Material{
			{Name: "Wood", PCI: 4000, Stock: 100},
			{Name: "Sludge", PCI: 1000, Stock: 100},
		},
		Limits: Limits{MinPCI: Float(7000)},
	})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusInfeasible {
		t.Errorf("expected Infeasible, got %s", res.Status)
	}
	if len(res.Mix) != 0 {
		t.Errorf("infeasible result must carry no allocation, got %v", res.Mix)
	}
}

func TestZeroStockNeverAllocated(t *testing.T) {
	opt := New(DefaultConfig())

	mats := []Material{
		{Name: "Tires", PCI: 8000, Sulfur: 0.5, Stock: 0},
		{Name: "Wood", PCI: 4000, Sulfur: 0.1, Stock: 100},
	}

	for _, f := range []Formulation{FormulationProtocol, FormulationFree} {
		req := Request{Formulation: f, Materials: mats}
		if f == FormulationFree {
			req.Limits = Limits{TargetPCI: 4000, Capacity: 10}
		}

		res, err := opt.Solve(req)
		if err != nil {
			t.Fatalf("%s: Solve failed: %v", f, err)
		}
		if res.Status != StatusOptimal {
			t.Fatalf("%s: expected optimal, got %s (%s)", f, res.Status, res.Diagnostics)
		}
		if v, ok := res.Mix["Tires"]; ok && v != 0 {
			t.Errorf("%s: zero-stock material received allocation %f", f, v)
		}
	}
}

func TestFreeAllocationRespectsCapacityAndLimits(t *testing.T) {
	opt := New(DefaultConfig())

	res, err := opt.Solve(Request{
		Formulation: FormulationFree,
		Materials:   wasteStreams(),
		Limits: Limits{
			TargetPCI:   4500,
			MaxSulfur:   Float(1.0),
			MaxChloride: Float(0.8),
			Capacity:    15,
		},
	})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %s (%s)", res.Status, res.Diagnostics)
	}

	var total float64
	for _, v := range res.Mix {
		total += v
	}
	if total > 15+1e-6 {
		t.Errorf("total allocation %f exceeds capacity", total)
	}
	if res.Details.TotalMass > 15+1e-6 {
		t.Errorf("reported total mass %f exceeds capacity", res.Details.TotalMass)
	}
	if res.Details.Sulfur > 1.0+1e-6 {
		t.Errorf("avg sulfur %f above limit", res.Details.Sulfur)
	}
	if res.Details.Chloride > 0.8+1e-6 {
		t.Errorf("avg chloride %f above limit", res.Details.Chloride)
	}
	lo, hi := 4500*0.95, 4500*1.05
	if res.Details.PCI < lo-1 || res.Details.PCI > hi+1 {
		t.Errorf("avg pci %f outside stability band [%f, %f]", res.Details.PCI, lo, hi)
	}
}

func TestFreeAllocationSulfurBound(t *testing.T) {
	opt := New(DefaultConfig())

	// Acid Tar 单独超出硫限值，只能进入到加权平均约束恰好贴边为止。
	res, err := opt.Solve(Request{
		Formulation: FormulationFree,
		Materials: []Material{
			{Name: "Acid Tar", PCI: 4500, Sulfur: 1.5, Cost: 5, Stock: 100},
			{Name: "RDF", PCI: 4500, Sulfur: 0.2, Cost: 20, Stock: 100},
			{Name: "Wood", PCI: 4500, Sulfur: 0.1, Cost: 25, Stock: 100},
		},
		Limits: Limits{
			TargetPCI: 4500,
			MaxSulfur: Float(1.0),
			Capacity:  15,
		},
	})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %s (%s)", res.Status, res.Diagnostics)
	}

	// 利用率权重压倒成本，容量应被用满。
	if math.Abs(res.Details.TotalMass-15) > 0.05 {
		t.Errorf("expected full capacity utilization, got %f", res.Details.TotalMass)
	}
	if res.Details.Sulfur > 1.0+1e-4 {
		t.Errorf("avg sulfur %f above limit", res.Details.Sulfur)
	}
}

func TestFreeAllocationHumidityBound(t *testing.T) {
	opt := New(DefaultConfig())

	// Sludge 单独超出湿度限值，加权平均约束决定其最大进料量。
	res, err := opt.Solve(Request{
		Formulation: FormulationFree,
		Materials: []Material{
			{Name: "Sludge", PCI: 4500, Humidity: 0.6, Cost: -10, Stock: 100},
			{Name: "Wood", PCI: 4500, Humidity: 0.1, Cost: 25, Stock: 100},
		},
		Limits: Limits{
			TargetPCI:   4500,
			MaxHumidity: Float(0.35),
			Capacity:    15,
		},
	})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %s (%s)", res.Status, res.Diagnostics)
	}

	if math.Abs(res.Details.TotalMass-15) > 0.05 {
		t.Errorf("expected full capacity utilization, got %f", res.Details.TotalMass)
	}
	if res.Details.Humidity > 0.35+1e-4 {
		t.Errorf("avg humidity %f above limit", res.Details.Humidity)
	}
	// 成本最低的湿料应恰好进入到湿度贴边为止：0.5·x ≤ 0.25·15。
	if got := res.Mix["Sludge"]; math.Abs(got-7.5) > 0.05 {
		t.Errorf("expected Sludge at 7.5 t/h, got %f", got)
	}

	hum := (res.Mix["Sludge"]*0.6 + res.Mix["Wood"]*0.1) / res.Details.TotalMass
	if math.Abs(hum-res.Details.Humidity) > 1e-3 {
		t.Errorf("recomputed humidity %f vs reported %f", hum, res.Details.Humidity)
	}
}

func TestFreeDerivedPropertiesMatchAllocation(t *testing.T) {
	opt := New(DefaultConfig())

	res, err := opt.Solve(Request{
		Formulation: FormulationFree,
		Materials:   wasteStreams(),
		Limits: Limits{
			TargetPCI: 4500,
			MaxSulfur: Float(1.0),
			Capacity:  15,
		},
	})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %s (%s)", res.Status, res.Diagnostics)
	}

	byName := make(map[string]Material)
	for _, m := range wasteStreams() {
		byName[m.Name] = m
	}

	var mass, heat, cost float64
	for name, v := range res.Mix {
		m := byName[name]
		mass += v
		heat += v * m.PCI
		cost += v * m.Cost
	}

	if math.Abs(mass-res.Details.TotalMass) > 0.05 {
		t.Errorf("recomputed mass %f vs reported %f", mass, res.Details.TotalMass)
	}
	if mass > 0 {
		if avg := heat / mass; math.Abs(avg-res.Details.PCI) > 25 {
			t.Errorf("recomputed pci %f vs reported %f", avg, res.Details.PCI)
		}
	}
	if math.Abs(cost-res.Details.TotalCost) > 0.5 {
		t.Errorf("recomputed cost %f vs reported %f", cost, res.Details.TotalCost)
	}
}

func TestSolveDeterministic(t *testing.T) {
	opt := New(DefaultConfig())
	req := Request{
		Formulation: FormulationFree,
		Materials:   wasteStreams(),
		Limits: Limits{
			TargetPCI: 4500,
			MaxSulfur: Float(1.0),
			Capacity:  15,
		},
	}

	first, err := opt.Solve(req)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	second, err := opt.Solve(req)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same request produced different results:\n%+v\n%+v", first, second)
	}
}

func TestEmptyMaterials(t *testing.T) {
	opt := New(DefaultConfig())

	res, err := opt.Solve(Request{Formulation: FormulationProtocol})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	// 空物料列表不是约束冲突，必须有自己独立的终态。
	if res.Status != StatusNoMaterials {
		t.Errorf("expected NoMaterials, got %s", res.Status)
	}

	res, err = opt.Solve(Request{
		Formulation: FormulationFree,
		Limits:      Limits{TargetPCI: 4500, Capacity: 15},
	})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Status != StatusNoMaterials {
		t.Errorf("expected NoMaterials, got %s", res.Status)
	}
}

func TestRequestValidation(t *testing.T) {
	opt := New(DefaultConfig())

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{
			"negative pci",
			Request{Formulation: FormulationProtocol, Materials: []Material{{Name: "X", PCI: -1, Stock: 1}}},
			ErrNegativePCI,
		},
		{
			"negative stock",
			Request{Formulation: FormulationProtocol, Materials: []Material{{Name: "X", PCI: 1, Stock: -1}}},
			ErrNegativeStock,
		},
		{
			"duplicate name",
			Request{Formulation: FormulationProtocol, Materials: []Material{
				{Name: "X", PCI: 1, Stock: 1},
				{Name: "X", PCI: 2, Stock: 1},
			}},
			ErrDuplicateMaterial,
		},
		{
			"humidity range",
			Request{Formulation: FormulationProtocol, Materials: []Material{{Name: "X", PCI: 1, Humidity: 1.5, Stock: 1}}},
			ErrHumidityRange,
		},
		{
			"free without capacity",
			Request{Formulation: FormulationFree, Materials: []Material{{Name: "X", PCI: 1, Stock: 1}}},
			ErrCapacityRequired,
		},
		{
			"free without target pci",
			Request{
				Formulation: FormulationFree,
				Materials:   []Material{{Name: "X", PCI: 1, Stock: 1}},
				Limits:      Limits{Capacity: 10},
			},
			ErrTargetPCIRequired,
		},
		{
			"unknown formulation",
			Request{Formulation: "quadratic", Materials: []Material{{Name: "X", PCI: 1, Stock: 1}}},
			ErrUnknownFormulation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := opt.Solve(tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
