// Package analysis 实现进料流的批次情报：
// 滚动窗口内的平均热值、相对目标的供给缺口报告，以及检测对象的重量估算。
// 物料的热值/密度/含水率标定表通过显式配置传入，而非包级可变状态。
package analysis

import (
	"fmt"
	"sync"
)

// Tables 是物料标定表（干基）。
type Tables struct {
	PCI      map[string]float64 `mapstructure:"pci"`      // 热值 (kcal/kg)。
	Density  map[string]float64 `mapstructure:"density"`  // 密度系数。
	Moisture map[string]float64 `mapstructure:"moisture"` // 含水率修正系数。
}

// Config 定义分析器参数。
type Config struct {
	TargetPCI    float64 `mapstructure:"target_pci"`    // 目标替代率对应的混合热值。
	GapThreshold float64 `mapstructure:"gap_threshold"` // 触发调整建议的缺口阈值 (kcal)。
	WindowSize   int     `mapstructure:"window_size"`   // 滚动窗口帧数。
	// Calibration 是画面面积到重量的标定常数，随相机安装高度调整。
	Calibration float64 `mapstructure:"calibration"`
	// HighPCIMaterials / LowPCIMaterials 是缺口建议中推荐增减的物料。
	HighPCIMaterials []string `mapstructure:"high_pci_materials"`
	LowPCIMaterials  []string `mapstructure:"low_pci_materials"`
	Tables           Tables   `mapstructure:"tables"`
}

// DefaultConfig 返回原产线的标定。
func DefaultConfig() Config {
	return Config{
		TargetPCI:        5600,
		GapThreshold:     500,
		WindowSize:       10,
		Calibration:      50,
		HighPCIMaterials: []string{"Tires", "Plastics"},
		LowPCIMaterials:  []string{"Wet Biomass"},
		Tables: Tables{
			PCI: map[string]float64{
				"Tires": 8200, "Wood": 4500, "Plastics": 10500,
				"Paper/Cardboard": 3500, "Wet Biomass": 1200,
				"Textiles": 5500, "Metals": 0, "Mixed Waste": 3500,
			},
			Density: map[string]float64{
				"Tires": 0.8, "Wood": 0.6, "Plastics": 0.3,
				"Paper/Cardboard": 0.4, "Wet Biomass": 0.5,
				"Metals": 0.9, "Textiles": 0.3, "Mixed Waste": 0.5,
			},
			Moisture: map[string]float64{
				"Tires": 1.0, "Plastics": 1.0, "Wood": 1.0,
				"Textiles": 0.85, "Paper/Cardboard": 0.85,
				"Wet Biomass": 0.65, "Metals": 1.0, "Mixed Waste": 0.8,
			},
		},
	}
}

const (
	fallbackPCI      = 3500
	fallbackDensity  = 0.5
	fallbackMoisture = 0.8
)

// Action 是供给缺口报告中的操作建议。
type Action string

const (
	// ActionIncreaseHighPCI 热值缺口过大，需增加高热值物料进料。
	ActionIncreaseHighPCI Action = "INCREASE_HIGH_PCI"
	// ActionReduceHighPCI 热量过剩，需减少高热值物料。
	ActionReduceHighPCI Action = "REDUCE_HIGH_PCI"
	// ActionMaintain 运行平稳，维持当前配比。
	ActionMaintain Action = "MAINTAIN"
)

// Recommendation 是缺口报告附带的建议。
type Recommendation struct {
	Action    Action   `json:"action"`
	Message   string   `json:"message"`
	Materials []string `json:"materials"`
}

// GapReport 是当前进料相对目标热值的缺口情报。
type GapReport struct {
	CurrentPCI     float64        `json:"current_pci"`
	TargetPCI      float64        `json:"target_pci"`
	Gap            float64        `json:"gap"`
	Status         string         `json:"status"`
	Recommendation Recommendation `json:"recommendation"`
}

// Observation 是一帧进料观测。
type Observation struct {
	PCI      float64 `json:"pci"`       // 该帧估算混合热值。
	WeightKg float64 `json:"weight_kg"` // 该帧估算总重量。
}

// Analyzer 维护观测的滚动窗口并生成缺口报告。并发安全。
type Analyzer struct {
	cfg    Config
	mu     sync.Mutex
	frames []Observation
}

// New 创建一个分析器。
func New(cfg Config) *Analyzer {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultConfig().WindowSize
	}
	if cfg.GapThreshold <= 0 {
		cfg.GapThreshold = DefaultConfig().GapThreshold
	}

	return &Analyzer{cfg: cfg}
}

// Config 返回分析器生效的标定参数。
func (a *Analyzer) Config() Config {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.cfg
}

// SetTarget 热更新缺口报告的目标热值与触发阈值，非正值保持原标定。
func (a *Analyzer) SetTarget(target, threshold float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if target > 0 {
		a.cfg.TargetPCI = target
	}
	if threshold > 0 {
		a.cfg.GapThreshold = threshold
	}
}

// AddObservation 把一帧观测加入滚动窗口，窗口满时淘汰最旧一帧。
func (a *Analyzer) AddObservation(obs Observation) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.frames = append(a.frames, obs)
	if len(a.frames) > a.cfg.WindowSize {
		a.frames = a.frames[1:]
	}
}

// RollingPCI 返回窗口内非零观测的平均热值。
func (a *Analyzer) RollingPCI() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.frames) == 0 {
		return 0
	}

	var total float64
	for _, f := range a.frames {
		if f.PCI > 0 {
			total += f.PCI
		}
	}

	return total / float64(len(a.frames))
}

// Gap 基于窗口平均热值生成相对目标的缺口报告。
func (a *Analyzer) Gap() GapReport {
	cfg := a.Config()
	current := a.RollingPCI()
	gap := current - cfg.TargetPCI

	status := "BELOW TARGET"
	if gap > 0 {
		status = "ABOVE TARGET"
	}

	var rec Recommendation
	switch {
	case gap < -cfg.GapThreshold:
		rec = Recommendation{
			Action:    ActionIncreaseHighPCI,
			Message:   fmt.Sprintf("Critical Deficit (%.0f kcal). Increase high-PCI feed.", gap),
			Materials: cfg.HighPCIMaterials,
		}
	case gap > cfg.GapThreshold:
		rec = Recommendation{
			Action:    ActionReduceHighPCI,
			Message:   fmt.Sprintf("High Energy Surplus (+%.0f kcal). Reduce high-PCI feed or increase biomass.", gap),
			Materials: cfg.LowPCIMaterials,
		}
	default:
		rec = Recommendation{
			Action:    ActionMaintain,
			Message:   "Stable Operation. Maintain current mix.",
			Materials: []string{},
		}
	}

	return GapReport{
		CurrentPCI:     current,
		TargetPCI:      cfg.TargetPCI,
		Gap:            gap,
		Status:         status,
		Recommendation: rec,
	}
}
