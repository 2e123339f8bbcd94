package analysis

import (
	"math"
	"testing"
)

func TestRollingWindowEvictsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowSize = 3
	a := New(cfg)

	for _, pci := range []float64{1000, 2000, 3000, 4000} {
		a.AddObservation(Observation{PCI: pci})
	}

	// 窗口为 3，1000 已被淘汰：(2000+3000+4000)/3。
	if got := a.RollingPCI(); math.Abs(got-3000) > 1e-9 {
		t.Errorf("expected rolling pci 3000, got %f", got)
	}
}

func TestRollingPCIEmptyWindow(t *testing.T) {
	a := New(DefaultConfig())
	if got := a.RollingPCI(); got != 0 {
		t.Errorf("expected 0 for empty window, got %f", got)
	}
}

func TestGapRecommendations(t *testing.T) {
	tests := []struct {
		name string
		pci  float64
		want Action
	}{
		{"critical deficit", 4000, ActionIncreaseHighPCI},
		{"surplus", 6500, ActionReduceHighPCI},
		{"stable", 5500, ActionMaintain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(DefaultConfig())
			a.AddObservation(Observation{PCI: tt.pci})

			rep := a.Gap()
			if rep.Recommendation.Action != tt.want {
				t.Errorf("pci %f: expected %s, got %s", tt.pci, tt.want, rep.Recommendation.Action)
			}
			if rep.Gap != tt.pci-5600 {
				t.Errorf("expected gap %f, got %f", tt.pci-5600, rep.Gap)
			}
		})
	}

	a := New(DefaultConfig())
	a.AddObservation(Observation{PCI: 6000})
	if rep := a.Gap(); rep.Status != "ABOVE TARGET" {
		t.Errorf("expected ABOVE TARGET, got %s", rep.Status)
	}
}

func TestSetTargetRetunesGapReport(t *testing.T) {
	a := New(DefaultConfig())
	a.AddObservation(Observation{PCI: 5000})

	if rep := a.Gap(); rep.Recommendation.Action != ActionIncreaseHighPCI {
		t.Fatalf("expected deficit before retune, got %s", rep.Recommendation.Action)
	}

	// 目标改为 5000 后同一窗口变为稳态。
	a.SetTarget(5000, 0)
	rep := a.Gap()
	if rep.TargetPCI != 5000 {
		t.Errorf("expected target 5000, got %f", rep.TargetPCI)
	}
	if rep.Recommendation.Action != ActionMaintain {
		t.Errorf("expected stable after retune, got %s", rep.Recommendation.Action)
	}

	// 非正值不得覆盖已有标定。
	a.SetTarget(0, -1)
	if got := a.Config(); got.TargetPCI != 5000 || got.GapThreshold != 500 {
		t.Errorf("non-positive values must keep calibration, got %+v", got)
	}
}

func TestEstimateWeight(t *testing.T) {
	a := New(DefaultConfig())

	obj := DetectedObject{Type: "Tires", VisualDensity: "compact", AreaPercent: 12.5}
	// 12.5 × 1.0 × 0.8 × 50 = 500。
	if got := a.EstimateWeight(obj); math.Abs(got-500) > 1e-9 {
		t.Errorf("expected 500kg, got %f", got)
	}

	// 未知类型回退到默认密度 0.5。
	unknown := DetectedObject{Type: "Rubble", VisualDensity: "dense", AreaPercent: 10}
	want := 10 * 1.2 * 0.5 * 50.0
	if got := a.EstimateWeight(unknown); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestEstimateFrameWeightedPCI(t *testing.T) {
	a := New(DefaultConfig())

	objects := []DetectedObject{
		{Type: "Tires", VisualDensity: "compact", AreaPercent: 10},
		{Type: "Wet Biomass", VisualDensity: "loose", AreaPercent: 10},
	}

	m := a.EstimateFrame(objects)
	if m.TotalWeightKg <= 0 {
		t.Fatalf("expected positive weight, got %f", m.TotalWeightKg)
	}

	// 手工重算加权热值进行对照。
	wTires := 10 * 1.0 * 0.8 * 50.0
	wBio := 10 * 0.7 * 0.5 * 50.0
	want := (8200*wTires*1.0 + 1200*wBio*0.65) / (wTires + wBio)
	if math.Abs(m.EstimatedPCI-want) > 1e-6 {
		t.Errorf("expected frame pci %f, got %f", want, m.EstimatedPCI)
	}

	// 空帧不产生 NaN。
	empty := a.EstimateFrame(nil)
	if empty.EstimatedPCI != 0 || empty.TotalWeightKg != 0 {
		t.Errorf("expected zero metrics for empty frame, got %+v", empty)
	}
}
