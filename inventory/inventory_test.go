package inventory

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreAdjustClampsAtZero(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Seed(ctx, map[string]float64{"Tires": 500, "Wood": 1200}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	stock, err := s.Adjust(ctx, map[string]float64{"Tires": -600, "Wood": -200})
	if err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}

	// 超额扣减钳制为零，不允许负库存。
	if stock["Tires"] != 0 {
		t.Errorf("expected Tires clamped to 0, got %f", stock["Tires"])
	}
	if stock["Wood"] != 1000 {
		t.Errorf("expected Wood at 1000, got %f", stock["Wood"])
	}
}

func TestMemoryStoreSeedOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Seed(ctx, map[string]float64{"Tires": 500}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if err := s.Seed(ctx, map[string]float64{"Tires": 999, "Plastic": 350}); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}

	qty, err := s.Get(ctx, "Tires")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if qty != 500 {
		t.Errorf("second seed must be a no-op, got %f", qty)
	}
	if _, err := s.Get(ctx, "Plastic"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for Plastic, got %v", err)
	}
}

func TestDefaultInitialStockSeedsAllMaterials(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Seed(ctx, DefaultInitialStock()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	want := map[string]float64{"Tires": 500, "Plastic": 350, "Wood": 1200, "Biomass": 800}
	for name, qty := range want {
		if snap[name] != qty {
			t.Errorf("expected %s at %f, got %f", name, qty, snap[name])
		}
	}
}

func TestMemoryStoreSetAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Set(ctx, "Biomass", 800); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, "Sludge", -5); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap["Biomass"] != 800 {
		t.Errorf("expected Biomass 800, got %f", snap["Biomass"])
	}
	if snap["Sludge"] != 0 {
		t.Errorf("negative set must clamp to 0, got %f", snap["Sludge"])
	}

	// 快照必须是副本，外部修改不得污染存储。
	snap["Biomass"] = 1
	if qty, _ := s.Get(ctx, "Biomass"); qty != 800 {
		t.Errorf("snapshot mutation leaked into store: %f", qty)
	}
}
