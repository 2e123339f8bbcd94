package recipe

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/wyfcoding/optiblend/blend"
)

func writePreset(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
}

func TestManagerLoadsPresets(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "standard.json", `{
		"id": "standard",
		"name": "Standard 50/50",
		"formulation": "protocol",
		"limits": {"max_sulfur": 1.0, "min_pci": 3000}
	}`)
	writePreset(t, dir, "high-tsr.json", `{
		"id": "high-tsr",
		"name": "High Substitution",
		"formulation": "free",
		"limits": {"target_pci": 4500, "capacity": 15, "max_sulfur": 1.0}
	}`)
	// 坏文件只跳过，不阻断加载。
	writePreset(t, dir, "broken.json", `{not json`)
	writePreset(t, dir, "notes.txt", `ignored`)

	m, err := NewManager(dir, slog.Default())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 presets, got %d", len(list))
	}
	// List 按 ID 排序。
	if list[0].ID != "high-tsr" || list[1].ID != "standard" {
		t.Errorf("unexpected order: %s, %s", list[0].ID, list[1].ID)
	}

	p, err := m.Get("high-tsr")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Formulation != blend.FormulationFree {
		t.Errorf("expected free formulation, got %s", p.Formulation)
	}
	if p.Limits.Capacity != 15 {
		t.Errorf("expected capacity 15, got %f", p.Limits.Capacity)
	}
	if p.Limits.MaxSulfur == nil || *p.Limits.MaxSulfur != 1.0 {
		t.Errorf("expected max sulfur 1.0, got %v", p.Limits.MaxSulfur)
	}
}

func TestManagerGetUnknown(t *testing.T) {
	m, err := NewManager(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := m.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManagerReload(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "a.json", `{"id": "a", "formulation": "protocol"}`)

	m, err := NewManager(dir, slog.Default())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	writePreset(t, dir, "b.json", `{"id": "b", "formulation": "protocol"}`)
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.List()) != 2 {
		t.Errorf("expected 2 presets after reload, got %d", len(m.List()))
	}
}
