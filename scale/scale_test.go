package scale

import (
	"context"
	"testing"
	"time"
)

func TestReadStaysWithinNoiseBand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42
	sim := NewSimulator(cfg)

	base := make(map[string]float64, len(cfg.Streams))
	for _, st := range cfg.Streams {
		base[st.Name] = st.Base
	}

	for i := 0; i < 100; i++ {
		reading := sim.Read()
		if len(reading) != len(cfg.Streams) {
			t.Fatalf("expected %d streams, got %d", len(cfg.Streams), len(reading))
		}
		for name, val := range reading {
			if val < 0 {
				t.Errorf("%s: negative reading %f", name, val)
			}
			if val > base[name]+cfg.Noise+0.01 {
				t.Errorf("%s: reading %f above noise band", name, val)
			}
		}
	}
}

func TestReadDeterministicWithSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7

	a := NewSimulator(cfg).Read()
	b := NewSimulator(cfg).Read()
	for name, val := range a {
		if b[name] != val {
			t.Errorf("%s: %f != %f with fixed seed", name, val, b[name])
		}
	}
}

func TestRunPublishesUntilCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.Interval = 5 * time.Millisecond
	sim := NewSimulator(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan map[string]float64, 8)

	done := make(chan struct{})
	go func() {
		sim.Run(ctx, func(r map[string]float64) {
			select {
			case got <- r:
			default:
			}
		})
		close(done)
	}()

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("no reading published within 1s")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
