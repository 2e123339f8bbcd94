package history

import "testing"

func TestSummarizeSkipsZeroPCI(t *testing.T) {
	obs := []FeedObservation{
		{PCI: 6000, WeightKg: 10},
		{PCI: 0, WeightKg: 5},
		{PCI: 5000, WeightKg: 2.5},
	}

	sum := Summarize(obs)
	if sum.Count != 3 {
		t.Fatalf("Count = %d, want 3", sum.Count)
	}
	if sum.AveragePCI != 5500 {
		t.Errorf("AveragePCI = %v, want 5500", sum.AveragePCI)
	}
	if sum.TotalWeightKg != 17.5 {
		t.Errorf("TotalWeightKg = %v, want 17.5", sum.TotalWeightKg)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum.Count != 0 || sum.AveragePCI != 0 || sum.TotalWeightKg != 0 {
		t.Fatalf("Summarize(nil) = %+v, want zeros", sum)
	}
}
