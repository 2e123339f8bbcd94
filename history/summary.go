package history

import "math"

// Summary 是一个观测批次的统计汇总。
type Summary struct {
	Count         int     `json:"count"`
	AveragePCI    float64 `json:"avg_pci"`
	TotalWeightKg float64 `json:"total_weight_kg"`
}

// Summarize 对一组观测做纯内存统计，平均热值只计非零帧。
func Summarize(obs []FeedObservation) *Summary {
	sum := &Summary{Count: len(obs)}

	var pciSum float64
	var pciCount int
	for _, o := range obs {
		sum.TotalWeightKg += o.WeightKg
		if o.PCI > 0 {
			pciSum += o.PCI
			pciCount++
		}
	}

	if pciCount > 0 {
		sum.AveragePCI = math.Round(pciSum/float64(pciCount)*100) / 100
	}
	sum.TotalWeightKg = math.Round(sum.TotalWeightKg*100) / 100

	return sum
}
