package analysis

// DetectedObject 是上游检测管线输出的一个废料对象。
// 画面解码与目标检测本身不属于本系统，这里只消费其结构化结果。
type DetectedObject struct {
	Type          string  `json:"type"`
	Count         int     `json:"count"`
	SizeClass     string  `json:"estimated_size_class"`
	VisualDensity string  `json:"visual_density"` // loose / compact / dense。
	Confidence    float64 `json:"confidence"`
	AreaPercent   float64 `json:"area_percentage"`
}

// compactionFactor 把视觉密实度换算为压实系数。
func compactionFactor(visualDensity string) float64 {
	switch visualDensity {
	case "dense":
		return 1.2
	case "compact":
		return 1.0
	default:
		return 0.7
	}
}

func lookup(table map[string]float64, key string, fallback float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}

	return fallback
}

// EstimateWeight 估算单个检测对象的重量 (kg)：
// 画面占比 × 压实系数 × 物料密度 × 标定常数。
func (a *Analyzer) EstimateWeight(obj DetectedObject) float64 {
	density := lookup(a.cfg.Tables.Density, obj.Type, fallbackDensity)

	return obj.AreaPercent * compactionFactor(obj.VisualDensity) * density * a.cfg.Calibration
}

// FrameMetrics 是一帧检测结果汇总出的进料指标。
type FrameMetrics struct {
	TotalWeightKg float64 `json:"total_weight_kg"`
	EstimatedPCI  float64 `json:"estimated_pci_kcal_kg"`
}

// EstimateFrame 汇总一帧内全部检测对象：
// 帧热值是按重量与含水率修正加权的平均值。
func (a *Analyzer) EstimateFrame(objects []DetectedObject) FrameMetrics {
	var totalWeight, weightedPCI float64
	for _, obj := range objects {
		weight := a.EstimateWeight(obj)
		pci := lookup(a.cfg.Tables.PCI, obj.Type, fallbackPCI)
		moisture := lookup(a.cfg.Tables.Moisture, obj.Type, fallbackMoisture)

		weightedPCI += pci * weight * moisture
		totalWeight += weight
	}

	var framePCI float64
	if totalWeight > 0 {
		framePCI = weightedPCI / totalWeight
	}

	return FrameMetrics{
		TotalWeightKg: totalWeight,
		EstimatedPCI:  framePCI,
	}
}
