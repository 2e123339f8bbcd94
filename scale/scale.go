// Package scale 模拟传送带上的视觉计量秤：
// 按配置的基准流量加均匀噪声生成各物料的瞬时流量快照 (t/h)。
// 作为真实传感器接入前的信号源，供遥测广播与进料分析使用。
package scale

import (
	"context"
	"math/rand"
	"time"
)

// StreamRate 定义一种物料的基准流量。
type StreamRate struct {
	Name string  `mapstructure:"name"`
	Base float64 `mapstructure:"base"` // 基准流量 (t/h)。
}

// Config 定义模拟器参数。
type Config struct {
	Streams  []StreamRate  `mapstructure:"streams"`
	Noise    float64       `mapstructure:"noise"`    // 噪声幅度，读数在 base±noise 间波动。
	Interval time.Duration `mapstructure:"interval"` // 发布周期。
	Seed     int64         `mapstructure:"seed"`     // 非零时固定随机序列，用于测试。
}

// DefaultConfig 返回与原产线联调一致的默认流量。
func DefaultConfig() Config {
	return Config{
		Streams: []StreamRate{
			{Name: "Tires", Base: 2.0},
			{Name: "Plastic", Base: 1.5},
			{Name: "Wood", Base: 5.0},
			{Name: "Biomass", Base: 8.0},
		},
		Noise:    0.5,
		Interval: 2 * time.Second,
	}
}

// Simulator 生成带噪声的流量读数。非并发安全，单协程驱动。
type Simulator struct {
	cfg Config
	rng *rand.Rand
}

// NewSimulator 创建一个虚拟秤。
func NewSimulator(cfg Config) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Simulator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Read 返回当前一拍的流量快照，读数钳制为非负并保留两位小数。
func (s *Simulator) Read() map[string]float64 {
	reading := make(map[string]float64, len(s.cfg.Streams))
	for _, st := range s.cfg.Streams {
		noise := (s.rng.Float64()*2 - 1) * s.cfg.Noise
		val := st.Base + noise
		if val < 0 {
			val = 0
		}
		reading[st.Name] = float64(int(val*100+0.5)) / 100
	}

	return reading
}

// Run 按配置周期持续发布读数，直至上下文取消。
func (s *Simulator) Run(ctx context.Context, sink func(map[string]float64)) {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = DefaultConfig().Interval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sink(s.Read())
		}
	}
}
