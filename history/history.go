// Package history 实现配比运行与进料观测的持久化日志，
// 为操作台提供最近帧查询与批次汇总。
package history

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// BlendRun 是一次配比优化的落库记录。
type BlendRun struct {
	ID          uint      `gorm:"primaryKey"      json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Formulation string    `gorm:"size:16;index"   json:"formulation"`
	Status      string    `gorm:"size:16"         json:"status"`
	Objective   float64   `json:"objective_value"`
	Mix         string    `gorm:"type:jsonb"      json:"mix"`     // 配比结果 JSON。
	Details     string    `gorm:"type:jsonb"      json:"details"` // 衍生指标 JSON。
}

// FeedObservation 是一帧进料观测的落库记录。
type FeedObservation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `gorm:"size:32"    json:"source"` // scale / vision / manual。
	PCI       float64   `json:"pci"`
	WeightKg  float64   `json:"weight_kg"`
	Items     string    `gorm:"type:jsonb" json:"items"` // 检测明细 JSON。
}

// Store 封装历史日志的读写。
type Store struct {
	db *gorm.DB
}

// NewStore 创建历史存储并迁移表结构。
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&BlendRun{}, &FeedObservation{}); err != nil {
		return nil, fmt.Errorf("migrate history tables: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveRun 记录一次配比优化。
func (s *Store) SaveRun(ctx context.Context, run *BlendRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("save blend run: %w", err)
	}

	return nil
}

// RecentRuns 返回最近 limit 次配比优化，新在前。
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]BlendRun, error) {
	var runs []BlendRun
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list blend runs: %w", err)
	}

	return runs, nil
}

// SaveObservation 记录一帧进料观测。
func (s *Store) SaveObservation(ctx context.Context, obs *FeedObservation) error {
	if err := s.db.WithContext(ctx).Create(obs).Error; err != nil {
		return fmt.Errorf("save observation: %w", err)
	}

	return nil
}

// LatestObservation 返回最近一帧观测。
func (s *Store) LatestObservation(ctx context.Context) (*FeedObservation, error) {
	var obs FeedObservation
	err := s.db.WithContext(ctx).Order("id DESC").First(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("latest observation: %w", err)
	}

	return &obs, nil
}

// RecentObservations 返回最近 limit 帧观测，新在前。
func (s *Store) RecentObservations(ctx context.Context, limit int) ([]FeedObservation, error) {
	var obs []FeedObservation
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}

	return obs, nil
}

// BatchSummary 汇总最近 limit 帧观测。
func (s *Store) BatchSummary(ctx context.Context, limit int) (*Summary, error) {
	obs, err := s.RecentObservations(ctx, limit)
	if err != nil {
		return nil, err
	}

	return Summarize(obs), nil
}
