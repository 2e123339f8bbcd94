package inventory

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// MemoryStore 是内存库存实现，语义与 RedisStore 完全一致。
// 用于测试与未配置 Redis 的部署。
type MemoryStore struct {
	mu    sync.RWMutex
	stock map[string]float64
}

// NewMemoryStore 创建一个内存库存存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stock: make(map[string]float64)}
}

// Snapshot 实现 Store 接口。
func (s *MemoryStore) Snapshot(_ context.Context) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.stock), nil
}

// Get 实现 Store 接口。
func (s *MemoryStore) Get(_ context.Context, name string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	qty, ok := s.stock[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	return qty, nil
}

// Adjust 实现 Store 接口。
func (s *MemoryStore) Adjust(_ context.Context, deltas map[string]float64) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, delta := range deltas {
		next := s.stock[name] + delta
		if next < 0 {
			next = 0
		}
		s.stock[name] = next
	}

	return maps.Clone(s.stock), nil
}

// Set 实现 Store 接口。
func (s *MemoryStore) Set(_ context.Context, name string, qty float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty < 0 {
		qty = 0
	}
	s.stock[name] = qty

	return nil
}

// Seed 实现 Store 接口。
func (s *MemoryStore) Seed(_ context.Context, initial map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.stock) > 0 {
		return nil
	}
	maps.Copy(s.stock, initial)

	return nil
}
