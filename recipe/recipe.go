// Package recipe 实现配比预设（窑况配方）的 JSON 文件加载与查询。
// 每个预设文件描述一组操作限值与建模方式，供操作台按窑况一键下发。
package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/wyfcoding/optiblend/blend"
)

// ErrNotFound 指定预设不存在。
var ErrNotFound = errors.New("preset not found")

// Preset 是一份配比预设。
type Preset struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Formulation blend.Formulation `json:"formulation"`
	Limits      blend.Limits      `json:"limits"`
	// Base 覆盖协议模式下的基底燃料标定，nil 时使用服务默认。
	Base *blend.BaseFuel `json:"base,omitempty"`
}

// Manager 从目录加载全部预设并支持热重载。并发安全。
type Manager struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	presets map[string]Preset
}

// NewManager 创建并立即加载一次预设目录。
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	m := &Manager{
		dir:     dir,
		logger:  logger.With("module", "recipe"),
		presets: make(map[string]Preset),
	}
	if err := m.Load(); err != nil {
		return nil, err
	}

	return m, nil
}

// Load 重新读取目录下的全部 *.json 预设文件。
// 单个坏文件只告警跳过，不拖垮整批加载。
func (m *Manager) Load() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		// 目录不存在按空预设集处理，服务仍可运行。
		if os.IsNotExist(err) {
			m.logger.Warn("preset dir missing, starting with no presets", "dir", m.dir)
			m.mu.Lock()
			m.presets = make(map[string]Preset)
			m.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read preset dir: %w", err)
	}

	presets := make(map[string]Preset)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		path := filepath.Join(m.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			m.logger.Warn("failed to read preset file", "path", path, "error", err)
			continue
		}

		var p Preset
		if err := json.Unmarshal(data, &p); err != nil {
			m.logger.Warn("failed to parse preset file", "path", path, "error", err)
			continue
		}
		if p.ID == "" {
			m.logger.Warn("preset missing id, skipped", "path", path)
			continue
		}
		presets[p.ID] = p
	}

	m.mu.Lock()
	m.presets = presets
	m.mu.Unlock()

	m.logger.Info("presets loaded", "count", len(presets), "dir", m.dir)

	return nil
}

// Get 按 ID 查询预设。
func (m *Manager) Get(id string) (Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.presets[id]
	if !ok {
		return Preset{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	return p, nil
}

// List 返回按 ID 排序的全部预设。
func (m *Manager) List() []Preset {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Preset, 0, len(m.presets))
	for _, p := range m.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// Watch 监听预设目录变更并触发整目录重载，直至上下文取消。
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create preset watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.dir); err != nil {
		return fmt.Errorf("watch preset dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := m.Load(); err != nil {
				m.logger.Error("preset reload failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Error("preset watcher error", "error", err)
		}
	}
}
