// Package config 提供了统一的配置加载与管理能力.
// 生成摘要:
// 1) 覆盖服务、日志、存储与优化域的全部配置结构。
// 2) 支持 TOML 文件 + 环境变量的双通道加载。
// 3) 支持配置热更新并自动同步全局日志级别。
// 假设:
// 1) 历史库与 Redis 均为可选依赖，缺省时服务降级运行。
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/wyfcoding/optiblend/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gorm.io/gorm/logger"
)

// Config 全局顶级配置结构.
// 字段已按内存对齐优化 (fieldalignment).
type Config struct {
	Version   string          `mapstructure:"version"   toml:"version"`
	Tracing   TracingConfig   `mapstructure:"tracing"   toml:"tracing"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   toml:"metrics"`
	Snowflake SnowflakeConfig `mapstructure:"snowflake" toml:"snowflake"`
	Log       LogConfig       `mapstructure:"log"       toml:"log"`
	Server    ServerConfig    `mapstructure:"server"    toml:"server"`
	Data      DataConfig      `mapstructure:"data"      toml:"data"`
	CORS      CORSConfig      `mapstructure:"cors"      toml:"cors"`
	Optimizer OptimizerConfig `mapstructure:"optimizer" toml:"optimizer"`
	Inventory InventoryConfig `mapstructure:"inventory" toml:"inventory"`
	Scale     ScaleConfig     `mapstructure:"scale"     toml:"scale"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"  toml:"analysis"`
	Recipes   RecipeConfig    `mapstructure:"recipes"   toml:"recipes"`
}

// ServerConfig 定义服务器运行时的基础网络与环境参数.
type ServerConfig struct {
	Name        string `mapstructure:"name"        toml:"name"        validate:"required"`
	Environment string `mapstructure:"environment" toml:"environment" validate:"oneof=dev test prod"`
	HTTP        struct {
		Addr              string        `mapstructure:"addr"                toml:"addr"`
		Timeout           time.Duration `mapstructure:"timeout"             toml:"timeout"`
		ReadTimeout       time.Duration `mapstructure:"read_timeout"        toml:"read_timeout"`
		ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" toml:"read_header_timeout"`
		WriteTimeout      time.Duration `mapstructure:"write_timeout"       toml:"write_timeout"`
		IdleTimeout       time.Duration `mapstructure:"idle_timeout"        toml:"idle_timeout"`
		MaxHeaderBytes    int           `mapstructure:"max_header_bytes"    toml:"max_header_bytes"`
		TrustedProxies    []string      `mapstructure:"trusted_proxies"     toml:"trusted_proxies"`
		Port              int           `mapstructure:"port"                toml:"port"          validate:"required,min=1,max=65535"`
	} `mapstructure:"http" toml:"http"`
}

// DataConfig 汇集了持久化存储与中间件的数据源配置.
type DataConfig struct {
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Redis    RedisConfig    `mapstructure:"redis"    toml:"redis"`
}

// DatabaseConfig 定义历史库连接与连接池参数.
type DatabaseConfig struct {
	Driver          string          `mapstructure:"driver"            toml:"driver"`
	DSN             string          `mapstructure:"dsn"               toml:"dsn"`
	ConnMaxLifetime time.Duration   `mapstructure:"conn_max_lifetime" toml:"conn_max_lifetime"`
	SlowThreshold   time.Duration   `mapstructure:"slow_threshold"    toml:"slow_threshold"`
	LogLevel        logger.LogLevel `mapstructure:"log_level"         toml:"log_level"`
	MaxIdleConns    int             `mapstructure:"max_idle_conns"    toml:"max_idle_conns"`
	MaxOpenConns    int             `mapstructure:"max_open_conns"    toml:"max_open_conns"`
	Enabled         bool            `mapstructure:"enabled"           toml:"enabled"`
}

// RedisConfig 定义 Redis 连接与池化参数.
type RedisConfig struct {
	MasterName   string        `mapstructure:"master_name"    toml:"master_name"`
	Password     string        `mapstructure:"password"       toml:"password"`
	Addrs        []string      `mapstructure:"addrs"          toml:"addrs"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"   toml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"  toml:"write_timeout"`
	DB           int           `mapstructure:"db"             toml:"db"`
	PoolSize     int           `mapstructure:"pool_size"      toml:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" toml:"min_idle_conns"`
	Enabled      bool          `mapstructure:"enabled"        toml:"enabled"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level         string        `mapstructure:"level"          toml:"level"`          // 日志级别。
	Format        string        `mapstructure:"format"         toml:"format"`         // 日志格式（json/text）。
	Output        string        `mapstructure:"output"         toml:"output"`         // 日志输出目标。
	File          string        `mapstructure:"file"           toml:"file"`           // 日志文件路径。
	MaxSize       int           `mapstructure:"max_size"       toml:"max_size"`       // 单个文件最大大小 (MB)。
	MaxBackups    int           `mapstructure:"max_backups"    toml:"max_backups"`    // 最大备份数。
	MaxAge        int           `mapstructure:"max_age"        toml:"max_age"`        // 最大保留天数。
	Compress      bool          `mapstructure:"compress"       toml:"compress"`       // 是否启用压缩。
	SlowThreshold time.Duration `mapstructure:"slow_threshold" toml:"slow_threshold"` // HTTP 慢请求阈值。
}

// SnowflakeConfig 雪花算法分布式 ID 生成器参数.
type SnowflakeConfig struct {
	StartTime string `mapstructure:"start_time" toml:"start_time"`
	MachineID int64  `mapstructure:"machine_id" toml:"machine_id"`
}

// TracingConfig 分布式链路追踪（OpenTelemetry）配置.
type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"  toml:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio"`
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"`
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
type MetricsConfig struct {
	Path    string `mapstructure:"path"    toml:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// CORSConfig 定义跨域配置。
type CORSConfig struct {
	Enabled          bool          `mapstructure:"enabled"           toml:"enabled"`
	AllowOrigins     []string      `mapstructure:"allow_origins"     toml:"allow_origins"`
	AllowMethods     []string      `mapstructure:"allow_methods"     toml:"allow_methods"`
	AllowHeaders     []string      `mapstructure:"allow_headers"     toml:"allow_headers"`
	ExposeHeaders    []string      `mapstructure:"expose_headers"    toml:"expose_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials" toml:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"           toml:"max_age"`
}

// OptimizerConfig 定义配比优化器的基准燃料与目标权重.
type OptimizerConfig struct {
	Base              BaseFuelConfig `mapstructure:"base"               toml:"base"`
	UtilizationWeight float64        `mapstructure:"utilization_weight" toml:"utilization_weight"`
	MinAllocation     float64        `mapstructure:"min_allocation"     toml:"min_allocation"`
}

// BaseFuelConfig 定义窑炉基准燃料的性质.
type BaseFuelConfig struct {
	Name     string  `mapstructure:"name"     toml:"name"`
	PCI      float64 `mapstructure:"pci"      toml:"pci"      validate:"omitempty,gte=0"`
	Chloride float64 `mapstructure:"chloride" toml:"chloride"`
	Sulfur   float64 `mapstructure:"sulfur"   toml:"sulfur"`
	Humidity float64 `mapstructure:"humidity" toml:"humidity"`
	Share    float64 `mapstructure:"share"    toml:"share"    validate:"omitempty,gt=0,lt=1"`
}

// InventoryConfig 定义库存初始吨数，仅在存储为空时写入.
type InventoryConfig struct {
	Initial map[string]float64 `mapstructure:"initial" toml:"initial"`
}

// ScaleConfig 定义皮带秤模拟器的进料流与噪声参数.
type ScaleConfig struct {
	Enabled  bool          `mapstructure:"enabled"  toml:"enabled"`
	Streams  []ScaleStream `mapstructure:"streams"  toml:"streams"`
	Noise    float64       `mapstructure:"noise"    toml:"noise"`
	Interval time.Duration `mapstructure:"interval" toml:"interval"`
	Seed     int64         `mapstructure:"seed"     toml:"seed"`
}

// ScaleStream 定义单条进料流的基准速率 (t/h).
type ScaleStream struct {
	Name string  `mapstructure:"name" toml:"name"`
	Rate float64 `mapstructure:"rate" toml:"rate"`
}

// AnalysisConfig 定义进料分析器的窗口与热值目标参数.
type AnalysisConfig struct {
	TargetPCI    float64 `mapstructure:"target_pci"    toml:"target_pci"`
	GapThreshold float64 `mapstructure:"gap_threshold" toml:"gap_threshold"`
	WindowSize   int     `mapstructure:"window_size"   toml:"window_size"`
	Calibration  float64 `mapstructure:"calibration"   toml:"calibration"`
}

// RecipeConfig 定义配方预设目录.
type RecipeConfig struct {
	Dir   string `mapstructure:"dir"   toml:"dir"`
	Watch bool   `mapstructure:"watch" toml:"watch"`
}

var vInstance = viper.New()
var onReload []func(*Config)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	onReload = append(onReload, hook)
}

// Load 全生产级的配置加载逻辑.
func Load(path string, conf any) error {
	vInstance.SetConfigFile(path)
	vInstance.SetConfigType("toml")

	vInstance.SetEnvPrefix("APP")
	vInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vInstance.AutomaticEnv()

	if err := vInstance.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}

	if err := vInstance.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	vInstance.WatchConfig()
	vInstance.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		if unmarshalErr := vInstance.Unmarshal(conf); unmarshalErr != nil {
			slog.Error("reload config unmarshal failed", "error", unmarshalErr)

			return
		}

		// 核心优化：如果配置中有日志级别，自动更新全局日志级别
		if c, ok := conf.(*Config); ok {
			logging.SetLevel(c.Log.Level)
		} else {
			// 尝试使用反射获取 Log.Level
			val := reflect.ValueOf(conf)
			if val.Kind() == reflect.Ptr {
				val = val.Elem()
			}
			logField := val.FieldByName("Log")
			if logField.IsValid() {
				levelField := logField.FieldByName("Level")
				if levelField.IsValid() && levelField.Kind() == reflect.String {
					logging.SetLevel(levelField.String())
				}
			}
		}

		if validateErr := validate.Struct(conf); validateErr != nil {
			slog.Error("reload config validation failed", "error", validateErr)
		} else {
			slog.Info("config hot-reloaded and validated successfully")
		}

		if cfg, ok := conf.(*Config); ok {
			for _, hook := range onReload {
				hook(cfg)
			}
		}
	})

	return nil
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		slog.Error("failed to marshal config for printing", "error", err)

		return
	}

	var configMap map[string]any
	if unmarshalErr := json.Unmarshal(data, &configMap); unmarshalErr != nil {
		slog.Error("failed to unmarshal config for masking", "error", unmarshalErr)

		return
	}

	mask(configMap)

	maskedJSON, marshalErr := json.MarshalIndent(configMap, "  ", "  ")
	if marshalErr != nil {
		slog.Error("failed to marshal masked config", "error", marshalErr)

		return
	}

	slog.Info("Current effective configuration", "config", string(maskedJSON))
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)

			continue
		}

		if slice, ok := val.([]any); ok {
			for _, item := range slice {
				if itemMap, ok := item.(map[string]any); ok {
					mask(itemMap)
				}
			}

			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"

				break
			}
		}
	}
}

// GetViper 返回底层的 Viper 实例.
func GetViper() *viper.Viper {
	return vInstance
}
