// optiblend 是水泥窑替代燃料配比优化服务的入口：
// 加载配置，装配优化核心、库存、配方、进料分析与历史库，
// 并以统一的生命周期容器运行 HTTP 服务。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wyfcoding/optiblend/analysis"
	"github.com/wyfcoding/optiblend/api"
	"github.com/wyfcoding/optiblend/app"
	"github.com/wyfcoding/optiblend/blend"
	"github.com/wyfcoding/optiblend/config"
	"github.com/wyfcoding/optiblend/database"
	"github.com/wyfcoding/optiblend/history"
	"github.com/wyfcoding/optiblend/idgen"
	"github.com/wyfcoding/optiblend/inventory"
	"github.com/wyfcoding/optiblend/logging"
	"github.com/wyfcoding/optiblend/metrics"
	"github.com/wyfcoding/optiblend/middleware"
	"github.com/wyfcoding/optiblend/recipe"
	redisx "github.com/wyfcoding/optiblend/redis"
	"github.com/wyfcoding/optiblend/scale"
	"github.com/wyfcoding/optiblend/server"
	"github.com/wyfcoding/optiblend/tracing"
	"github.com/wyfcoding/optiblend/xerrors"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "optiblend:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var cfg config.Config
	if err := config.Load(configPath, &cfg); err != nil {
		return err
	}

	logger := logging.NewFromConfig(logging.Config{
		Service:    cfg.Server.Name,
		Module:     "main",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	config.PrintWithMask(&cfg)

	if err := idgen.Init(cfg.Snowflake); err != nil {
		return err
	}

	m := metrics.NewMetrics(cfg.Server.Name)
	m.RegisterBuildInfo(cfg.Server.Name, cfg.Version)

	var cleanups []func()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Error("failed to shutdown tracer", "error", err)
			}
		})
	}

	// 库存：优先 Redis，未启用时退化为进程内存储。
	var store inventory.Store = inventory.NewMemoryStore()
	if cfg.Data.Redis.Enabled {
		client, cleanup, err := redisx.NewClient(&cfg.Data.Redis, logger)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, cleanup)
		store = inventory.NewRedisStore(client)
	}

	// 初始库存仅在存储为空时写入，重启不会覆盖已有吨数。
	initial := cfg.Inventory.Initial
	if len(initial) == 0 {
		initial = inventory.DefaultInitialStock()
	}
	if err := store.Seed(context.Background(), initial); err != nil {
		return xerrors.WrapInternal(err, "failed to seed inventory")
	}

	// 历史库可选：未启用时相关接口返回 503。
	var hist *history.Store
	if cfg.Data.Database.Enabled {
		db, err := database.NewDB(cfg.Data.Database, logger)
		if err != nil {
			return xerrors.WrapInternal(err, "failed to open history database")
		}
		hist, err = history.NewStore(db.RawDB())
		if err != nil {
			return err
		}
	}

	recipeDir := cfg.Recipes.Dir
	if recipeDir == "" {
		recipeDir = "configs/recipes"
	}
	recipes, err := recipe.NewManager(recipeDir, logger.Logger)
	if err != nil {
		return err
	}

	analyzer := analysis.New(analysisConfig(cfg))

	// 热值目标随配置热更新，缺口报告立即按新目标生成。
	config.RegisterReloadHook(func(next *config.Config) {
		analyzer.SetTarget(next.Analysis.TargetPCI, next.Analysis.GapThreshold)
		logger.Info("analysis targets reloaded",
			"target_pci", next.Analysis.TargetPCI,
			"gap_threshold", next.Analysis.GapThreshold,
		)
	})

	wsManager := server.NewWSManager(logger.Logger)
	wsManager.SetClientGauge(m.WSClients)

	handler := api.NewHandler(
		blendConfig(cfg),
		store,
		recipes,
		analyzer,
		hist,
		wsManager,
		m,
		logger,
	)

	if cfg.Server.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := server.NewDefaultGinEngine(
		middleware.Recovery(logger.Logger),
		middleware.RequestID(),
		middleware.CORS(),
		middleware.TracingMiddleware(cfg.Server.Name),
		middleware.Logger(logger.Logger),
		middleware.HTTPMetricsMiddlewareWithOptions(m, middleware.MetricsOptions{
			SkipPaths: []string{"/healthz", cfg.Metrics.Path},
		}),
		middleware.HTTPErrorHandler(),
	)

	handler.RegisterRoutes(engine)
	engine.GET("/healthz", handler.Healthz)
	engine.GET("/ws", gin.WrapH(wsManager))
	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(m.Handler()))
	}

	// 后台组件统一交由生命周期管理器按序启停。
	lc := app.NewLifecycle(logger.Logger)
	registerBackground(lc, &cfg, logger, wsManager, analyzer, recipes, hist, m)

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Addr, cfg.Server.HTTP.Port)
	httpServer := server.NewGinServer(engine, addr, logger.Logger)

	application := app.New(cfg.Server.Name, logger.Logger,
		app.WithServer(httpServer, lc),
		app.WithCleanup(func() {
			for i := len(cleanups) - 1; i >= 0; i-- {
				cleanups[i]()
			}
		}),
	)

	return application.Run()
}

// registerBackground 装配 WebSocket 广播循环、配方热重载与虚拟秤。
func registerBackground(
	lc *app.Lifecycle,
	cfg *config.Config,
	logger *logging.Logger,
	wsManager *server.WSManager,
	analyzer *analysis.Analyzer,
	recipes *recipe.Manager,
	hist *history.Store,
	m *metrics.Metrics,
) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(app.Hook{
		Name: "websocket-hub",
		OnStart: func(context.Context) error {
			go wsManager.Run(ctx)
			return nil
		},
	})

	if cfg.Recipes.Watch {
		lc.Append(app.Hook{
			Name: "recipe-watcher",
			OnStart: func(context.Context) error {
				go func() {
					if err := recipes.Watch(ctx); err != nil {
						logger.Error("recipe watcher stopped", "error", err)
					}
				}()
				return nil
			},
		})
	}

	if cfg.Scale.Enabled {
		sim := scale.NewSimulator(scaleConfig(cfg))
		lc.Append(app.Hook{
			Name: "scale-simulator",
			OnStart: func(context.Context) error {
				go sim.Run(ctx, func(rates map[string]float64) {
					var totalRate, weightedPCI float64
					tables := analyzer.Config().Tables
					for name, rate := range rates {
						totalRate += rate
						if pci, ok := tables.PCI[name]; ok {
							weightedPCI += pci * rate
						}
					}
					if totalRate > 0 {
						weightedPCI /= totalRate
					}

					analyzer.AddObservation(analysis.Observation{PCI: weightedPCI, WeightKg: totalRate * 1000})
					m.FeedObservationsTotal.WithLabelValues("scale").Inc()

					wsManager.Broadcast("feed", map[string]any{
						"source": "scale",
						"rates":  rates,
						"pci":    weightedPCI,
					})

					if hist != nil {
						obs := &history.FeedObservation{Source: "scale", PCI: weightedPCI, WeightKg: totalRate * 1000, Items: "[]"}
						if err := hist.SaveObservation(ctx, obs); err != nil {
							logger.Warn("failed to persist scale observation", "error", err)
						}
					}
				})
				return nil
			},
		})
	}

	lc.Append(app.Hook{
		Name: "background-context",
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// blendConfig 将顶级配置映射为优化核心标定，零值回退为默认标定。
func blendConfig(cfg config.Config) blend.Config {
	out := blend.DefaultConfig()
	if cfg.Optimizer.Base.Name != "" {
		out.Base = blend.BaseFuel{
			Name:     cfg.Optimizer.Base.Name,
			PCI:      cfg.Optimizer.Base.PCI,
			Chloride: cfg.Optimizer.Base.Chloride,
			Sulfur:   cfg.Optimizer.Base.Sulfur,
			Humidity: cfg.Optimizer.Base.Humidity,
			Share:    cfg.Optimizer.Base.Share,
		}
	}
	if cfg.Optimizer.UtilizationWeight > 0 {
		out.UtilizationWeight = cfg.Optimizer.UtilizationWeight
	}
	if cfg.Optimizer.MinAllocation > 0 {
		out.MinAllocation = cfg.Optimizer.MinAllocation
	}
	return out
}

// analysisConfig 将顶级配置映射为分析器标定。
func analysisConfig(cfg config.Config) analysis.Config {
	out := analysis.DefaultConfig()
	if cfg.Analysis.TargetPCI > 0 {
		out.TargetPCI = cfg.Analysis.TargetPCI
	}
	if cfg.Analysis.GapThreshold > 0 {
		out.GapThreshold = cfg.Analysis.GapThreshold
	}
	if cfg.Analysis.WindowSize > 0 {
		out.WindowSize = cfg.Analysis.WindowSize
	}
	if cfg.Analysis.Calibration > 0 {
		out.Calibration = cfg.Analysis.Calibration
	}
	return out
}

// scaleConfig 将顶级配置映射为虚拟秤标定。
func scaleConfig(cfg *config.Config) scale.Config {
	out := scale.DefaultConfig()
	if len(cfg.Scale.Streams) > 0 {
		streams := make([]scale.StreamRate, 0, len(cfg.Scale.Streams))
		for _, s := range cfg.Scale.Streams {
			streams = append(streams, scale.StreamRate{Name: s.Name, Base: s.Rate})
		}
		out.Streams = streams
	}
	if cfg.Scale.Noise > 0 {
		out.Noise = cfg.Scale.Noise
	}
	if cfg.Scale.Interval > 0 {
		out.Interval = cfg.Scale.Interval
	}
	out.Seed = cfg.Scale.Seed
	return out
}
