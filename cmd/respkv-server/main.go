package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/infra/buildinfo"
	"github.com/yndnr/respkv/internal/infra/confloader"
	"github.com/yndnr/respkv/internal/infra/shutdown"
	"github.com/yndnr/respkv/internal/server/config"
	"github.com/yndnr/respkv/internal/server/httpserver"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(filterArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "respkv-server",
		Usage:   "In-memory key-value server speaking the Redis protocol",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Directory holding the RDB snapshot",
				Value: config.DefaultDir,
			},
			&cli.StringFlag{
				Name:  "dbfilename",
				Usage: "RDB snapshot file name inside --dir",
				Value: config.DefaultDBFilename,
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"RESPKV_CONFIG"},
			},
		},
		Action: serve,
	}
}

// flagOverrides returns the explicitly set flags keyed by config path.
func flagOverrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	if c.IsSet("dir") {
		out["storage.dir"] = c.String("dir")
	}
	if c.IsSet("dbfilename") {
		out["storage.dbfilename"] = c.String("dbfilename")
	}
	return out
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"), flagOverrides(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogLogger := logger.ToSlog(log)

	log.Info("starting respkv-server",
		"version", buildinfo.Version,
		"dir", cfg.Storage.Dir,
		"dbfilename", cfg.Storage.DBFilename)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	metrics := metric.NewRegistry()

	engine, err := storage.New(storage.Config{
		Dir:        cfg.Storage.Dir,
		DBFilename: cfg.Storage.DBFilename,
		ShardCount: cfg.Storage.ShardCount,
		OnExpire:   func(string) { metrics.IncKeysExpired() },
		Logger:     slogLogger,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := engine.Recover(ctx); err != nil {
		return fmt.Errorf("storage recovery: %w", err)
	}
	if err := metrics.Register(metric.NewKeyspaceCollector(engine.Store().Len)); err != nil {
		return fmt.Errorf("register keyspace collector: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(slogLogger))

	// Hooks run in reverse registration order.
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return engine.Close()
	})

	dispatcher := redisserver.NewDispatcher(engine.Store(), config.RegistryFrom(cfg), metrics)
	redisServer := redisserver.New(&redisserver.Config{
		Addr:           cfg.Server.Redis.Addr,
		ReadTimeout:    cfg.Server.Redis.ReadTimeout,
		WriteTimeout:   cfg.Server.Redis.WriteTimeout,
		IdleTimeout:    cfg.Server.Redis.IdleTimeout,
		MaxConnections: cfg.Server.Redis.MaxConnections,
		RateLimit:      cfg.Server.Redis.RateLimit,
		RateBurst:      cfg.Server.Redis.RateBurst,
	}, dispatcher, log, metrics)
	if err := redisServer.Start(ctx); err != nil {
		return fmt.Errorf("start redis server: %w", err)
	}
	shutdownHandler.OnShutdown("redis", redisServer.Shutdown)

	if addr := cfg.Server.Metrics.Addr; addr != "" {
		adminServer := httpserver.New(addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Metrics:   metrics,
			Logger:    slogLogger,
			Ready:     redisServer.Accepting,
			AccessLog: cfg.Log.Level == "debug",
		}))

		errc := make(chan error, 1)
		if err := adminServer.Start(errc); err != nil {
			_ = redisServer.Shutdown(ctx)
			return fmt.Errorf("start admin server: %w", err)
		}
		log.Info("admin server listening", "address", adminServer.Addr().String())
		shutdownHandler.OnShutdown("admin-http", adminServer.Shutdown)

		go func() {
			select {
			case err := <-errc:
				log.Error("admin server failed", "error", err)
				shutdownHandler.Fail(fmt.Errorf("admin server: %w", err))
			case <-shutdownHandler.Done():
			}
		}()
	}

	if path := c.String("config"); path != "" {
		watcher, err := watchLogLevel(path, log)
		if err != nil {
			log.Warn("config hot reload disabled", "path", path, "error", err)
		} else {
			shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	return shutdownHandler.Wait(ctx)
}

// loadConfig layers defaults, the optional file, RESPKV_* environment
// variables and explicit flags, then validates the result.
func loadConfig(path string, flags map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithFlags(flags)}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchLogLevel re-reads path on change and applies log.level. Every
// other setting is fixed for the life of the process.
func watchLogLevel(path string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(logger.ToSlog(log)))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(changed string) {
		level, err := reloadLogLevel(changed)
		if err != nil {
			log.Warn("config reload failed", "path", changed, "error", err)
			return
		}
		if level == "" || level == logger.CurrentLevel() {
			return
		}
		logger.SetLevel(level)
		log.Info("log level changed", "level", level)
	})
	watcher.StartAsync()
	return watcher, nil
}

// reloadLogLevel reads log.level from the configuration file at path.
func reloadLogLevel(path string) (string, error) {
	cfg := config.Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		return "", err
	}
	if err := config.Verify(cfg); err != nil {
		return "", err
	}
	return cfg.Log.Level, nil
}
