// Package main runs the Kniffel server: the Telnet scorecard, the JSON API
// and the gRPC health service over one shared table manager.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/kniffel/internal/config"
	"github.com/cory-johannsen/kniffel/internal/observability"
	"github.com/cory-johannsen/kniffel/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file (empty for built-in defaults)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app, err := initializeApp(cfg, logger)
	if err != nil {
		logger.Fatal("initializing server", zap.Error(err))
	}
	logger.Info("sheet loaded",
		zap.String("sheet", app.Sheet.Name),
		zap.String("file", cfg.Scoreboard.SheetFile),
	)

	lifecycle := server.NewLifecycle(logger, server.WithStopTimeout(cfg.Server.ShutdownTimeout))
	register(lifecycle, app)

	logger.Info("kniffel server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Bool("telnet", cfg.Telnet.Enabled),
		zap.Bool("http", cfg.HTTP.Enabled),
		zap.Bool("health", cfg.Health.Enabled),
		zap.String("dice_source", cfg.Dice.Source),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// register adds the enabled services to l. Health goes first so it stops
// last, and flips to NOT_SERVING before anything else stops.
func register(l *server.Lifecycle, app *App) {
	if app.Config.Health.Enabled {
		l.Add("health", app.Health)
		l.OnShutdown(app.Health.Shutdown)
	}
	if app.Config.HTTP.Enabled {
		l.Add("http", app.HTTP)
	}
	if app.Config.Telnet.Enabled {
		l.Add("telnet", &server.FuncService{
			StartFn: app.Telnet.ListenAndServe,
			StopFn:  app.Telnet.Stop,
		})
	}
}
