package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/kniffel/internal/config"
	"github.com/cory-johannsen/kniffel/internal/frontend/handlers"
	"github.com/cory-johannsen/kniffel/internal/frontend/httpapi"
	"github.com/cory-johannsen/kniffel/internal/frontend/telnet"
	"github.com/cory-johannsen/kniffel/internal/game/command"
	"github.com/cory-johannsen/kniffel/internal/game/dice"
	"github.com/cory-johannsen/kniffel/internal/game/ruleset"
	"github.com/cory-johannsen/kniffel/internal/game/scoreboard"
	"github.com/cory-johannsen/kniffel/internal/game/session"
	"github.com/cory-johannsen/kniffel/internal/server"
)

// App holds every long-running component main hands to the lifecycle.
type App struct {
	Config config.Config
	Logger *zap.Logger
	Sheet  *ruleset.Sheet
	Tables *session.Manager
	Telnet *telnet.Acceptor
	HTTP   *httpapi.Server
	Health *server.HealthService
}

var providerSet = wire.NewSet(
	provideSource,
	provideSheet,
	provideTables,
	command.DefaultRegistry,
	provideScorecardHandler,
	provideAcceptor,
	provideAPIHandler,
	provideAPIServer,
	provideHealth,
	wire.Struct(new(App), "*"),
)

func provideSource(cfg config.Config) (dice.Source, error) {
	return dice.NewSource(cfg.Dice.Source, cfg.Dice.Seed)
}

func provideSheet(cfg config.Config) (*ruleset.Sheet, error) {
	return ruleset.LoadSheetOrDefault(cfg.Scoreboard.SheetFile)
}

func provideTables(cfg config.Config, src dice.Source, logger *zap.Logger) *session.Manager {
	return session.NewManager(session.Settings{
		MaxTables:  cfg.Tables.MaxTables,
		MaxPlayers: cfg.Scoreboard.MaxPlayers,
		Scoreboard: []scoreboard.Option{
			scoreboard.WithDefaultPlayers(cfg.Scoreboard.DefaultPlayers),
			scoreboard.WithNamePrefix(cfg.Scoreboard.PlayerNamePrefix),
		},
		Source: src,
	}, logger)
}

func provideScorecardHandler(
	cfg config.Config,
	tables *session.Manager,
	sheet *ruleset.Sheet,
	registry *command.Registry,
	logger *zap.Logger,
) *handlers.ScorecardHandler {
	return handlers.NewScorecardHandler(tables, sheet, registry, handlers.ScorecardOptions{
		HoldBeforeFirstRoll: cfg.Dice.HoldBeforeFirstRoll,
		IdleTimeout:         cfg.Telnet.IdleTimeout,
		IdleGracePeriod:     cfg.Telnet.IdleGracePeriod,
	}, logger)
}

func provideAcceptor(cfg config.Config, h *handlers.ScorecardHandler, logger *zap.Logger) *telnet.Acceptor {
	return telnet.NewAcceptor(cfg.Telnet, h, logger)
}

func provideAPIHandler(cfg config.Config, tables *session.Manager, sheet *ruleset.Sheet, logger *zap.Logger) *httpapi.Handler {
	return httpapi.NewHandler(httpapi.HandlerDeps{
		Tables:              tables,
		Sheet:               sheet,
		HoldBeforeFirstRoll: cfg.Dice.HoldBeforeFirstRoll,
		AllowedOrigins:      cfg.HTTP.AllowedOrigins,
		Logger:              logger,
	})
}

func provideAPIServer(cfg config.Config, h *httpapi.Handler, logger *zap.Logger) *httpapi.Server {
	return httpapi.NewServer(cfg.HTTP, h, logger)
}

func provideHealth(cfg config.Config, logger *zap.Logger) *server.HealthService {
	return server.NewHealthService(cfg.Health.Addr(), logger)
}
