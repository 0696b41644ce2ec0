// Package main runs the idle game server: the session tick loop behind a
// telnet frontend, persisting saves to the configured storage backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/abyssidle/internal/config"
	"github.com/cory-johannsen/abyssidle/internal/frontend/handlers"
	"github.com/cory-johannsen/abyssidle/internal/frontend/telnet"
	"github.com/cory-johannsen/abyssidle/internal/game/clock"
	"github.com/cory-johannsen/abyssidle/internal/game/command"
	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/offline"
	"github.com/cory-johannsen/abyssidle/internal/game/session"
	"github.com/cory-johannsen/abyssidle/internal/game/skill"
	"github.com/cory-johannsen/abyssidle/internal/observability"
	"github.com/cory-johannsen/abyssidle/internal/scripting"
	"github.com/cory-johannsen/abyssidle/internal/server"
	"github.com/cory-johannsen/abyssidle/internal/storage"
	"github.com/cory-johannsen/abyssidle/internal/storage/file"
	"github.com/cory-johannsen/abyssidle/internal/storage/postgres"
)

// healthInterval is how often the postgres service pings the pool.
const healthInterval = 30 * time.Second

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "idleserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, logger, start); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// backend is the persistence chosen by configuration.
type backend struct {
	saves    storage.SaveStore
	accounts storage.AccountStore
	// service keeps backend resources alive; nil when there are none.
	service server.Service
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return backend{}, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		return backend{
			saves:    pool.Saves(),
			accounts: pool.Accounts(),
			service: server.ServiceFunc(func(ctx context.Context) error {
				return pool.Monitor(ctx, healthInterval, logger)
			}),
		}, nil
	default:
		store, err := file.NewStore(cfg.Storage.DataDir)
		if err != nil {
			return backend{}, fmt.Errorf("opening file store: %w", err)
		}
		logger.Info("file store opened", zap.String("data_dir", cfg.Storage.DataDir))
		return backend{saves: store, accounts: store}, nil
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, start time.Time) error {
	tables, err := content.LoadDir(cfg.Content.Dir)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}
	logger.Info("content loaded",
		zap.Int("weapons", len(tables.Weapons)),
		zap.Int("armors", len(tables.Armors)),
		zap.Int("rings", len(tables.Rings)),
		zap.Int("pets", len(tables.Pets)),
		zap.Int("monsters", len(tables.Monsters)),
	)

	var policy skill.Policy
	if cfg.Content.PolicyScript != "" {
		p, err := scripting.LoadPolicy(cfg.Content.PolicyScript, 0, logger)
		if err != nil {
			return fmt.Errorf("loading policy script: %w", err)
		}
		defer p.Close()
		policy = p
		logger.Info("auto-cast policy loaded", zap.String("path", cfg.Content.PolicyScript))
	}

	game, err := session.NewGame(tables, session.Options{
		MaxDT:    cfg.Game.MaxDT,
		Capacity: cfg.Game.InventoryCapacity,
		Offline:  offline.Estimator{Cap: cfg.Game.OfflineCap, Min: cfg.Game.OfflineMin},
	}, policy)
	if err != nil {
		return fmt.Errorf("building game: %w", err)
	}

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}

	mgr := session.NewManager(game, be.saves, clock.RealClock{}, logger)
	loop := session.NewTickLoop(mgr, cfg.Game.TickInterval, cfg.Game.SaveInterval, logger)
	play := handlers.NewGameHandler(mgr, command.NewDispatcher(command.DefaultRegistry()), logger)
	acceptor := telnet.NewAcceptor(cfg.Telnet, handlers.NewAuthHandler(be.accounts, play, logger), logger)

	lifecycle := server.NewLifecycle(logger)
	if be.service != nil {
		lifecycle.Add("storage", be.service)
	}
	lifecycle.Add("ticker", loop)
	lifecycle.Add("telnet", server.ServiceFunc(acceptor.Serve))

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("storage", cfg.Storage.Backend),
	)
	return lifecycle.Run(ctx)
}
