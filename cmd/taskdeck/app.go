package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ganot/taskdeck/internal/config"
	"github.com/ganot/taskdeck/internal/dashboard"
	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/ganot/taskdeck/internal/realtime"
	"github.com/ganot/taskdeck/internal/sqlite"
)

// app holds the process-wide collaborators shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sqlite.DB
	store    *sqlite.Store
	registry *realtime.Registry
	manager  *dashboard.Manager
	keys     *sqlite.APIKeyStore
	closeLog func()
}

func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	logger, closeLog := newLogger(logOut, cfg.Log.Level)

	if err := ensureDir(cfg.DB.Path); err != nil {
		closeLog()
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		closeLog()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store := sqlite.NewStore(db)
	registry := realtime.NewRegistry(store, realtime.NewBus(), realtime.Options{
		GraceDelay: cfg.Realtime.GraceDelay,
		Logger:     logger,
	}, dataservice.TableTasks, dataservice.TableClients, dataservice.TableProfiles)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		store:    store,
		registry: registry,
		manager:  dashboard.NewManager(dashboard.Deps{Rows: store, Registry: registry, Logger: logger}),
		keys:     sqlite.NewAPIKeyStore(db),
		closeLog: closeLog,
	}, nil
}

func (a *app) Close() {
	a.manager.Close()
	a.registry.Close()
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err)
	}
	a.closeLog()
}
