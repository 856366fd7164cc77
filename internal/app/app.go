// Package app assembles the gate from its parts.
//
// Every component is constructed here and owned by the App; nothing is a
// package-level singleton, so tests can run several independent gates side by
// side.
package app

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/ipgate/internal/admin"
	"github.com/roach88/ipgate/internal/config"
	"github.com/roach88/ipgate/internal/confirm"
	"github.com/roach88/ipgate/internal/gate"
	"github.com/roach88/ipgate/internal/metrics"
	"github.com/roach88/ipgate/internal/store"
)

// ConfigFile is the configuration file name inside the data directory.
const ConfigFile = "config.yml"

// Options locate the gate's files and inject test doubles.
type Options struct {
	// DataDir holds config.yml and, by default, the database.
	DataDir string
	// ConfigPath overrides DataDir/config.yml.
	ConfigPath string
	// Database overrides the database path from the configuration.
	Database string

	Logger *slog.Logger
	// Clock drives confirmation expiry; defaults to the system clock.
	Clock confirm.Clock
	// Registry receives the gate's metrics; defaults to a fresh registry.
	Registry *prometheus.Registry
}

// App is a fully wired gate.
type App struct {
	Config      *config.Holder
	Store       *store.Store
	Confirm     *confirm.Engine
	Decider     *gate.Decider
	Coordinator *admin.Coordinator
	Dispatcher  *admin.Dispatcher
	Metrics     *metrics.Metrics
	Registry    *prometheus.Registry

	logger *slog.Logger
}

// New loads configuration, opens the database and wires every component.
// A storage failure aborts startup with an error wrapping
// store.ErrStorageUnavailable.
func New(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = filepath.Join(opts.DataDir, ConfigFile)
	}
	holder, err := config.NewHolder(configPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = holder.Current().Database
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(opts.DataDir, dbPath)
		}
	}

	m := metrics.New(reg)

	st, err := store.Open(dbPath, store.WithLogger(logger), store.WithMetrics(m))
	if err != nil {
		logger.Error("storage unavailable, refusing to start", "path", dbPath, "error", err)
		return nil, err
	}
	logger.Info("database ready", "path", dbPath)

	engineOpts := []confirm.Option{confirm.WithLogger(logger), confirm.WithMetrics(m)}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, confirm.WithClock(opts.Clock))
	}
	engine := confirm.New(engineOpts...)

	coord := admin.NewCoordinator(st, engine, holder, logger, m)

	return &App{
		Config:      holder,
		Store:       st,
		Confirm:     engine,
		Decider:     gate.NewDecider(st, holder, logger, m),
		Coordinator: coord,
		Dispatcher:  admin.NewDispatcher(coord, holder),
		Metrics:     m,
		Registry:    reg,
		logger:      logger,
	}, nil
}

// Close releases the database. Pending confirmations are discarded.
func (a *App) Close() error {
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	a.logger.Debug("gate closed")
	return nil
}
