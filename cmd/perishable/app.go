package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/vsinha/perishable/pkg/application/services/optimization"
	"github.com/vsinha/perishable/pkg/application/services/orchestration"
	"github.com/vsinha/perishable/pkg/application/services/simulation"
	"github.com/vsinha/perishable/pkg/domain/repositories"
	"github.com/vsinha/perishable/pkg/infrastructure/config"
	"github.com/vsinha/perishable/pkg/infrastructure/events"
	"github.com/vsinha/perishable/pkg/infrastructure/logger"
	"github.com/vsinha/perishable/pkg/infrastructure/metrics"
	"github.com/vsinha/perishable/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/perishable/pkg/infrastructure/repositories/sqlstore"
	"github.com/vsinha/perishable/pkg/infrastructure/solver"
)

// app holds the wired services for one process
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	planner *orchestration.Planner
	close   func()
}

func newApp(c *cli.Context) (*app, error) {
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return nil, err
	}
	if level := c.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	baseLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(baseLogger)

	var runs repositories.RunRepository
	closeRuns := func() {}
	switch cfg.Database.Driver {
	case "memory":
		runs = memory.NewRunRepository()
	default:
		ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
		defer cancel()
		store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open run store: %w", err)
		}
		runs = store
		closeRuns = func() {
			if err := store.Close(); err != nil {
				baseLogger.Error("failed to close run store", zap.Error(err))
			}
		}
	}

	m := metrics.New()
	bus := events.NewEventBus(baseLogger)
	if err := bus.Subscribe(events.AllSimulationEvents, m.EventHandler()); err != nil {
		return nil, err
	}

	optimizer := optimization.NewServiceWithConfig(
		solver.NewNetworkSolver(
			solver.NewSimplexSolver(logger.Named(baseLogger, "solver")).WithMaxConcurrent(cfg.Planning.MaxConcurrentSolves),
			logger.Named(baseLogger, "solver"),
		),
		logger.Named(baseLogger, "svc"),
		optimization.Config{
			DefaultTimeout:     cfg.Planning.SolverTimeout,
			DefaultHoldingDays: cfg.Planning.HoldingDays,
			Recorder:           m,
		},
	)
	planner := orchestration.NewPlanner(
		simulation.NewService(logger.Named(baseLogger, "svc")),
		optimizer,
		runs,
		logger.Named(baseLogger, "svc"),
	).WithEvents(bus)

	return &app{
		cfg:     cfg,
		logger:  baseLogger,
		metrics: m,
		planner: planner,
		close: func() {
			closeRuns()
			_ = baseLogger.Sync()
		},
	}, nil
}
