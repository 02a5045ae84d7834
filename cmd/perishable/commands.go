package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/domain/entities"
	"github.com/vsinha/perishable/pkg/interfaces/cli/commands"
	"github.com/vsinha/perishable/pkg/interfaces/httpapi"
	"github.com/vsinha/perishable/pkg/interfaces/scheduler"
)

func scenarioFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "scenario", Aliases: []string{"s"}, Usage: "scenario directory (CSV), .yaml or .json file", Required: true},
		&cli.IntFlag{Name: "horizon", Usage: "days to simulate or plan (overrides the scenario)"},
		&cli.Int64Flag{Name: "capacity", Usage: "storage capacity per 4-day window (overrides the scenario)"},
		&cli.StringFlag{Name: "format", Value: "text", Usage: "output format: text, json, csv"},
		&cli.StringFlag{Name: "output", Usage: "output directory for results"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable verbose output"},
		&cli.BoolFlag{Name: "save", Usage: "persist the result to the run store"},
	}
}

func optimizerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "granularity", Usage: "daily or cycle (default from PERISHABLE_GRANULARITY)"},
		&cli.IntFlag{Name: "holding-days", Usage: "days of holding cost charged per unit in the margin"},
		&cli.DurationFlag{Name: "timeout", Usage: "solver timeout"},
	}
}

func commandConfig(c *cli.Context, a *app) commands.Config {
	granularity := c.String("granularity")
	if granularity == "" {
		granularity = a.cfg.Planning.Granularity
	}
	return commands.Config{
		Scenario:       c.String("scenario"),
		Horizon:        c.Int("horizon"),
		Capacity:       c.Int64("capacity"),
		DefaultHorizon: a.cfg.Planning.Horizon,
		TransportRate:  &a.cfg.Planning.TransportRate,
		Granularity:    granularity,
		HoldingDays:    c.Int("holding-days"),
		Timeout:        c.Duration("timeout"),
		BoundBySales:   c.Bool("bound-by-sales"),
		Format:         c.String("format"),
		OutputDir:      c.String("output"),
		Verbose:        c.Bool("verbose"),
		Save:           c.Bool("save"),
		Out:            c.App.Writer,
	}
}

func withApp(run func(c *cli.Context, a *app) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.close()
		return run(c, a)
	}
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "run the scenario's production plan through the allocation engine",
		Flags: scenarioFlags(),
		Action: withApp(func(c *cli.Context, a *app) error {
			return commands.NewPlanningCommand(commandConfig(c, a), a.planner).Simulate(c.Context)
		}),
	}
}

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "recommend production quantities under storage capacity",
		Flags: append(scenarioFlags(), optimizerFlags()...),
		Action: withApp(func(c *cli.Context, a *app) error {
			return commands.NewPlanningCommand(commandConfig(c, a), a.planner).Optimize(c.Context)
		}),
	}
}

func compareCommand() *cli.Command {
	flags := append(scenarioFlags(), optimizerFlags()...)
	flags = append(flags, &cli.BoolFlag{Name: "bound-by-sales", Usage: "cap optimized production at the baseline's best daily sale"})
	return &cli.Command{
		Name:  "compare",
		Usage: "simulate the configured and the optimized plans side by side",
		Flags: flags,
		Action: withApp(func(c *cli.Context, a *app) error {
			return commands.NewPlanningCommand(commandConfig(c, a), a.planner).Compare(c.Context)
		}),
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the planning API and run the scheduled comparison",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "HTTP port (overrides PERISHABLE_HTTP_PORT)"},
		},
		Action: withApp(serve),
	}
}

func serve(c *cli.Context, a *app) error {
	port := c.String("port")
	if port == "" {
		port = a.cfg.Server.Port
	}

	gin.SetMode(gin.ReleaseMode)
	handler := httpapi.NewHandler(a.planner, httpapi.Defaults{
		Horizon:       a.cfg.Planning.Horizon,
		Capacity:      a.cfg.Planning.Capacity,
		Granularity:   dto.Granularity(a.cfg.Planning.Granularity),
		HoldingDays:   a.cfg.Planning.HoldingDays,
		Timeout:       a.cfg.Planning.SolverTimeout,
		MaxTimeout:    a.cfg.Planning.MaxSolverTimeout,
		TransportRate: &a.cfg.Planning.TransportRate,
	}, a.logger.Named("handlers"))
	engine := httpapi.NewRouter(handler, a.metrics, a.logger.Named("router"))

	if a.cfg.Schedule.Cron != "" {
		path := a.cfg.Schedule.Scenario
		defaults := commands.ScenarioDefaults{Horizon: a.cfg.Planning.Horizon, TransportRate: &a.cfg.Planning.TransportRate}
		sched := scheduler.NewScheduler(scheduler.Config{
			Spec:        a.cfg.Schedule.Cron,
			Granularity: dto.Granularity(a.cfg.Planning.Granularity),
			HoldingDays: a.cfg.Planning.HoldingDays,
		}, a.planner, func() (*entities.Scenario, error) {
			return commands.LoadScenario(path, defaults)
		}, a.logger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: a.cfg.Planning.MaxSolverTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}
