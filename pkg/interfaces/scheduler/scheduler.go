package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vsinha/perishable/pkg/application/dto"
	"github.com/vsinha/perishable/pkg/application/services/orchestration"
	"github.com/vsinha/perishable/pkg/domain/entities"
)

// ScenarioLoader loads the scenario a scheduled comparison runs against
type ScenarioLoader func() (*entities.Scenario, error)

// Config describes the scheduled comparison job
type Config struct {
	// Spec is a standard five field cron expression or a descriptor such as "@daily"
	Spec        string
	Granularity dto.Granularity
	HoldingDays int
	// JobTimeout bounds one comparison run
	JobTimeout time.Duration
}

// Scheduler periodically re-plans a scenario and stores the comparison
type Scheduler struct {
	cron    *cron.Cron
	config  Config
	planner *orchestration.Planner
	load    ScenarioLoader
	logger  *zap.Logger
}

// NewScheduler creates a scheduler. The cron expression is validated by Start.
func NewScheduler(config Config, planner *orchestration.Planner, load ScenarioLoader, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 2 * time.Minute
	}
	return &Scheduler{
		cron:    cron.New(),
		config:  config,
		planner: planner,
		load:    load,
		logger:  logger,
	}
}

// Start registers the comparison job and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.config.Spec, s.replan); err != nil {
		return fmt.Errorf("failed to schedule comparison %q: %w", s.config.Spec, err)
	}
	s.logger.Info("starting scheduler", zap.String("spec", s.config.Spec))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) replan() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled comparison failed", zap.Error(err))
	}
}

// RunOnce loads the scenario, compares the configured and optimized plans and stores the result
func (s *Scheduler) RunOnce(ctx context.Context) (*entities.RunRecord, error) {
	s.logger.Info("running scheduled comparison")
	scenario, err := s.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}

	result, err := s.planner.Compare(ctx, orchestration.CompareRequest{
		Scenario:    scenario,
		Granularity: s.config.Granularity,
		HoldingDays: s.config.HoldingDays,
	})
	if err != nil {
		return nil, err
	}

	record, err := s.planner.Save(ctx, entities.RunKindComparison, scenario.Name, result)
	if err != nil {
		return nil, err
	}
	fields := []zap.Field{
		zap.String("scenario", scenario.Name),
		zap.String("profit_delta", result.ProfitDelta.String()),
	}
	if record != nil {
		fields = append(fields, zap.String("run_id", record.ID))
	}
	s.logger.Info("scheduled comparison stored", fields...)
	return record, nil
}
