package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/radonledger/internal/cuts"
	"github.com/mesh-intelligence/radonledger/internal/events"
	"github.com/mesh-intelligence/radonledger/internal/ledger"
	"github.com/mesh-intelligence/radonledger/internal/physics"
	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// Simulation measures the selection efficiency of one simulation file.
type Simulation struct {
	cfg     types.Config
	sim     types.SimulationConfig
	runner  cuts.Runner
	counter events.Counter
	ledger  *ledger.Ledger
	logger  *zap.Logger
}

// NewSimulation builds the simulation pipeline. The alias defaults to the
// input's base name.
func NewSimulation(cfg types.Config, runner cuts.Runner, counter events.Counter, logger *zap.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sim := cfg.Simulation
	if sim.Input == "" || sim.Output == "" {
		return nil, fmt.Errorf("%w: simulation.input and simulation.output are required", types.ErrConfigInvalid)
	}
	if sim.TotalEvents < 0 {
		return nil, fmt.Errorf("%w: simulation.total_events must not be negative", types.ErrConfigInvalid)
	}
	if sim.Alias == "" {
		sim.Alias = filepath.Base(sim.Input)
	}
	l, err := ledger.Open(cfg.Ledgers.Efficiency, types.EfficiencySchema())
	if err != nil {
		return nil, fmt.Errorf("efficiency ledger: %w", err)
	}
	return &Simulation{cfg: cfg, sim: sim, runner: runner, counter: counter, ledger: l, logger: nopIfNil(logger)}, nil
}

// Ledger returns the ledger the pipeline writes.
func (s *Simulation) Ledger() *ledger.Ledger { return s.ledger }

// Run applies the cuts to the simulation and upserts its efficiency, keyed
// by alias.
func (s *Simulation) Run(ctx context.Context) (*Report, error) {
	report := newReport("simulation")
	log := s.logger.With(zap.String("batch", report.ID), zap.String("pipeline", report.Pipeline))
	log.Info("starting batch", zap.String("input", s.sim.Input), zap.String("alias", s.sim.Alias))

	err := runBatch(ctx, report, s.cfg.FailurePolicy, log, 1, func(ctx context.Context, _ int) Result {
		return s.process(ctx)
	})
	log.Info("batch finished", zap.Int("succeeded", report.Succeeded()), zap.Int("failed", len(report.Failed())))
	return report, err
}

func (s *Simulation) process(ctx context.Context) Result {
	res := Result{Key: s.sim.Alias, Input: s.sim.Input}

	total := s.sim.TotalEvents
	if total == 0 {
		n, err := s.counter.Count(s.sim.Input)
		if err != nil {
			return res.fail(StageCount, err)
		}
		total = n
	}

	if _, err := s.runner.Apply(ctx, cuts.Job{Input: s.sim.Input, Output: s.sim.Output}); err != nil {
		return res.fail(StageCuts, err)
	}
	selected, err := s.counter.Count(s.sim.Output)
	if err != nil {
		return res.fail(StageCount, err)
	}

	eff, err := physics.Efficiency(total, selected)
	if err != nil {
		return res.fail(StageCalculate, err)
	}

	rec := types.EfficiencyRow{
		Simulation: s.sim.Alias,
		Total:      total,
		Selected:   selected,
		Efficiency: eff,
	}.Record()
	if err := s.ledger.Upsert(rec); err != nil {
		return res.fail(StageLedger, err)
	}
	return res
}
