package pipeline

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/radonledger/internal/cuts"
	"github.com/mesh-intelligence/radonledger/internal/events"
	"github.com/mesh-intelligence/radonledger/internal/ledger"
	"github.com/mesh-intelligence/radonledger/internal/physics"
	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// maxThresholds caps the length of a generated threshold range.
const maxThresholds = 10000

// rangeTolerance is the fraction of a step by which stop may fall short of
// the last generated value and still be included.
const rangeTolerance = 1e-9

// Thresholds returns start, start+step, ... up to and including stop. No
// value exceeds stop by more than float rounding.
func Thresholds(start, stop, step float64) ([]float64, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: sweep step must be positive, got %g", types.ErrConfigInvalid, step)
	}
	if stop < start {
		return nil, fmt.Errorf("%w: sweep stop %g is below start %g", types.ErrConfigInvalid, stop, start)
	}
	n := math.Floor((stop-start)/step+rangeTolerance) + 1
	if n > maxThresholds {
		return nil, fmt.Errorf("%w: sweep would run %.0f thresholds (max %d)", types.ErrConfigInvalid, n, maxThresholds)
	}
	out := make([]float64, int(n))
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out, nil
}

// Sweep measures the efficiency of one simulation at a series of thresholds
// of a single cut.
type Sweep struct {
	cfg     types.Config
	sweep   types.SweepConfig
	runner  cuts.Runner
	counter events.Counter
	ledger  *ledger.Ledger
	logger  *zap.Logger
}

// NewSweep builds the sweep pipeline.
func NewSweep(cfg types.Config, runner cuts.Runner, counter events.Counter, logger *zap.Logger) (*Sweep, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sw := cfg.Sweep
	if sw.Input == "" {
		return nil, fmt.Errorf("%w: sweep.input is required", types.ErrConfigInvalid)
	}
	if sw.TotalEvents < 0 {
		return nil, fmt.Errorf("%w: sweep.total_events must not be negative", types.ErrConfigInvalid)
	}
	if sw.Alias == "" {
		sw.Alias = filepath.Base(sw.Input)
	}
	l, err := ledger.Open(cfg.Ledgers.Sweep, types.SweepSchema(sw.KeyColumn))
	if err != nil {
		return nil, fmt.Errorf("sweep ledger: %w", err)
	}
	return &Sweep{cfg: cfg, sweep: sw, runner: runner, counter: counter, ledger: l, logger: nopIfNil(logger)}, nil
}

// Ledger returns the ledger the pipeline writes.
func (s *Sweep) Ledger() *ledger.Ledger { return s.ledger }

// Run cuts the simulation once per threshold and sorts the ledger by
// threshold afterwards. The uncut event count is taken once, up front.
func (s *Sweep) Run(ctx context.Context, thresholds []float64) (*Report, error) {
	total := s.sweep.TotalEvents
	if total == 0 {
		n, err := s.counter.Count(s.sweep.Input)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", s.sweep.Input, err)
		}
		total = n
	}

	report := newReport("sweep")
	log := s.logger.With(zap.String("batch", report.ID), zap.String("pipeline", report.Pipeline))
	log.Info("starting batch",
		zap.Int("cut", s.sweep.CutNumber),
		zap.Int("thresholds", len(thresholds)),
		zap.Int64("total_events", total))

	err := runBatch(ctx, report, s.cfg.FailurePolicy, log, len(thresholds), func(ctx context.Context, i int) Result {
		return s.process(ctx, thresholds[i], total)
	})
	err = sortAfter(s.ledger, report, log, err)
	log.Info("batch finished", zap.Int("succeeded", report.Succeeded()), zap.Int("failed", len(report.Failed())))
	return report, err
}

func (s *Sweep) process(ctx context.Context, threshold float64, total int64) Result {
	dec := s.sweep.Decimals
	label := cuts.ThresholdLabel(threshold, dec)
	out := filepath.Join(s.sweep.OutputDir, cuts.SweepName(s.sweep.CutNumber, threshold, dec, s.sweep.Alias))
	res := Result{Key: label, Input: s.sweep.Input}

	rounded := cuts.Round(threshold, dec)
	if _, err := s.runner.Apply(ctx, cuts.Job{Input: s.sweep.Input, Output: out, Threshold: &rounded}); err != nil {
		return res.fail(StageCuts, err)
	}
	selected, err := s.counter.Count(out)
	if err != nil {
		return res.fail(StageCount, err)
	}
	eff, err := physics.Efficiency(total, selected)
	if err != nil {
		return res.fail(StageCalculate, err)
	}

	rec := types.SweepRow{
		Threshold: label,
		EfficiencyRow: types.EfficiencyRow{
			Simulation: s.sweep.Alias,
			Total:      total,
			Selected:   selected,
			Efficiency: eff,
		},
	}.Record()
	if err := s.ledger.Upsert(rec); err != nil {
		return res.fail(StageLedger, err)
	}
	return res
}
