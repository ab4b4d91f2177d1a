package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/radonledger/internal/cuts"
	"github.com/mesh-intelligence/radonledger/internal/events"
	"github.com/mesh-intelligence/radonledger/internal/ledger"
	"github.com/mesh-intelligence/radonledger/internal/metadata"
	"github.com/mesh-intelligence/radonledger/internal/physics"
	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// Measurement turns detector runs into rows of the measurement ledger.
type Measurement struct {
	cfg        types.Config
	runs       RunLookup
	runner     cuts.Runner
	counter    events.Counter
	ledger     *ledger.Ledger
	efficiency *ledger.Ledger
	logger     *zap.Logger
}

// NewMeasurement builds the measurement pipeline.
func NewMeasurement(cfg types.Config, runs RunLookup, runner cuts.Runner, counter events.Counter, logger *zap.Logger) (*Measurement, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out, err := ledger.Open(cfg.Ledgers.Measurement, types.MeasurementSchema())
	if err != nil {
		return nil, fmt.Errorf("measurement ledger: %w", err)
	}
	eff, err := ledger.Open(cfg.Ledgers.Efficiency, types.EfficiencySchema())
	if err != nil {
		return nil, fmt.Errorf("efficiency ledger: %w", err)
	}
	return &Measurement{
		cfg:        cfg,
		runs:       runs,
		runner:     runner,
		counter:    counter,
		ledger:     out,
		efficiency: eff,
		logger:     nopIfNil(logger),
	}, nil
}

// Ledger returns the ledger the pipeline writes.
func (m *Measurement) Ledger() *ledger.Ledger { return m.ledger }

// Run processes inputs in order and sorts the ledger by run afterwards.
// The mean efficiency is read from the efficiency ledger once, before the
// first record.
func (m *Measurement) Run(ctx context.Context, inputs []string) (*Report, error) {
	eff, err := MeanEfficiency(m.efficiency)
	if err != nil {
		return nil, err
	}

	report := newReport("measurement")
	log := m.logger.With(zap.String("batch", report.ID), zap.String("pipeline", report.Pipeline))
	log.Info("starting batch",
		zap.Int("inputs", len(inputs)),
		zap.Float64("efficiency", eff.Value),
		zap.Float64("efficiency_uncertainty", eff.Uncertainty))

	err = runBatch(ctx, report, m.cfg.FailurePolicy, log, len(inputs), func(ctx context.Context, i int) Result {
		return m.process(ctx, inputs[i], eff, log)
	})
	err = sortAfter(m.ledger, report, log, err)
	log.Info("batch finished", zap.Int("succeeded", report.Succeeded()), zap.Int("failed", len(report.Failed())))
	return report, err
}

func (m *Measurement) process(ctx context.Context, input string, eff types.Estimate, log *zap.Logger) Result {
	res := Result{Input: input, Key: filepath.Base(input)}

	run, err := metadata.RunNumber(input)
	if err != nil {
		return res.fail(StageMetadata, err)
	}
	res.Key = strconv.Itoa(run)

	info, err := m.runs.Lookup(run)
	if err != nil {
		return res.fail(StageMetadata, err)
	}
	phase, ok := metadata.Classify(run, m.cfg.Phases)
	if !ok {
		log.Warn("phase not identified", zap.Int("run", run), zap.Int("phase", phase))
	}

	nBefore, err := m.counter.Count(input)
	if err != nil {
		return res.fail(StageCount, err)
	}

	cutName := cuts.OutputName(input)
	out := filepath.Join(m.cfg.CutDataDir, cutName)
	if _, err := m.runner.Apply(ctx, cuts.Job{Input: input, Output: out}); err != nil {
		return res.fail(StageCuts, err)
	}

	nAfter, err := m.counter.Count(out)
	if err != nil {
		return res.fail(StageCount, err)
	}

	activity, err := physics.Activity(physics.ActivityInput{
		NOrig:             nBefore,
		NCut:              nAfter,
		Duration:          info.Duration,
		Volume:            m.cfg.Detector.Volume,
		Efficiency:        eff,
		Scale:             m.cfg.Detector.ActivityScale,
		DurationTolerance: m.cfg.Detector.DurationTolerance,
		VolumeTolerance:   m.cfg.Detector.VolumeTolerance,
	})
	if err != nil {
		return res.fail(StageCalculate, err)
	}

	rec := types.Measurement{
		Run:      run,
		Midrun:   info.Midrun(),
		Duration: info.Duration,
		Phase:    phase,
		NBefore:  nBefore,
		NAfter:   nAfter,
		CutFile:  cutName,
		Activity: activity,
	}.Record()
	if err := m.ledger.Upsert(rec); err != nil {
		return res.fail(StageLedger, err)
	}
	return res
}

// Inputs lists the .root files directly inside dir, in name order.
func Inputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".root") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
