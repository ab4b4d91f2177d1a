// Package pipeline runs batches of records through cuts, counting, the
// derived-quantity calculation and the ledger upsert.
//
// Records are processed one at a time. Each yields a Result; the failure
// policy decides whether a failed record stops the batch (abort) or is logged
// and passed over (skip). Ledgers keyed by a numeric column are sorted once
// the batch is over.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/radonledger/internal/ledger"
	"github.com/mesh-intelligence/radonledger/internal/physics"
	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// RunLookup resolves run metadata.
type RunLookup interface {
	Lookup(run int) (types.RunInfo, error)
}

// runBatch calls step for each of n records and applies the failure policy.
// The returned error is non-nil only when the batch stopped early.
func runBatch(ctx context.Context, report *Report, policy string, logger *zap.Logger, n int, step func(ctx context.Context, i int) Result) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("batch %s cancelled after %d records: %w", report.ID, i, err)
		}
		res := step(ctx, i)
		report.Results = append(report.Results, res)
		if res.OK() {
			logger.Info("record written", zap.String("key", res.Key), zap.String("input", res.Input))
			continue
		}
		fields := []zap.Field{
			zap.String("key", res.Key),
			zap.String("input", res.Input),
			zap.String("stage", string(res.Stage)),
			zap.Error(res.Err),
		}
		if policy == types.PolicySkip {
			logger.Warn("record failed, skipping", fields...)
			continue
		}
		logger.Error("record failed, aborting batch", fields...)
		return fmt.Errorf("batch aborted at %s (%s stage): %w", res.Key, res.Stage, res.Err)
	}
	return nil
}

// sortAfter sorts l and joins any failure onto err.
func sortAfter(l *ledger.Ledger, report *Report, logger *zap.Logger, err error) error {
	if sortErr := l.Sort(); sortErr != nil {
		return errors.Join(err, fmt.Errorf("sorting %s: %w", l.Path(), sortErr))
	}
	report.Sorted = true
	logger.Debug("ledger sorted", zap.String("ledger", l.Path()))
	return err
}

// MeanEfficiency averages the efficiency columns of an efficiency ledger.
func MeanEfficiency(l *ledger.Ledger) (types.Estimate, error) {
	effs, err := l.Column(types.ColEfficiency)
	if err != nil {
		return types.Estimate{}, err
	}
	uncs, err := l.Column(types.ColEfficiencyUnc)
	if err != nil {
		return types.Estimate{}, err
	}
	est, err := physics.MeanEfficiency(effs, uncs)
	if err != nil {
		return types.Estimate{}, fmt.Errorf("mean efficiency from %s: %w", l.Path(), err)
	}
	return est, nil
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
