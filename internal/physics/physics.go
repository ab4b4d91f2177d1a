// Package physics computes the derived quantities written to the ledgers:
// radon activity from cut event counts and selection efficiency from
// simulation counts, each with a propagated uncertainty.
//
// All functions are pure. Inputs that would divide by zero or yield NaN fail
// with types.ErrDomain.
package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// sqrt12 converts the full width of a uniform distribution to its standard
// deviation: sigma = width / sqrt(12) = half-width / sqrt(3).
var sqrt12 = 2 * math.Sqrt(3)

// ActivityInput holds everything Activity needs.
type ActivityInput struct {
	NOrig      int64          // Events before cuts.
	NCut       int64          // Events after cuts.
	Duration   float64        // Observation time, seconds.
	Volume     float64        // Detector volume, m^3.
	Efficiency types.Estimate // Mean selection efficiency.

	// Scale converts the rate to the reported unit (1000 for mBq/m^3).
	Scale float64

	// Calibration tolerances of the duration and volume, treated as the
	// widths of uniform distributions.
	DurationTolerance float64
	VolumeTolerance   float64
}

// Activity returns Scale*NCut/(Duration*Volume*Efficiency) and its
// uncertainty. The relative variance is the sum of the Poisson term 1/NOrig,
// the relative efficiency variance and the uniform calibration terms for the
// duration and the volume.
func Activity(in ActivityInput) (types.Estimate, error) {
	switch {
	case in.Duration <= 0:
		return types.Estimate{}, fmt.Errorf("%w: duration must be positive, got %g", types.ErrDomain, in.Duration)
	case in.Volume <= 0:
		return types.Estimate{}, fmt.Errorf("%w: volume must be positive, got %g", types.ErrDomain, in.Volume)
	case in.Efficiency.Value <= 0:
		return types.Estimate{}, fmt.Errorf("%w: efficiency must be positive, got %g", types.ErrDomain, in.Efficiency.Value)
	case in.NOrig <= 0:
		return types.Estimate{}, fmt.Errorf("%w: event count before cuts must be positive, got %d", types.ErrDomain, in.NOrig)
	case in.NCut < 0:
		return types.Estimate{}, fmt.Errorf("%w: event count after cuts is negative: %d", types.ErrDomain, in.NCut)
	}

	a := in.Scale * float64(in.NCut) / (in.Duration * in.Volume * in.Efficiency.Value)

	relEff := in.Efficiency.Uncertainty / in.Efficiency.Value
	relVar := 1/float64(in.NOrig) +
		relEff*relEff +
		square(UniformSigma(in.DurationTolerance, in.Duration)) +
		square(UniformSigma(in.VolumeTolerance, in.Volume))

	return types.Estimate{Value: a, Uncertainty: a * math.Sqrt(relVar)}, nil
}

// Efficiency returns NCut/NOrig with the binomial uncertainty
// sqrt(eff*(1-eff)/NOrig).
func Efficiency(nOrig, nCut int64) (types.Estimate, error) {
	if nOrig <= 0 {
		return types.Estimate{}, fmt.Errorf("%w: total events must be positive, got %d", types.ErrDomain, nOrig)
	}
	if nCut < 0 || nCut > nOrig {
		return types.Estimate{}, fmt.Errorf("%w: selected events %d outside [0, %d]", types.ErrDomain, nCut, nOrig)
	}
	eff := float64(nCut) / float64(nOrig)
	return types.Estimate{
		Value:       eff,
		Uncertainty: math.Sqrt(eff * (1 - eff) / float64(nOrig)),
	}, nil
}

// MeanEfficiency averages the efficiency and uncertainty columns of an
// efficiency ledger.
func MeanEfficiency(effs, uncs []float64) (types.Estimate, error) {
	if len(effs) == 0 {
		return types.Estimate{}, fmt.Errorf("%w: no efficiency values", types.ErrDomain)
	}
	if len(effs) != len(uncs) {
		return types.Estimate{}, fmt.Errorf("%w: %d efficiencies but %d uncertainties", types.ErrDomain, len(effs), len(uncs))
	}
	return types.Estimate{
		Value:       stat.Mean(effs, nil),
		Uncertainty: stat.Mean(uncs, nil),
	}, nil
}

// UniformSigma returns the relative standard deviation of a quantity of the
// given value whose calibration is known to within a uniform tolerance.
func UniformSigma(tolerance, value float64) float64 {
	return tolerance / (sqrt12 * value)
}

func square(x float64) float64 { return x * x }
