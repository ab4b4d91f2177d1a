package types

import (
	"fmt"
	"time"
)

// Failure policies for batch pipelines.
const (
	PolicyAbort = "abort"
	PolicySkip  = "skip"
)

// Defaults used by DefaultConfig.
const (
	DefaultCutCommand        = "root -l -b -q"
	DefaultTree              = "Result_tree"
	DefaultDetectorVolume    = 15.4 // m^3
	DefaultTolerance         = 0.1
	DefaultActivityScale     = 1000 // Bq to mBq.
	DefaultSimulationEvents  = 100000000
	DefaultSweepDecimals     = 2
	DefaultMeasurementLedger = "real_data_summary.csv"
	DefaultEfficiencyLedger  = "simulation_summary.csv"
	DefaultSweepLedger       = "cut_optimisation.csv"
)

// Config enumerates every path and constant a pipeline run needs.
type Config struct {
	DataDir       string           `mapstructure:"data_dir" yaml:"data_dir"`
	CutDataDir    string           `mapstructure:"cut_data_dir" yaml:"cut_data_dir"`
	MetadataFiles []string         `mapstructure:"metadata_files" yaml:"metadata_files"`
	CutMacro      string           `mapstructure:"cut_macro" yaml:"cut_macro"`
	CutCommand    string           `mapstructure:"cut_command" yaml:"cut_command"`
	CutTimeout    time.Duration    `mapstructure:"cut_timeout" yaml:"cut_timeout"`
	Tree          string           `mapstructure:"tree" yaml:"tree"`
	FailurePolicy string           `mapstructure:"failure_policy" yaml:"failure_policy"`
	Ledgers       LedgerPaths      `mapstructure:"ledgers" yaml:"ledgers"`
	Detector      DetectorConfig   `mapstructure:"detector" yaml:"detector"`
	Phases        []PhaseRange     `mapstructure:"phases" yaml:"phases"`
	Simulation    SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	Sweep         SweepConfig      `mapstructure:"sweep" yaml:"sweep"`
}

// LedgerPaths locates the three ledgers.
type LedgerPaths struct {
	Measurement string `mapstructure:"measurement" yaml:"measurement"`
	Efficiency  string `mapstructure:"efficiency" yaml:"efficiency"`
	Sweep       string `mapstructure:"sweep" yaml:"sweep"`
}

// DetectorConfig holds the constants of the activity calculation.
type DetectorConfig struct {
	Volume            float64 `mapstructure:"volume" yaml:"volume"`
	VolumeTolerance   float64 `mapstructure:"volume_tolerance" yaml:"volume_tolerance"`
	DurationTolerance float64 `mapstructure:"duration_tolerance" yaml:"duration_tolerance"`
	ActivityScale     float64 `mapstructure:"activity_scale" yaml:"activity_scale"`
}

// PhaseRange assigns Phase to runs First..Last inclusive.
type PhaseRange struct {
	Phase int    `mapstructure:"phase" yaml:"phase"`
	First int    `mapstructure:"first" yaml:"first"`
	Last  int    `mapstructure:"last" yaml:"last"`
	Label string `mapstructure:"label" yaml:"label,omitempty"`
}

// SimulationConfig describes the single-simulation efficiency run.
// TotalEvents of zero means the input tree is counted instead.
type SimulationConfig struct {
	Input       string `mapstructure:"input" yaml:"input"`
	Output      string `mapstructure:"output" yaml:"output"`
	Alias       string `mapstructure:"alias" yaml:"alias"`
	TotalEvents int64  `mapstructure:"total_events" yaml:"total_events"`
}

// SweepConfig describes a threshold sweep over one cut.
type SweepConfig struct {
	Input       string  `mapstructure:"input" yaml:"input"`
	Alias       string  `mapstructure:"alias" yaml:"alias"`
	OutputDir   string  `mapstructure:"output_dir" yaml:"output_dir"`
	CutNumber   int     `mapstructure:"cut_number" yaml:"cut_number"`
	KeyColumn   string  `mapstructure:"key_column" yaml:"key_column"`
	Decimals    int     `mapstructure:"decimals" yaml:"decimals"`
	Start       float64 `mapstructure:"start" yaml:"start"`
	Stop        float64 `mapstructure:"stop" yaml:"stop"`
	Step        float64 `mapstructure:"step" yaml:"step"`
	TotalEvents int64   `mapstructure:"total_events" yaml:"total_events"`
}

// DefaultPhases returns the radon injection and post-injection run ranges.
func DefaultPhases() []PhaseRange {
	return []PhaseRange{
		{Phase: PhaseInjection, First: 1546, Last: 1798, Label: "radon injection"},
		{Phase: PhasePostInjection, First: 2000, Last: 2672, Label: "post-injection"},
	}
}

// DefaultConfig returns a Config with every constant set. Paths are
// relative to the working directory.
func DefaultConfig() Config {
	return Config{
		DataDir:       "data",
		CutDataDir:    "cut_data",
		CutCommand:    DefaultCutCommand,
		Tree:          DefaultTree,
		FailurePolicy: PolicyAbort,
		Ledgers: LedgerPaths{
			Measurement: DefaultMeasurementLedger,
			Efficiency:  DefaultEfficiencyLedger,
			Sweep:       DefaultSweepLedger,
		},
		Detector: DetectorConfig{
			Volume:            DefaultDetectorVolume,
			VolumeTolerance:   DefaultTolerance,
			DurationTolerance: DefaultTolerance,
			ActivityScale:     DefaultActivityScale,
		},
		Phases: DefaultPhases(),
		Simulation: SimulationConfig{
			TotalEvents: DefaultSimulationEvents,
		},
		Sweep: SweepConfig{
			OutputDir: "cut_simulations",
			KeyColumn: ColThreshold,
			Decimals:  DefaultSweepDecimals,
		},
	}
}

// Validate checks the constants every pipeline relies on. Paths specific
// to one pipeline are checked when that pipeline is built.
func (c Config) Validate() error {
	switch c.FailurePolicy {
	case PolicyAbort, PolicySkip:
	default:
		return fmt.Errorf("%w: failure_policy %q (want %s or %s)", ErrConfigInvalid, c.FailurePolicy, PolicyAbort, PolicySkip)
	}
	if c.CutCommand == "" {
		return fmt.Errorf("%w: cut_command is empty", ErrConfigInvalid)
	}
	if c.Tree == "" {
		return fmt.Errorf("%w: tree is empty", ErrConfigInvalid)
	}
	if c.CutTimeout < 0 {
		return fmt.Errorf("%w: cut_timeout must not be negative", ErrConfigInvalid)
	}
	if c.Detector.Volume <= 0 {
		return fmt.Errorf("%w: detector.volume must be positive", ErrConfigInvalid)
	}
	if c.Detector.ActivityScale <= 0 {
		return fmt.Errorf("%w: detector.activity_scale must be positive", ErrConfigInvalid)
	}
	if c.Detector.VolumeTolerance < 0 || c.Detector.DurationTolerance < 0 {
		return fmt.Errorf("%w: detector tolerances must not be negative", ErrConfigInvalid)
	}
	for _, p := range c.Phases {
		if p.First > p.Last {
			return fmt.Errorf("%w: phase %d range %d..%d is reversed", ErrConfigInvalid, p.Phase, p.First, p.Last)
		}
	}
	if c.Sweep.Decimals < 0 {
		return fmt.Errorf("%w: sweep.decimals must not be negative", ErrConfigInvalid)
	}
	return nil
}
