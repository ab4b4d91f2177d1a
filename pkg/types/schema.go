package types

import (
	"fmt"
	"slices"
)

// Schema fixes the column set, column order and key column of a ledger.
type Schema struct {
	Name     string   `json:"name"`
	Columns  []string `json:"columns"`
	KeyIndex int      `json:"key_index"`
}

// Standard ledger column names.
const (
	ColRun            = "run"
	ColMidrunTime     = "midrun_time"
	ColDuration       = "duration"
	ColPhase          = "phase"
	ColBeforeCut      = "n_before_cut"
	ColAfterCut       = "n_after_cut"
	ColCutArtifact    = "cut_artifact_name"
	ColEstimate       = "estimate"
	ColUncertainty    = "uncertainty"
	ColSimulation     = "simulation_identifier"
	ColTotalEvents    = "total_events"
	ColSelectedEvents = "selected_events"
	ColEfficiency     = "efficiency"
	ColEfficiencyUnc  = "efficiency_uncertainty"
	ColThreshold      = "threshold_value"
)

// MeasurementSchema is the schema of the per-run activity ledger.
func MeasurementSchema() Schema {
	return Schema{
		Name: "measurement",
		Columns: []string{
			ColRun, ColMidrunTime, ColDuration, ColPhase, ColBeforeCut,
			ColAfterCut, ColCutArtifact, ColEstimate, ColUncertainty,
		},
		KeyIndex: 0,
	}
}

// EfficiencySchema is the schema of the simulation efficiency ledger.
func EfficiencySchema() Schema {
	return Schema{
		Name: "efficiency",
		Columns: []string{
			ColSimulation, ColTotalEvents, ColSelectedEvents, ColEfficiency, ColEfficiencyUnc,
		},
		KeyIndex: 0,
	}
}

// SweepSchema is the efficiency schema prefixed with a threshold key column.
// An empty keyColumn uses ColThreshold.
func SweepSchema(keyColumn string) Schema {
	if keyColumn == "" {
		keyColumn = ColThreshold
	}
	eff := EfficiencySchema()
	return Schema{
		Name:     "sweep",
		Columns:  append([]string{keyColumn}, eff.Columns...),
		KeyIndex: 0,
	}
}

// Validate checks that the schema has columns, no duplicates and a key
// column within range.
func (s Schema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidSchema)
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c == "" {
			return fmt.Errorf("%w: empty column name", ErrInvalidSchema)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, c)
		}
		seen[c] = true
	}
	if s.KeyIndex < 0 || s.KeyIndex >= len(s.Columns) {
		return fmt.Errorf("%w: key index %d out of range", ErrInvalidSchema, s.KeyIndex)
	}
	return nil
}

// KeyColumn returns the name of the key column.
func (s Schema) KeyColumn() string {
	return s.Columns[s.KeyIndex]
}

// Index returns the position of column name.
// Returns ErrUnknownColumn if the schema has no such column.
func (s Schema) Index(name string) (int, error) {
	i := slices.Index(s.Columns, name)
	if i < 0 {
		return -1, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return i, nil
}
