package types

import (
	"math"
	"strconv"
)

// Record is one ledger row: formatted scalar fields in header order.
type Record []string

// Clone returns a copy of r that shares no storage with it.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// Estimate is a derived measurement: a point estimate and its uncertainty.
type Estimate struct {
	Value       float64 `json:"value" yaml:"value"`
	Uncertainty float64 `json:"uncertainty" yaml:"uncertainty"`
}

// FormatFloat formats v with the fewest digits that parse back to v.
// Plain notation is used between 1e-4 and 1e16, exponent notation outside.
func FormatFloat(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatInt formats an integer field.
func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// ParseFloat parses a numeric ledger field.
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
