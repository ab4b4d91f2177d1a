package types

// Run phases. A run outside every configured phase range is unidentified.
const (
	PhaseInjection     = 0
	PhasePostInjection = 1
	PhaseUnidentified  = 2
)

// RunInfo is one row of a run metadata table.
type RunInfo struct {
	Run      int
	Start    float64 // Unix seconds.
	Duration float64 // Seconds.
	Stop     float64
	Comment  string
}

// Midrun returns the Unix time halfway through the run.
func (r RunInfo) Midrun() float64 {
	return r.Start + 0.5*r.Duration
}

// Measurement is one row of the measurement ledger.
type Measurement struct {
	Run      int
	Midrun   float64
	Duration float64
	Phase    int
	NBefore  int64
	NAfter   int64
	CutFile  string
	Activity Estimate
}

// Record formats m in MeasurementSchema column order.
func (m Measurement) Record() Record {
	return Record{
		FormatInt(int64(m.Run)),
		FormatFloat(m.Midrun),
		FormatFloat(m.Duration),
		FormatInt(int64(m.Phase)),
		FormatInt(m.NBefore),
		FormatInt(m.NAfter),
		m.CutFile,
		FormatFloat(m.Activity.Value),
		FormatFloat(m.Activity.Uncertainty),
	}
}

// EfficiencyRow is one row of the efficiency ledger.
type EfficiencyRow struct {
	Simulation string
	Total      int64
	Selected   int64
	Efficiency Estimate
}

// Record formats e in EfficiencySchema column order.
func (e EfficiencyRow) Record() Record {
	return Record{
		e.Simulation,
		FormatInt(e.Total),
		FormatInt(e.Selected),
		FormatFloat(e.Efficiency.Value),
		FormatFloat(e.Efficiency.Uncertainty),
	}
}

// SweepRow is an efficiency row keyed by the threshold that produced it.
type SweepRow struct {
	Threshold string
	EfficiencyRow
}

// Record formats s in SweepSchema column order.
func (s SweepRow) Record() Record {
	return append(Record{s.Threshold}, s.EfficiencyRow.Record()...)
}
