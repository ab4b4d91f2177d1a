package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Stage names the step of a record that failed.
type Stage string

// Record stages, in pipeline order.
const (
	StageMetadata  Stage = "metadata"
	StageCount     Stage = "count"
	StageCuts      Stage = "cuts"
	StageCalculate Stage = "calculate"
	StageLedger    Stage = "ledger"
)

// Result is the outcome of one record of a batch.
type Result struct {
	Key   string `json:"key"`
	Input string `json:"input"`
	Stage Stage  `json:"stage,omitempty"` // Set on failure.
	Err   error  `json:"-"`
}

// OK reports whether the record was written to the ledger.
func (r Result) OK() bool { return r.Err == nil }

func (r Result) fail(stage Stage, err error) Result {
	r.Stage = stage
	r.Err = err
	return r
}

// Report collects the per-record results of one batch run.
type Report struct {
	ID       string    `json:"id"`
	Pipeline string    `json:"pipeline"`
	Started  time.Time `json:"started"`
	Results  []Result  `json:"results"`
	Sorted   bool      `json:"sorted"`
}

func newReport(pipeline string) *Report {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Report{ID: id.String(), Pipeline: pipeline, Started: time.Now()}
}

// Succeeded returns the number of records written.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed returns the failed records in batch order.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Err combines every record failure, or returns nil if there were none.
func (r *Report) Err() error {
	var merr *multierror.Error
	for _, res := range r.Failed() {
		merr = multierror.Append(merr, fmt.Errorf("%s %s: %w", res.Stage, res.Key, res.Err))
	}
	return merr.ErrorOrNil()
}
