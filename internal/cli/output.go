package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/mesh-intelligence/radonledger/internal/pipeline"
	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	msg  string
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *exitError) Unwrap() error { return e.err }

func newExitError(code int, msg string) *exitError {
	return &exitError{code: code, msg: msg}
}

func wrapExitError(code int, msg string, err error) *exitError {
	return &exitError{code: code, msg: msg, err: err}
}

// userErrors are the failures caused by input, configuration or a record.
var userErrors = []error{
	types.ErrMalformedRow,
	types.ErrHeaderMismatch,
	types.ErrArity,
	types.ErrInvalidKey,
	types.ErrUnknownColumn,
	types.ErrNotFound,
	types.ErrInvalidSchema,
	types.ErrRunNotFound,
	types.ErrCutToolFailed,
	types.ErrTreeNotFound,
	types.ErrDomain,
	types.ErrConfigInvalid,
}

// exitCode maps err to a process exit code. Errors not tagged with a code
// are user errors when they wrap a known sentinel and system errors
// otherwise.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// classify wraps err with the exit code exitCode would pick for it.
func classify(msg string, err error) error {
	return wrapExitError(exitCode(err), msg, err)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resultView is the printable form of a pipeline.Result.
type resultView struct {
	Key   string `json:"key"`
	Input string `json:"input"`
	Stage string `json:"stage,omitempty"`
	Error string `json:"error,omitempty"`
}

// reportView is the printable form of a pipeline.Report.
type reportView struct {
	ID        string       `json:"id"`
	Pipeline  string       `json:"pipeline"`
	Ledger    string       `json:"ledger"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Sorted    bool         `json:"sorted"`
	Results   []resultView `json:"results"`
}

func newReportView(r *pipeline.Report, ledgerPath string) reportView {
	v := reportView{
		ID:        r.ID,
		Pipeline:  r.Pipeline,
		Ledger:    ledgerPath,
		Succeeded: r.Succeeded(),
		Failed:    len(r.Failed()),
		Sorted:    r.Sorted,
		Results:   make([]resultView, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		rv := resultView{Key: res.Key, Input: res.Input}
		if !res.OK() {
			rv.Stage = string(res.Stage)
			rv.Error = res.Err.Error()
		}
		v.Results = append(v.Results, rv)
	}
	return v
}

// printReport writes the batch summary in the selected format.
func printReport(w io.Writer, r *pipeline.Report, ledgerPath string) error {
	v := newReportView(r, ledgerPath)
	if flags.format == formatJSON {
		return writeJSON(w, v)
	}
	fmt.Fprintf(w, "%s batch %s: %s written, %s failed -> %s\n",
		v.Pipeline, v.ID, humanize.Comma(int64(v.Succeeded)), humanize.Comma(int64(v.Failed)), v.Ledger)
	for _, res := range v.Results {
		if res.Error != "" {
			fmt.Fprintf(w, "  FAILED %s (%s): %s\n", res.Key, res.Stage, res.Error)
		}
	}
	return nil
}

// finishBatch prints the report and turns the batch outcome into an exit
// code: a stopped batch or any skipped record is a failure.
func finishBatch(w io.Writer, report *pipeline.Report, ledgerPath string, err error) error {
	if report == nil {
		return classify("batch not started", err)
	}
	if perr := printReport(w, report, ledgerPath); perr != nil {
		return wrapExitError(exitSysError, "print report", perr)
	}
	if err != nil {
		return classify("batch failed", err)
	}
	if n := len(report.Failed()); n > 0 {
		return wrapExitError(exitUserError, fmt.Sprintf("%d record(s) skipped", n), report.Err())
	}
	return nil
}

// renderTable writes rows under header as an aligned text table.
func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}
