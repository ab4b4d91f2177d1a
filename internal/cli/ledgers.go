package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/radonledger/internal/ledger"
	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// Ledger names accepted in place of a path.
const (
	ledgerMeasurement = "measurement"
	ledgerEfficiency  = "efficiency"
	ledgerSweep       = "sweep"
)

var ledgerNames = []string{ledgerMeasurement, ledgerEfficiency, ledgerSweep}

// ledgerFlags select the schema of a ledger given by path.
type ledgerFlags struct {
	schema string
	header []string
	key    string
}

func (lf *ledgerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&lf.schema, "schema", "", "schema of a ledger given by path: "+strings.Join(ledgerNames, ", "))
	cmd.Flags().StringSliceVar(&lf.header, "header", nil, "columns of a ledger given by path, comma separated")
	cmd.Flags().StringVar(&lf.key, "key", "", "key column (default: the schema key, or the first column)")
}

// namedSchema returns the schema and configured path of a named ledger.
func namedSchema(cfg types.Config, name string) (types.Schema, string, bool) {
	switch name {
	case ledgerMeasurement:
		return types.MeasurementSchema(), cfg.Ledgers.Measurement, true
	case ledgerEfficiency:
		return types.EfficiencySchema(), cfg.Ledgers.Efficiency, true
	case ledgerSweep:
		return types.SweepSchema(cfg.Sweep.KeyColumn), cfg.Ledgers.Sweep, true
	}
	return types.Schema{}, "", false
}

// openLedger resolves arg to a ledger. arg is a ledger name or a path; a path
// takes its schema from --schema, --header or, failing both, the header of
// the existing file.
func openLedger(cfg types.Config, arg string, lf ledgerFlags) (*ledger.Ledger, error) {
	schema, path, ok := namedSchema(cfg, arg)
	switch {
	case ok:
	case lf.schema != "":
		schema, _, ok = namedSchema(cfg, lf.schema)
		if !ok {
			return nil, newExitError(exitUserError, fmt.Sprintf("unknown --schema %q (valid: %s)", lf.schema, strings.Join(ledgerNames, ", ")))
		}
		path = arg
	case len(lf.header) > 0:
		schema = types.Schema{Name: "custom", Columns: lf.header}
		path = arg
	default:
		l, err := ledger.OpenFile(arg, lf.key)
		if err != nil {
			return nil, classify("open ledger", err)
		}
		return l, nil
	}

	if lf.key != "" {
		i := slices.Index(schema.Columns, lf.key)
		if i < 0 {
			return nil, classify("open ledger", fmt.Errorf("%w: %q", types.ErrUnknownColumn, lf.key))
		}
		schema.KeyIndex = i
	}
	l, err := ledger.Open(path, schema)
	if err != nil {
		return nil, classify("open ledger", err)
	}
	return l, nil
}
