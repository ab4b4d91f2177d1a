package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/radonledger/pkg/types"
)

func newSortCmd() *cobra.Command {
	var lf ledgerFlags
	cmd := &cobra.Command{
		Use:   "sort <ledger>",
		Short: "Sort ledger rows by key",
		Long: `Rewrite a ledger with its rows ordered by the key column. Numeric keys
sort by value ahead of text keys; ties keep their order. A missing ledger is
left alone.

Example:
  radonledger sort measurement
  radonledger sort data/summary.csv --key run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig()
			if err != nil {
				return err
			}
			if missing, err := missingUntypedLedger(cfg, args[0], lf); err != nil {
				return err
			} else if missing {
				if flags.format == formatJSON {
					return writeJSON(cmd.OutOrStdout(), map[string]string{"ledger": args[0]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "No ledger at %s, nothing to sort\n", args[0])
				return nil
			}
			l, err := openLedger(cfg, args[0], lf)
			if err != nil {
				return err
			}
			if err := l.Sort(); err != nil {
				return classify("sort", err)
			}
			if flags.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"ledger": l.Path(), "key": l.Schema().KeyColumn()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sorted %s by %s\n", l.Path(), l.Schema().KeyColumn())
			return nil
		},
	}
	lf.register(cmd)
	return cmd
}

// missingUntypedLedger reports whether arg is a path with no schema flags
// that does not exist yet. Such a ledger has no header to take a schema from.
func missingUntypedLedger(cfg types.Config, arg string, lf ledgerFlags) (bool, error) {
	if _, _, ok := namedSchema(cfg, arg); ok || lf.schema != "" || len(lf.header) > 0 {
		return false, nil
	}
	_, err := os.Stat(arg)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, fs.ErrNotExist):
		return true, nil
	}
	return false, wrapExitError(exitSysError, "stat ledger", err)
}
