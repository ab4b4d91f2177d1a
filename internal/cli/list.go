package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/radonledger/internal/sqlite"
)

func newListCmd() *cobra.Command {
	var lf ledgerFlags
	cmd := &cobra.Command{
		Use:   "list <ledger> [column=value...]",
		Short: "List ledger rows with optional filters",
		Long: `List the rows of a ledger in key order. Filters are column=value pairs
and are ANDed together; a filter on the key column matches numerically, so
run=1547 finds 1547.0.

Example:
  radonledger list measurement
  radonledger list measurement phase=1
  radonledger --format json list efficiency`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilters(args[1:])
			if err != nil {
				return err
			}
			cfg, err := effectiveConfig()
			if err != nil {
				return err
			}
			l, err := openLedger(cfg, args[0], lf)
			if err != nil {
				return err
			}
			idx, err := sqlite.OpenLedger(l)
			if err != nil {
				return classify("index ledger", err)
			}
			defer idx.Close()

			rows, err := idx.Fetch(filter)
			if err != nil {
				return classify("query ledger", err)
			}
			columns := l.Schema().Columns
			if flags.format == formatJSON {
				out := make([]map[string]string, 0, len(rows))
				for _, row := range rows {
					obj := make(map[string]string, len(columns))
					for i, c := range columns {
						obj[c] = row[i]
					}
					out = append(out, obj)
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			body := make([][]string, len(rows))
			for i, row := range rows {
				body[i] = row
			}
			renderTable(cmd.OutOrStdout(), columns, body)
			return nil
		},
	}
	lf.register(cmd)
	return cmd
}

// parseFilters turns column=value arguments into a filter map.
func parseFilters(args []string) (map[string]string, error) {
	filter := make(map[string]string, len(args))
	for _, arg := range args {
		col, value, ok := strings.Cut(arg, "=")
		if !ok || col == "" {
			return nil, newExitError(exitUserError, fmt.Sprintf("invalid filter %q (expected column=value)", arg))
		}
		filter[col] = value
	}
	return filter, nil
}

