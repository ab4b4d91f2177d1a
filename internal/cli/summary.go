package cli

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/radonledger/internal/sqlite"
	"github.com/mesh-intelligence/radonledger/pkg/types"
)

func newSummaryCmd() *cobra.Command {
	var lf ledgerFlags
	cmd := &cobra.Command{
		Use:   "summary <ledger> <column>",
		Short: "Summarise a numeric ledger column",
		Long: `Print the count, minimum, maximum and mean of a numeric column.

Example:
  radonledger summary measurement estimate
  radonledger summary efficiency efficiency`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			stats, err := idx.Summary(args[1])
			if err != nil {
				return classify("summary", err)
			}
			if flags.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"column", "count", "min", "max", "mean"},
				[][]string{{
					stats.Column,
					humanize.Comma(int64(stats.Count)),
					types.FormatFloat(stats.Min),
					types.FormatFloat(stats.Max),
					types.FormatFloat(stats.Mean),
				}})
			return nil
		},
	}
	lf.register(cmd)
	return cmd
}
