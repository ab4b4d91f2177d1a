package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/radonledger/pkg/types"
)

func newUpsertCmd() *cobra.Command {
	var lf ledgerFlags
	cmd := &cobra.Command{
		Use:   "upsert <ledger> <field>...",
		Short: "Insert or replace one ledger row",
		Long: `Insert a row into a ledger, replacing the row with the same key if one
exists. Fields are given in column order. The ledger is created with its
header if missing.

<ledger> is measurement, efficiency, sweep or a path. For a path the schema
comes from --schema, --header or the existing file's header.

Example:
  radonledger upsert measurement 1547 1700000000 3600 0 10000 42 run_1547_cut.root 12.5 1.1
  radonledger upsert results.csv --header name,score a 3`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig()
			if err != nil {
				return err
			}
			l, err := openLedger(cfg, args[0], lf)
			if err != nil {
				return err
			}
			rec := types.Record(args[1:])
			if err := l.Upsert(rec); err != nil {
				return classify("upsert", err)
			}
			key := rec[l.Schema().KeyIndex]
			if flags.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"ledger": l.Path(), "key": key})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Upserted %s=%s into %s\n", l.Schema().KeyColumn(), key, l.Path())
			return nil
		},
	}
	lf.register(cmd)
	return cmd
}
