package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/radonledger/internal/cuts"
	"github.com/mesh-intelligence/radonledger/internal/events"
	"github.com/mesh-intelligence/radonledger/internal/pipeline"
)

func newSimulateCmd() *cobra.Command {
	var (
		input, output, alias string
		totalEvents          int64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Measure the selection efficiency of a simulation",
		Long: `Apply the cuts to one simulation file and upsert its efficiency into the
efficiency ledger, keyed by alias. Flags override the simulation section of
the config.

Example:
  radonledger simulate --input sims/Bi214_wire_surface_50M.root \
    --output sims/Bi214_wire_surface_50M_cut.root --total-events 50000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig()
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("input") {
				cfg.Simulation.Input = input
			}
			if f.Changed("output") {
				cfg.Simulation.Output = output
			}
			if f.Changed("alias") {
				cfg.Simulation.Alias = alias
			}
			if f.Changed("total-events") {
				cfg.Simulation.TotalEvents = totalEvents
			}

			runner, err := cuts.NewMacroRunner(cfg.CutCommand, cfg.CutMacro, cfg.CutTimeout, logger)
			if err != nil {
				return classify("cut runner", err)
			}
			s, err := pipeline.NewSimulation(cfg, runner, events.NewTreeCounter(cfg.Tree), logger)
			if err != nil {
				return classify("simulation pipeline", err)
			}
			report, err := s.Run(cmd.Context())
			return finishBatch(cmd.OutOrStdout(), report, s.Ledger().Path(), err)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "simulation file")
	cmd.Flags().StringVar(&output, "output", "", "cut output file")
	cmd.Flags().StringVar(&alias, "alias", "", "ledger key (default: input file name)")
	cmd.Flags().Int64Var(&totalEvents, "total-events", 0, "generated events; 0 counts the input tree")
	return cmd
}
