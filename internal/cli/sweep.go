package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/radonledger/internal/cuts"
	"github.com/mesh-intelligence/radonledger/internal/events"
	"github.com/mesh-intelligence/radonledger/internal/pipeline"
)

func newSweepCmd() *cobra.Command {
	var (
		input, alias, outputDir string
		cutNumber, decimals     int
		start, stop, step       float64
		thresholds              []float64
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Measure efficiency across thresholds of one cut",
		Long: `Cut one simulation at each threshold and upsert the efficiency into the
sweep ledger, keyed by the rounded threshold. The ledger is sorted by
threshold afterwards. Thresholds come from --threshold, or from the range
--start..--stop (inclusive) in steps of --step.

Example:
  radonledger sweep --cut 5 --start 40 --stop 60 --step 0.5
  radonledger sweep --cut 5 --threshold 45 --threshold 47.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig()
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("input") {
				cfg.Sweep.Input = input
			}
			if f.Changed("alias") {
				cfg.Sweep.Alias = alias
			}
			if f.Changed("output-dir") {
				cfg.Sweep.OutputDir = outputDir
			}
			if f.Changed("cut") {
				cfg.Sweep.CutNumber = cutNumber
			}
			if f.Changed("decimals") {
				cfg.Sweep.Decimals = decimals
			}
			if f.Changed("start") {
				cfg.Sweep.Start = start
			}
			if f.Changed("stop") {
				cfg.Sweep.Stop = stop
			}
			if f.Changed("step") {
				cfg.Sweep.Step = step
			}

			values := thresholds
			if len(values) == 0 {
				values, err = pipeline.Thresholds(cfg.Sweep.Start, cfg.Sweep.Stop, cfg.Sweep.Step)
				if err != nil {
					return classify("thresholds", err)
				}
			}

			runner, err := cuts.NewMacroRunner(cfg.CutCommand, cfg.CutMacro, cfg.CutTimeout, logger)
			if err != nil {
				return classify("cut runner", err)
			}
			s, err := pipeline.NewSweep(cfg, runner, events.NewTreeCounter(cfg.Tree), logger)
			if err != nil {
				return classify("sweep pipeline", err)
			}
			report, err := s.Run(cmd.Context(), values)
			return finishBatch(cmd.OutOrStdout(), report, s.Ledger().Path(), err)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "simulation file")
	cmd.Flags().StringVar(&alias, "alias", "", "simulation name in the ledger and output names (default: input file name)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for cut outputs")
	cmd.Flags().IntVar(&cutNumber, "cut", 0, "cut number")
	cmd.Flags().IntVar(&decimals, "decimals", 0, "decimal places thresholds are rounded to")
	cmd.Flags().Float64Var(&start, "start", 0, "first threshold")
	cmd.Flags().Float64Var(&stop, "stop", 0, "last threshold")
	cmd.Flags().Float64Var(&step, "step", 0, "threshold step")
	cmd.Flags().Float64SliceVar(&thresholds, "threshold", nil, "explicit threshold (repeatable)")
	return cmd
}
