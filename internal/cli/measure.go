package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/radonledger/internal/cuts"
	"github.com/mesh-intelligence/radonledger/internal/events"
	"github.com/mesh-intelligence/radonledger/internal/metadata"
	"github.com/mesh-intelligence/radonledger/internal/paths"
	"github.com/mesh-intelligence/radonledger/internal/pipeline"
)

func newMeasureCmd() *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "measure [file|dir...]",
		Short: "Derive radon activities from detector runs",
		Long: `Apply the cuts to each run file, count events before and after, derive
the activity from the mean simulated efficiency and upsert one row per run
into the measurement ledger, which is sorted by run afterwards.

With no arguments every .root file in the data directory is processed.

Example:
  radonledger measure
  radonledger measure data/run_1547.root data/run_1548.root
  radonledger --on-failure skip measure /mnt/runs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig()
			if err != nil {
				return err
			}
			inputs, err := measureInputs(args, dataDir, cfg.DataDir)
			if err != nil {
				return err
			}
			if len(cfg.MetadataFiles) == 0 {
				return newExitError(exitUserError, "no metadata_files configured")
			}
			runs, err := metadata.Load(cfg.MetadataFiles...)
			if err != nil {
				return classify("load metadata", err)
			}
			runner, err := cuts.NewMacroRunner(cfg.CutCommand, cfg.CutMacro, cfg.CutTimeout, logger)
			if err != nil {
				return classify("cut runner", err)
			}
			m, err := pipeline.NewMeasurement(cfg, runs, runner, events.NewTreeCounter(cfg.Tree), logger)
			if err != nil {
				return classify("measurement pipeline", err)
			}
			report, err := m.Run(cmd.Context(), inputs)
			return finishBatch(cmd.OutOrStdout(), report, m.Ledger().Path(), err)
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory scanned when no files are given (default: data_dir from config)")
	return cmd
}

// measureInputs expands args into run files. Directories contribute their
// .root files; no args means the resolved data directory.
func measureInputs(args []string, dataDirFlag, configDataDir string) ([]string, error) {
	if len(args) == 0 {
		dir, err := paths.ResolveDataDir(dataDirFlag, configDataDir)
		if err != nil {
			return nil, wrapExitError(exitSysError, "resolve data dir", err)
		}
		args = []string{dir}
	}
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, wrapExitError(exitUserError, "input", err)
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		files, err := pipeline.Inputs(arg)
		if err != nil {
			return nil, wrapExitError(exitSysError, "input", err)
		}
		inputs = append(inputs, files...)
	}
	if len(inputs) == 0 {
		return nil, newExitError(exitUserError, fmt.Sprintf("no .root files in %v", args))
	}
	return inputs, nil
}
