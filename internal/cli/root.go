// Package cli implements the radonledger command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/radonledger/internal/logging"
	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	verbose   bool
	format    string
	onFailure string
}

var flags rootFlags

// logger is built in PersistentPreRunE and synced in PersistentPostRun.
var logger = zap.NewNop()

// NewRootCmd creates the top-level "radonledger" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "radonledger",
		Short: "Radon activity ledgers for detector runs",
		Long: `radonledger applies event-selection cuts to detector runs and simulations,
derives activities and efficiencies, and keeps the results in keyed CSV
ledgers: one row per run, simulation or threshold.`,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch flags.format {
			case formatText, formatJSON:
			default:
				return newExitError(exitUserError, fmt.Sprintf("unknown --format %q (want %s or %s)", flags.format, formatText, formatJSON))
			}
			switch flags.onFailure {
			case "", types.PolicyAbort, types.PolicySkip:
			default:
				return newExitError(exitUserError, fmt.Sprintf("unknown --on-failure %q (want %s or %s)", flags.onFailure, types.PolicyAbort, types.PolicySkip))
			}
			l, err := logging.New(flags.verbose, flags.format == formatJSON)
			if err != nil {
				return wrapExitError(exitSysError, "logger", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .radonledger)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&flags.format, "format", formatText, "output format: text or json")
	root.PersistentFlags().StringVar(&flags.onFailure, "on-failure", "", "batch failure policy: abort or skip (default from config)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newMeasureCmd())
	root.AddCommand(newSimulateCmd())
	root.AddCommand(newSweepCmd())
	root.AddCommand(newUpsertCmd())
	root.AddCommand(newSortCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newSummaryCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
// SIGINT and SIGTERM cancel the running batch.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
