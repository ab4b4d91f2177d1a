package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/radonledger/internal/paths"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration",
		Long:  "Create the configuration directory and write config.yaml with default values. An existing config.yaml is left untouched.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return wrapExitError(exitSysError, "resolve config dir", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return wrapExitError(exitSysError, "create config directory", err)
	}

	path := paths.ConfigFile(configDir)
	created, err := writeConfigIfMissing(path)
	if err != nil {
		return wrapExitError(exitSysError, "write config", err)
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
	}
	return nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. It reports whether the file was written.
func writeConfigIfMissing(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	data, err := defaultConfigYAML()
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(path, data, 0o644)
}
