package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/radonledger/internal/paths"
	"github.com/mesh-intelligence/radonledger/pkg/types"
)

const (
	configFileType = "yaml"
	envPrefix      = "RADONLEDGER"
)

const configHeader = `# radonledger configuration
# Relative paths are resolved against the working directory.
# Any key can be overridden with RADONLEDGER_<KEY>, e.g. RADONLEDGER_DETECTOR_VOLUME.

`

// defaultConfigYAML renders the default configuration as written by init.
func defaultConfigYAML() ([]byte, error) {
	data, err := yaml.Marshal(types.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("marshal default config: %w", err)
	}
	return append([]byte(configHeader), data...), nil
}

// loadConfig layers config.yaml from configDir and RADONLEDGER_ environment
// variables over the defaults. A missing config.yaml is not an error.
func loadConfig(configDir string) (types.Config, error) {
	defaults, err := defaultConfigYAML()
	if err != nil {
		return types.Config{}, err
	}

	v := viper.New()
	v.SetConfigType(configFileType)
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return types.Config{}, fmt.Errorf("read default config: %w", err)
	}

	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return types.Config{}, fmt.Errorf("%w: read %s: %v", types.ErrConfigInvalid, path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return types.Config{}, fmt.Errorf("stat config file: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("%w: decode: %v", types.ErrConfigInvalid, err)
	}
	return cfg, nil
}

// effectiveConfig resolves the config directory, loads the config and
// applies the global flag overrides.
func effectiveConfig() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return types.Config{}, wrapExitError(exitSysError, "resolve config dir", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, classify("load config", err)
	}
	if flags.onFailure != "" {
		cfg.FailurePolicy = flags.onFailure
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, classify("load config", err)
	}
	return cfg, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after config.yaml, RADONLEDGER_ environment variables and global flags are applied.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig()
			if err != nil {
				return err
			}
			if flags.format == formatJSON {
				return writeConfigJSON(cmd.OutOrStdout(), cfg)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return wrapExitError(exitSysError, "encode config", err)
			}
			return enc.Close()
		},
	}
}

// writeConfigJSON prints cfg as JSON under the same snake_case keys as
// config.yaml.
func writeConfigJSON(w io.Writer, cfg types.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return wrapExitError(exitSysError, "encode config", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return wrapExitError(exitSysError, "encode config", err)
	}
	return writeJSON(w, tree)
}
