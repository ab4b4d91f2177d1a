// Package paths resolves the configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
)

// CWD-relative default directory names.
const (
	DefaultConfigDirName = ".radonledger"
	DefaultDataDirName   = "data"
)

// ConfigFileName is the name of the config file inside the config directory.
const ConfigFileName = "config.yaml"

// EnvConfigDir overrides the configuration directory. The data directory has
// no variable of its own here: RADONLEDGER_DATA_DIR reaches it through the
// config layer as data_dir.
const EnvConfigDir = "RADONLEDGER_CONFIG_DIR"

// getwd is overridden in tests.
var getwd = os.Getwd

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > RADONLEDGER_CONFIG_DIR env > $(CWD)/.radonledger.
// The result is always absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultConfigDirName), nil
}

// ResolveDataDir returns the directory scanned for run files following the
// precedence chain: flag > configured data_dir > $(CWD)/data. The configured
// value already carries any RADONLEDGER_DATA_DIR override. The result is
// always absolute.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	cwd, err := getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the config file path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}
