package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/radonledger/internal/pipeline"
	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// testEnv is a config directory whose ledgers live in a temp dir.
type testEnv struct {
	configDir   string
	measurement string
	efficiency  string
	sweep       string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		configDir:   filepath.Join(dir, ".radonledger"),
		measurement: filepath.Join(dir, "real_data_summary.csv"),
		efficiency:  filepath.Join(dir, "simulation_summary.csv"),
		sweep:       filepath.Join(dir, "cut_optimisation.csv"),
	}
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	cfg := fmt.Sprintf("ledgers:\n  measurement: %q\n  efficiency: %q\n  sweep: %q\n", env.measurement, env.efficiency, env.sweep)
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"), []byte(cfg), 0o644))
	return env
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append([]string{"--config-dir", e.configDir}, args...)...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "radonledger dev")
	assert.Contains(t, out, modulePath)
}

func TestInitWritesDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")

	out, err := execute(t, "--config-dir", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	out, err = execute(t, "--config-dir", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = execute(t, "--config-dir", dir, "--format", "json", "config")
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, types.PolicyAbort, cfg["failure_policy"])
	assert.Equal(t, types.DefaultTree, cfg["tree"])
	detector := cfg["detector"].(map[string]any)
	assert.Equal(t, types.DefaultDetectorVolume, detector["volume"])
}

func TestConfigOverrides(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("RADONLEDGER_DETECTOR_VOLUME", "20")

	out, err := env.run(t, "--format", "json", "--on-failure", "skip", "config")
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, types.PolicySkip, cfg["failure_policy"])
	assert.Equal(t, float64(20), cfg["detector"].(map[string]any)["volume"])
	assert.Equal(t, env.measurement, cfg["ledgers"].(map[string]any)["measurement"])

	out, err = env.run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "volume: 20")
}

func TestConfigRejectsBadValues(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "--on-failure", "retry", "config")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = env.run(t, "--format", "xml", "config")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	t.Setenv("RADONLEDGER_DETECTOR_VOLUME", "-1")
	_, err = env.run(t, "config")
	assert.ErrorIs(t, err, types.ErrConfigInvalid)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestUpsertSortList(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "upsert", "measurement", "2000", "9000", "7200", "1", "20000", "30", "run_2000_cut.root", "4.5", "0.6")
	require.NoError(t, err)
	out, err := env.run(t, "upsert", "measurement", "1547", "1000", "3600", "0", "10000", "42", "run_1547_cut.root", "12.5", "1.1")
	require.NoError(t, err)
	assert.Contains(t, out, "Upserted run=1547")

	// Same key replaces.
	_, err = env.run(t, "upsert", "measurement", "1547.0", "1000", "3600", "0", "10000", "40", "run_1547_cut.root", "12", "1.1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(readFile(t, env.measurement)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "2000,"))

	out, err = env.run(t, "sort", "measurement")
	require.NoError(t, err)
	assert.Contains(t, out, "by run")
	lines = strings.Split(strings.TrimSpace(readFile(t, env.measurement)), "\n")
	assert.True(t, strings.HasPrefix(lines[1], "1547.0,"))
	assert.True(t, strings.HasPrefix(lines[2], "2000,"))

	out, err = env.run(t, "list", "measurement")
	require.NoError(t, err)
	assert.Contains(t, out, "run_1547_cut.root")
	assert.Contains(t, out, "cut_artifact_name")

	out, err = env.run(t, "--format", "json", "list", "measurement", "phase=1")
	require.NoError(t, err)
	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "2000", rows[0]["run"])
	assert.Equal(t, "4.5", rows[0]["estimate"])
}

func TestUpsertErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "upsert", "measurement", "1547", "1")
	assert.ErrorIs(t, err, types.ErrArity)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = env.run(t, "upsert", "measurement", "", "1", "2", "0", "1", "1", "a", "1", "1")
	assert.ErrorIs(t, err, types.ErrInvalidKey)

	require.NoError(t, os.WriteFile(env.efficiency, []byte("sim,total\n"), 0o644))
	_, err = env.run(t, "upsert", "efficiency", "a.root", "1", "1", "1", "0")
	assert.ErrorIs(t, err, types.ErrHeaderMismatch)

	_, err = env.run(t, "upsert", filepath.Join(t.TempDir(), "x.csv"), "--schema", "bogus", "a")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestUpsertCustomLedger(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "scores.csv")

	_, err := env.run(t, "upsert", path, "--header", "name,score", "b", "2")
	require.NoError(t, err)
	_, err = env.run(t, "upsert", path, "a", "1")
	require.NoError(t, err)
	_, err = env.run(t, "upsert", path, "b", "5")
	require.NoError(t, err)
	_, err = env.run(t, "sort", path)
	require.NoError(t, err)

	assert.Equal(t, "name,score\na,1\nb,5\n", readFile(t, path))

	_, err = env.run(t, "sort", path, "--key", "score")
	require.NoError(t, err)
	assert.Equal(t, "name,score\na,1\nb,5\n", readFile(t, path))

	_, err = env.run(t, "sort", path, "--key", "rank")
	assert.ErrorIs(t, err, types.ErrUnknownColumn)
}

func TestSortMissingLedger(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "sort", "sweep")
	require.NoError(t, err)
	assert.NoFileExists(t, env.sweep)
}

func TestSortMissingPath(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "absent.csv")

	out, err := env.run(t, "sort", path)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to sort")
	assert.NoFileExists(t, path)

	_, err = env.run(t, "sort", path, "--key", "run")
	require.NoError(t, err)
	assert.NoFileExists(t, path)
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "upsert", "efficiency", "Bi214.root", "100", "50", "0.5", "0.05")
	require.NoError(t, err)

	_, err = env.run(t, "list", "efficiency", "noequals")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = env.run(t, "list", "efficiency", "eff=0.5")
	assert.ErrorIs(t, err, types.ErrUnknownColumn)

	out, err := env.run(t, "--format", "json", "list", "efficiency", "efficiency=0.4")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)
	for _, row := range [][]string{
		{"a.root", "100", "20", "0.2", "0.04"},
		{"b.root", "100", "40", "0.4", "0.049"},
	} {
		_, err := env.run(t, append([]string{"upsert", "efficiency"}, row...)...)
		require.NoError(t, err)
	}

	out, err := env.run(t, "--format", "json", "summary", "efficiency", "efficiency")
	require.NoError(t, err)
	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, float64(2), stats["count"])
	assert.InDelta(t, 0.2, stats["min"], 1e-12)
	assert.InDelta(t, 0.4, stats["max"], 1e-12)
	assert.InDelta(t, 0.3, stats["mean"], 1e-12)

	out, err = env.run(t, "summary", "efficiency", "efficiency")
	require.NoError(t, err)
	assert.Contains(t, out, "mean")

	_, err = env.run(t, "summary", "efficiency", types.ColSimulation)
	assert.ErrorIs(t, err, types.ErrMalformedRow)
}

func TestMeasureNeedsMetadata(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run_1547.root"), nil, 0o644))

	_, err := env.run(t, "measure", dir)
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = env.run(t, "measure", filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestMeasureInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"run_2000.root", "run_1547.root", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	single := filepath.Join(t.TempDir(), "run_9.root")
	require.NoError(t, os.WriteFile(single, nil, 0o644))

	got, err := measureInputs([]string{dir, single}, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "run_1547.root"),
		filepath.Join(dir, "run_2000.root"),
		single,
	}, got)

	got, err = measureInputs(nil, dir, "ignored")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = measureInputs([]string{t.TempDir()}, "", "")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestSweepRejectsRange(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "sweep", "--input", "sim.root", "--start", "2", "--stop", "1", "--step", "0.5")
	assert.ErrorIs(t, err, types.ErrConfigInvalid)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestFinishBatch(t *testing.T) {
	report := &pipeline.Report{
		ID:       "0192",
		Pipeline: "measurement",
		Results: []pipeline.Result{
			{Key: "1547", Input: "run_1547.root"},
			{Key: "1800", Input: "run_1800.root", Stage: pipeline.StageCuts, Err: types.ErrCutToolFailed},
		},
		Sorted: true,
	}

	var out bytes.Buffer
	err := finishBatch(&out, report, "real_data_summary.csv", nil)
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
	assert.ErrorIs(t, err, types.ErrCutToolFailed)
	assert.Contains(t, out.String(), "measurement batch 0192: 1 written, 1 failed")
	assert.Contains(t, out.String(), "FAILED 1800 (cuts)")

	out.Reset()
	err = finishBatch(&out, &pipeline.Report{ID: "0193", Pipeline: "sweep", Results: report.Results[:1]}, "c.csv", nil)
	require.NoError(t, err)

	err = finishBatch(&out, nil, "c.csv", errors.New("disk gone"))
	assert.Equal(t, exitSysError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(fmt.Errorf("x: %w", types.ErrRunNotFound)))
	assert.Equal(t, exitSysError, exitCode(errors.New("permission denied")))
	assert.Equal(t, exitSysError, exitCode(newExitError(exitSysError, "boom")))
	assert.Equal(t, exitUserError, exitCode(wrapExitError(exitUserError, "wrapped", os.ErrPermission)))
}
