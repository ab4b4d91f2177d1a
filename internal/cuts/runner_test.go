package cuts

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/radonledger/pkg/types"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
}

func TestNewMacroRunnerValidates(t *testing.T) {
	_, err := NewMacroRunner("", "cuts.C", 0, nil)
	assert.ErrorIs(t, err, types.ErrConfigInvalid)

	_, err = NewMacroRunner(`root "-l`, "cuts.C", 0, nil)
	assert.ErrorIs(t, err, types.ErrConfigInvalid)

	_, err = NewMacroRunner(types.DefaultCutCommand, "", 0, nil)
	assert.ErrorIs(t, err, types.ErrConfigInvalid)
}

func TestArgs(t *testing.T) {
	r, err := NewMacroRunner(types.DefaultCutCommand, "/macros/cuts_V2.C", 0, nil)
	require.NoError(t, err)

	got := r.Args(Job{Input: "/data/run_1547.root", Output: "/cut/run_1547_cut.root"})
	assert.Equal(t, []string{"root", "-l", "-b", "-q", `/macros/cuts_V2.C("/data/run_1547.root", "/cut/run_1547_cut.root")`}, got)

	thr := 0.05
	got = r.Args(Job{Input: "in.root", Output: "out.root", Threshold: &thr})
	assert.Equal(t, `/macros/cuts_V2.C("in.root", "out.root", 0.05)`, got[len(got)-1])
}

func TestApplySuccess(t *testing.T) {
	requireShell(t)
	r, err := NewMacroRunner(`sh -c 'echo "$0"'`, "cuts.C", 0, zaptest.NewLogger(t))
	require.NoError(t, err)

	res, err := r.Apply(context.Background(), Job{Input: "in.root", Output: "out.root"})
	require.NoError(t, err)
	assert.Equal(t, "out.root", res.Output)
	assert.Equal(t, "cuts.C(\"in.root\", \"out.root\")\n", res.Stdout)
}

func TestApplyFailure(t *testing.T) {
	requireShell(t)
	r, err := NewMacroRunner(`sh -c 'echo "Error: Cannot open input file" >&2; exit 3'`, "cuts.C", 0, nil)
	require.NoError(t, err)

	_, err = r.Apply(context.Background(), Job{Input: "run_1547.root", Output: "out.root"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCutToolFailed)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Contains(t, toolErr.Stderr, "Cannot open input file")
	assert.Contains(t, err.Error(), "run_1547.root")
}

func TestApplyMissingBinary(t *testing.T) {
	r, err := NewMacroRunner("/nonexistent/root -b", "cuts.C", 0, nil)
	require.NoError(t, err)

	_, err = r.Apply(context.Background(), Job{Input: "in.root", Output: "out.root"})
	assert.ErrorIs(t, err, types.ErrCutToolFailed)
}

func TestApplyTimeout(t *testing.T) {
	requireShell(t)
	r, err := NewMacroRunner(`sh -c 'exec sleep 5'`, "cuts.C", 50*time.Millisecond, nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = r.Apply(context.Background(), Job{Input: "in.root", Output: "out.root"})
	assert.ErrorIs(t, err, types.ErrCutToolFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}
