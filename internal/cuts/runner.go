// Package cuts drives the external cut-application macro.
//
// The macro is run as a subprocess, by default
//
//	root -l -b -q 'macro.C("input.root", "output.root"[, threshold])'
//
// and is expected to write the selected events to the output file. A non-zero
// exit is reported as a *ToolError carrying the macro's stderr.
package cuts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// waitDelay bounds how long Apply waits for output pipes to close after the
// macro is killed, in case it left children holding them.
const waitDelay = 2 * time.Second

// Job is one invocation of the cut macro.
type Job struct {
	Input     string
	Output    string
	Threshold *float64 // Passed as a third macro argument when set.
}

// Result describes a successful invocation.
type Result struct {
	Output  string
	Stdout  string
	Elapsed time.Duration
}

// Runner applies cuts to an input file.
type Runner interface {
	Apply(ctx context.Context, job Job) (*Result, error)
}

// ToolError reports a failed macro invocation.
type ToolError struct {
	Input    string
	ExitCode int // -1 when the process did not exit normally.
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("cut macro failed for %s (exit %d)", e.Input, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Unwrap exposes both ErrCutToolFailed and the underlying exec error.
func (e *ToolError) Unwrap() []error {
	return []error{types.ErrCutToolFailed, e.Err}
}

// MacroRunner runs a ROOT macro through a configurable command prefix.
type MacroRunner struct {
	command []string
	macro   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewMacroRunner builds a runner. command is split with shell quoting rules;
// timeout of zero means no limit beyond ctx.
func NewMacroRunner(command, macro string, timeout time.Duration, logger *zap.Logger) (*MacroRunner, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("%w: cut_command: %v", types.ErrConfigInvalid, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: cut_command is empty", types.ErrConfigInvalid)
	}
	if macro == "" {
		return nil, fmt.Errorf("%w: cut_macro is empty", types.ErrConfigInvalid)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MacroRunner{command: argv, macro: macro, timeout: timeout, logger: logger}, nil
}

// Args returns the full argument vector for job.
func (r *MacroRunner) Args(job Job) []string {
	call := fmt.Sprintf("%s(%q, %q)", r.macro, job.Input, job.Output)
	if job.Threshold != nil {
		call = fmt.Sprintf("%s(%q, %q, %s)", r.macro, job.Input, job.Output, types.FormatFloat(*job.Threshold))
	}
	args := make([]string, 0, len(r.command)+1)
	args = append(args, r.command...)
	return append(args, call)
}

// Apply runs the macro and waits for it to exit.
func (r *MacroRunner) Apply(ctx context.Context, job Job) (*Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := r.Args(job)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	r.logger.Debug("applying cuts", zap.Strings("args", args))
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(err, ctxErr)
		}
		return nil, &ToolError{Input: job.Input, ExitCode: code, Stderr: stderr.String(), Err: err}
	}

	r.logger.Debug("cuts applied",
		zap.String("input", job.Input),
		zap.String("output", job.Output),
		zap.Duration("elapsed", elapsed))
	return &Result{Output: job.Output, Stdout: stdout.String(), Elapsed: elapsed}, nil
}
