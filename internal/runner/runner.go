// Package runner executes external commands as blocking child processes.
//
// Environment changes are passed per command as an overrides map layered on
// top of the current process environment; the process-wide environment is
// never modified.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/output"
)

// Command describes one child process invocation.
type Command struct {
	// Args is the argv, Args[0] being the program.
	Args []string

	// Env overrides variables of the inherited environment.
	Env map[string]string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Check makes a non-zero exit status an error.
	Check bool

	// CaptureStdout collects stdout into Result.Stdout instead of
	// forwarding it to the terminal.
	CaptureStdout bool

	// DiscardStdout drops stdout.
	DiscardStdout bool
}

// String returns the shell-quoted command line.
func (c Command) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", a)
		}
		parts[i] = q
	}
	return strings.Join(parts, " ")
}

// Result is the outcome of a completed child process.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner executes commands. Exec returns an error only when the process
// could not be run at all; exit status is reported in Result.
type Runner interface {
	Exec(ctx context.Context, cmd Command) (Result, error)
}

// ExitStatusError reports a must-succeed command that exited non-zero.
type ExitStatusError struct {
	Command  Command
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *ExitStatusError) Error() string {
	msg := fmt.Sprintf("command %s exited with status %d", e.Command.String(), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

// Unwrap ties the error to the ErrCommand sentinel.
func (e *ExitStatusError) Unwrap() error {
	return oerrors.ErrCommand
}

// Run executes cmd with r and enforces cmd.Check.
func Run(ctx context.Context, r Runner, cmd Command) (Result, error) {
	res, err := r.Exec(ctx, cmd)
	if err != nil {
		return res, err
	}
	if cmd.Check && res.ExitCode != 0 {
		return res, &ExitStatusError{Command: cmd, ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
	}
	return res, nil
}

// Succeeds runs cmd and reports whether it exited zero. Failure to start the
// process counts as not succeeding.
func Succeeds(ctx context.Context, r Runner, cmd Command) bool {
	cmd.Check = false
	res, err := r.Exec(ctx, cmd)
	if err != nil {
		output.Debug("probe could not run", "cmd", cmd.String(), "error", err)
		return false
	}
	return res.ExitCode == 0
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Stdout and Stderr receive forwarded output. nil means os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates an ExecRunner attached to the process stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Exec implements Runner. The child is not tied to ctx: once launched it runs
// to completion, and ctx is only consulted before starting.
func (e *ExecRunner) Exec(ctx context.Context, cmd Command) (Result, error) {
	if len(cmd.Args) == 0 {
		return Result{}, errors.New("empty command")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("not starting %s: %w", cmd.Args[0], err)
	}

	output.Info("running command", "cmd", cmd.String())

	c := exec.Command(cmd.Args[0], cmd.Args[1:]...)
	c.Dir = cmd.Dir
	c.Env = MergeEnv(os.Environ(), cmd.Env)
	c.Stdin = nil

	stdout := e.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := e.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var outBuf, errBuf bytes.Buffer
	switch {
	case cmd.CaptureStdout:
		c.Stdout = &outBuf
	case cmd.DiscardStdout:
		c.Stdout = io.Discard
	default:
		c.Stdout = stdout
	}
	c.Stderr = io.MultiWriter(stderr, &errBuf)

	err := c.Run()
	res := Result{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("running %s: %w", cmd.Args[0], err)
	}
	return res, nil
}

// MergeEnv returns base with overrides applied. The result is sorted by key
// so child environments are reproducible.
func MergeEnv(base []string, overrides map[string]string) []string {
	env := make(map[string]string, len(base)+len(overrides))
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	for k, v := range overrides {
		env[k] = v
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// AppendPathList appends dir to a ':'-separated list value, as used for
// PYTHONPATH.
func AppendPathList(current, dir string) string {
	if current == "" {
		return dir
	}
	return current + string(os.PathListSeparator) + dir
}
