package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/ceph/cephadm-build/internal/runner"
)

// HandlerFunc produces the result for a scripted command.
type HandlerFunc func(cmd runner.Command) (runner.Result, error)

type handler struct {
	prefix []string
	fn     HandlerFunc
}

// FakeRunner is a runner.Runner that answers commands from a script of
// argv-prefix handlers and records every call. Unmatched commands exit 127.
type FakeRunner struct {
	mu       sync.Mutex
	handlers []handler
	calls    []runner.Command
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On registers fn for commands whose argv starts with prefix. Later
// registrations take precedence over earlier ones.
func (f *FakeRunner) On(fn HandlerFunc, prefix ...string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, handler{prefix: prefix, fn: fn})
	return f
}

// OnExit registers a fixed exit code for commands starting with prefix.
func (f *FakeRunner) OnExit(code int, prefix ...string) *FakeRunner {
	return f.On(func(runner.Command) (runner.Result, error) {
		return runner.Result{ExitCode: code}, nil
	}, prefix...)
}

// OnStdout registers a successful command that prints stdout.
func (f *FakeRunner) OnStdout(stdout string, prefix ...string) *FakeRunner {
	return f.On(func(runner.Command) (runner.Result, error) {
		return runner.Result{Stdout: []byte(stdout)}, nil
	}, prefix...)
}

// Exec implements runner.Runner.
func (f *FakeRunner) Exec(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	var match HandlerFunc
	for i := len(f.handlers) - 1; i >= 0; i-- {
		if hasPrefix(cmd.Args, f.handlers[i].prefix) {
			match = f.handlers[i].fn
			break
		}
	}
	f.mu.Unlock()

	if match == nil {
		return runner.Result{ExitCode: 127, Stderr: []byte(fmt.Sprintf("unscripted command: %s", cmd.String()))}, nil
	}
	return match(cmd)
}

// Calls returns the recorded commands.
func (f *FakeRunner) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// CallsWithPrefix returns the recorded commands whose argv starts with prefix.
func (f *FakeRunner) CallsWithPrefix(prefix ...string) []runner.Command {
	var out []runner.Command
	for _, c := range f.Calls() {
		if hasPrefix(c.Args, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func hasPrefix(args, prefix []string) bool {
	if len(prefix) > len(args) {
		return false
	}
	for i := range prefix {
		if args[i] != prefix[i] {
			return false
		}
	}
	return true
}
