// Package reexec restarts the build under another Python runtime by
// replacing the process image, with an environment marker that stops the
// restarted process from handing off again.
package reexec

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/ceph/cephadm-build/internal/runner"
)

// MarkerEnv is set in the environment of a handed-off process and names the
// runtime it was handed to.
const MarkerEnv = "_BUILD_PYTHON_SET"

// Done reports whether this process is the result of a hand-off, and if so
// which runtime it was handed to.
func Done() (string, bool) {
	return os.LookupEnv(MarkerEnv)
}

// Needed reports whether a hand-off to python should happen: a runtime was
// requested and this process has not already been handed off.
func Needed(python string) bool {
	if python == "" {
		return false
	}
	_, done := Done()
	return !done
}

// Plan is a prepared hand-off.
type Plan struct {
	// Path is the executable that replaces this process.
	Path string

	// Argv is the full argument vector, including argv[0].
	Argv []string

	// Env is the complete environment, including the marker.
	Env []string
}

// Prepare builds the hand-off for python: the current executable re-run
// with the original arguments and the marker set.
func Prepare(python string, args []string, environ []string) (*Plan, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating own executable: %w", err)
	}
	argv := append([]string{self}, args...)
	return &Plan{
		Path: self,
		Argv: argv,
		Env:  runner.MergeEnv(environ, map[string]string{MarkerEnv: python}),
	}, nil
}

// Exec replaces the current process with the plan. It only returns on
// failure.
func (p *Plan) Exec() error {
	if err := unix.Exec(p.Path, p.Argv, p.Env); err != nil {
		return fmt.Errorf("re-executing %s: %w", p.Path, err)
	}
	return nil
}
