// Package python probes and drives a Python runtime through child processes.
package python

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/runner"
)

// Version is a Python runtime version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// String returns the dotted version.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Is reports whether v has the given major and minor version.
func (v Version) Is(major, minor int) bool {
	return v.Major == major && v.Minor == minor
}

// ParseVersion parses "3.9.18" style output.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("invalid python version %q", s)
	}
	var nums [3]int
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return Version{}, fmt.Errorf("invalid python version %q: %w", s, err)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

const versionScript = `import sys; print("%d.%d.%d" % sys.version_info[:3])`

// Interpreter is a Python executable and its version.
type Interpreter struct {
	Path    string
	Version Version
}

// Resolve returns the absolute path of the python executable, looking bare
// names up on PATH.
func Resolve(path string) (string, error) {
	if !strings.ContainsRune(path, filepath.Separator) {
		found, err := exec.LookPath(path)
		if err != nil {
			return "", oerrors.NewNotFoundError(fmt.Sprintf("python executable %q not found on PATH", path), "", "Pass --python with the interpreter to build with.")
		}
		path = found
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return abs, nil
}

// Probe runs the interpreter to learn its version.
func Probe(ctx context.Context, r runner.Runner, path string) (*Interpreter, error) {
	res, err := runner.Run(ctx, r, runner.Command{
		Args:          []string{path, "-c", versionScript},
		Check:         true,
		CaptureStdout: true,
	})
	if err != nil {
		return nil, fmt.Errorf("probing python version: %w", err)
	}
	v, err := ParseVersion(string(res.Stdout))
	if err != nil {
		return nil, err
	}
	return &Interpreter{Path: path, Version: v}, nil
}

// HasVenv reports whether the venv module is usable with executable.
func HasVenv(ctx context.Context, r runner.Runner, executable string) bool {
	return runner.Succeeds(ctx, r, runner.Command{
		Args:          []string{executable, "-m", "venv", "--help"},
		DiscardStdout: true,
	})
}

// HasPip reports whether pip is usable with executable.
func HasPip(ctx context.Context, r runner.Runner, executable string) bool {
	return runner.Succeeds(ctx, r, runner.Command{
		Args:          []string{executable, "-m", "pip", "--version"},
		DiscardStdout: true,
	})
}

// HasZipapp reports whether the zipapp module exists, which is the oldest
// runtime able to execute the archives this tool writes.
func HasZipapp(ctx context.Context, r runner.Runner, executable string) bool {
	return runner.Succeeds(ctx, r, runner.Command{
		Args:          []string{executable, "-c", "import zipapp"},
		DiscardStdout: true,
	})
}

// CreateVenv creates a virtual environment at dir and returns the path of the
// interpreter inside it, named like executable.
func CreateVenv(ctx context.Context, r runner.Runner, executable, dir string) (string, error) {
	if _, err := runner.Run(ctx, r, runner.Command{
		Args:  []string{executable, "-m", "venv", dir},
		Check: true,
	}); err != nil {
		return "", fmt.Errorf("creating virtualenv: %w", err)
	}
	return VenvExecutable(dir, executable), nil
}

// VenvExecutable returns the interpreter path inside a virtual environment.
func VenvExecutable(venvDir, executable string) string {
	return filepath.Join(venvDir, "bin", filepath.Base(executable))
}
