// Package bundler materializes the dependencies of the archive into the
// staging tree, from either the package index or the host's rpm database.
package bundler

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/ceph/cephadm-build/internal/config"
	"github.com/ceph/cephadm-build/internal/manifest"
	"github.com/ceph/cephadm-build/internal/output"
	"github.com/ceph/cephadm-build/internal/runner"
)

// venvDirName is the transient virtual environment inside the scratch tree.
const venvDirName = "_venv_"

// Scratch is the part of the staging tree a bundler writes to.
type Scratch struct {
	// Root is the scratch directory owned by the build.
	Root string

	// LibDir receives the bundled packages. It is the archive's import root.
	LibDir string
}

// VenvDir returns the location of the transient virtual environment.
func (s Scratch) VenvDir() string {
	return filepath.Join(s.Root, venvDirName)
}

// Bundler installs the configured requirements into a scratch tree and
// reports what it bundled.
type Bundler interface {
	// Name identifies the strategy in logs.
	Name() string

	// Bundle populates scratch.LibDir. Any error is fatal to the build.
	Bundle(ctx context.Context, scratch Scratch) (*manifest.Manifest, error)
}

// Options are shared by all bundlers.
type Options struct {
	// Runner executes child processes.
	Runner runner.Runner

	// Python is the absolute path of the build interpreter.
	Python string

	// Logger receives progress messages. nil means the global logger.
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return output.Logger()
}

// New returns the bundler for the configured dependency mode, or nil when no
// dependencies are bundled.
func New(cfg *config.BuildConfig, opts Options) (Bundler, error) {
	switch cfg.Mode() {
	case config.ModePip:
		return NewPipBundler(cfg, opts), nil
	case config.ModeRPM:
		return NewRPMBundler(cfg, opts), nil
	case config.ModeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected dependency mode %q", cfg.Mode())
	}
}
