package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/ceph/cephadm-build/internal/config"
	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/manifest"
	"github.com/ceph/cephadm-build/internal/python"
	"github.com/ceph/cephadm-build/internal/runner"
)

// PipBundler installs pure-Python requirements from the package index.
type PipBundler struct {
	cfg    *config.BuildConfig
	runner runner.Runner
	python string
	log    *log.Logger
}

// NewPipBundler creates a PipBundler.
func NewPipBundler(cfg *config.BuildConfig, opts Options) *PipBundler {
	return &PipBundler{
		cfg:    cfg,
		runner: opts.Runner,
		python: opts.Python,
		log:    opts.logger(),
	}
}

// Name implements Bundler.
func (b *PipBundler) Name() string { return string(config.ModePip) }

// pipPackage is one entry of `pip list --format=json`.
type pipPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Bundle implements Bundler.
func (b *PipBundler) Bundle(ctx context.Context, scratch Scratch) (*manifest.Manifest, error) {
	b.log.Info("Installing dependencies using pip")

	executable, venvDir, err := b.prepare(ctx, scratch)
	if err != nil {
		return nil, err
	}
	if venvDir != "" {
		defer func() {
			if err := os.RemoveAll(venvDir); err != nil {
				b.log.Warn("failed to remove virtualenv", "path", venvDir, "error", err)
			}
		}()
	}

	if !python.HasPip(ctx, b.runner, executable) {
		return nil, oerrors.NewUnavailableError(
			"pip module not found",
			map[string]string{"python": executable},
			"Install pip for this interpreter or use --bundled-dependencies=rpm.",
		)
	}

	env := installEnv(scratch.LibDir)
	for _, batch := range b.cfg.Batches() {
		args := append([]string{executable, "-m", "pip", "install", "--no-binary", ":all:", "--target", scratch.LibDir}, batch...)
		if _, err := runner.Run(ctx, b.runner, runner.Command{Args: args, Env: env, Check: true}); err != nil {
			return nil, fmt.Errorf("installing %v: %w", batch, err)
		}
	}

	res, err := runner.Run(ctx, b.runner, runner.Command{
		Args:          []string{executable, "-m", "pip", "list", "--format=json", "--path", scratch.LibDir},
		Check:         true,
		CaptureStdout: true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing installed packages: %w", err)
	}

	var pkgs []pipPackage
	if err := json.Unmarshal(res.Stdout, &pkgs); err != nil {
		return nil, fmt.Errorf("parsing pip list output: %w", err)
	}

	m := manifest.New(b.cfg.Requirements())
	for _, p := range pkgs {
		if !m.Add(manifest.DependencyRecord{
			Name:          p.Name,
			Version:       p.Version,
			PackageSource: manifest.SourcePip,
		}) {
			b.log.Debug("duplicate package in pip list", "name", p.Name)
		}
	}
	return m, nil
}

// prepare applies the venv policy and returns the interpreter to install
// with, plus the virtualenv directory when one was created.
func (b *PipBundler) prepare(ctx context.Context, scratch Scratch) (string, string, error) {
	policy := b.cfg.VenvPolicy()
	if !policy.Enabled() {
		b.log.Info("Continuing without a virtualenv...")
		return b.python, "", nil
	}

	if !python.HasVenv(ctx, b.runner, b.python) {
		if policy == config.VenvRequired {
			return "", "", oerrors.NewUnavailableError(
				"venv (virtual environment) module not found",
				map[string]string{"python": b.python, "pip-use-venv": string(policy)},
				"Install the venv module or pass --pip-use-venv=auto.",
			)
		}
		b.log.Warn("venv module not available, continuing without a virtualenv")
		return b.python, "", nil
	}

	b.log.Info("Attempting to create a virtualenv")
	venvDir := scratch.VenvDir()
	executable, err := python.CreateVenv(ctx, b.runner, b.python, venvDir)
	if err != nil {
		return "", "", err
	}

	// upgrading pip inside the venv is best effort
	res, err := runner.Run(ctx, b.runner, runner.Command{
		Args: []string{executable, "-m", "pip", "install", "-U", "pip"},
	})
	switch {
	case err != nil:
		b.log.Warn("pip upgrade could not run", "error", err)
	case res.ExitCode != 0:
		b.log.Warn("pip upgrade failed, continuing with the bundled pip", "status", res.ExitCode)
	}

	return executable, venvDir, nil
}

// installEnv disables compilers so only pure-Python packages install, and
// puts libDir on the import path so later batches see earlier ones.
func installEnv(libDir string) map[string]string {
	return map[string]string{
		"CC":         "/bin/false",
		"CXX":        "/bin/false",
		"LC_ALL":     "C.UTF-8",
		"PYTHONPATH": runner.AppendPathList(os.Getenv("PYTHONPATH"), libDir),
	}
}
