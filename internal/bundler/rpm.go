package bundler

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ceph/cephadm-build/internal/config"
	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/fsutil"
	"github.com/ceph/cephadm-build/internal/manifest"
	"github.com/ceph/cephadm-build/internal/runner"
)

// topLevelFile lists the importable top-level names of an installed
// distribution. Its parent is the distribution's metadata directory.
const topLevelFile = "top_level.txt"

// rpmQueryFormat prints version, release and epoch on one line.
const rpmQueryFormat = `%{version} %{release} %{epoch}\n`

// RPMBundler copies requirements out of installed rpm packages.
type RPMBundler struct {
	cfg    *config.BuildConfig
	runner runner.Runner
	log    *log.Logger
	rpm    string
}

// NewRPMBundler creates an RPMBundler.
func NewRPMBundler(cfg *config.BuildConfig, opts Options) *RPMBundler {
	return &RPMBundler{
		cfg:    cfg,
		runner: opts.Runner,
		log:    opts.logger(),
		rpm:    "rpm",
	}
}

// Name implements Bundler.
func (b *RPMBundler) Name() string { return string(config.ModeRPM) }

// Bundle implements Bundler. The first requirement that cannot be resolved
// aborts the build; later requirements are not touched.
func (b *RPMBundler) Bundle(ctx context.Context, scratch Scratch) (*manifest.Manifest, error) {
	b.log.Info("Installing dependencies using RPMs")

	m := manifest.New(b.cfg.Requirements())
	for _, req := range b.cfg.Requirements() {
		b.log.Info("Looking for rpm package", "requirement", req)
		if err := b.bundleOne(ctx, scratch, m, req); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (b *RPMBundler) bundleOne(ctx context.Context, scratch Scratch, m *manifest.Manifest, req string) error {
	pkg, err := b.whatProvides(ctx, req)
	if err != nil {
		return err
	}

	rec, err := b.queryVersion(ctx, req, pkg)
	if err != nil {
		return err
	}
	b.log.Info("RPM package", "name", pkg, "version", rec.Version, "release", rec.RPMRelease, "epoch", rec.RPMEpoch)
	m.Add(rec)

	res, err := runner.Run(ctx, b.runner, runner.Command{
		Args:          []string{b.rpm, "-ql", pkg},
		Check:         true,
		CaptureStdout: true,
	})
	if err != nil {
		return fmt.Errorf("listing files of %s: %w", pkg, err)
	}

	topLevel := findTopLevel(res.Stdout)
	if topLevel == "" {
		return oerrors.NewNotFoundError(
			fmt.Sprintf("%s not found in rpm package %s", topLevelFile, pkg),
			pkg,
			"The package must ship egg-info or dist-info metadata.",
		)
	}

	return b.copyPackage(scratch.LibDir, topLevel)
}

// whatProvides resolves the rpm package providing python3dist(req).
func (b *RPMBundler) whatProvides(ctx context.Context, req string) (string, error) {
	capability := strings.ToLower(fmt.Sprintf("python3dist(%s)", req))
	res, err := runner.Run(ctx, b.runner, runner.Command{
		Args:          []string{b.rpm, "-q", "--whatprovides", capability},
		CaptureStdout: true,
	})
	if err != nil {
		return "", fmt.Errorf("querying rpm for %s: %w", req, err)
	}
	if res.ExitCode != 0 {
		return "", oerrors.NewNotFoundError(
			fmt.Sprintf("an installed rpm package for %s was not found", req),
			capability,
			"Install the package providing "+capability+" or use --bundled-dependencies=pip.",
		)
	}

	lines := nonEmptyLines(res.Stdout)
	switch len(lines) {
	case 0:
		return "", oerrors.NewNotFoundError(
			fmt.Sprintf("an installed rpm package for %s was not found", req),
			capability,
			"",
		)
	case 1:
		return lines[0], nil
	default:
		return "", oerrors.NewNotFoundError(
			fmt.Sprintf("no unique rpm package for %s, candidates: %s", req, strings.Join(lines, ", ")),
			capability,
			"Remove the conflicting packages so exactly one provides "+capability+".",
		)
	}
}

func (b *RPMBundler) queryVersion(ctx context.Context, req, pkg string) (manifest.DependencyRecord, error) {
	res, err := runner.Run(ctx, b.runner, runner.Command{
		Args:          []string{b.rpm, "-q", "--qf", rpmQueryFormat, pkg},
		Check:         true,
		CaptureStdout: true,
	})
	if err != nil {
		return manifest.DependencyRecord{}, fmt.Errorf("querying version of %s: %w", pkg, err)
	}

	lines := nonEmptyLines(res.Stdout)
	var fields []string
	if len(lines) > 0 {
		fields = strings.Fields(lines[0])
	}
	if len(fields) != 3 {
		return manifest.DependencyRecord{}, fmt.Errorf("unexpected rpm query output for %s: %q", pkg, string(res.Stdout))
	}

	return manifest.DependencyRecord{
		Name:          req,
		Version:       fields[0],
		PackageSource: manifest.SourceRPM,
		RPMName:       pkg,
		RPMRelease:    fields[1],
		RPMEpoch:      fields[2],
	}, nil
}

// copyPackage copies the metadata directory holding topLevel and every
// top-level package it names into libDir.
func (b *RPMBundler) copyPackage(libDir, topLevel string) error {
	data, err := os.ReadFile(topLevel)
	if err != nil {
		return fmt.Errorf("reading %s: %w", topLevel, err)
	}

	metaDir := filepath.Dir(topLevel)
	siteDir := filepath.Dir(metaDir)

	metaDest := filepath.Join(libDir, filepath.Base(metaDir))
	b.log.Info("Copying metadata", "from", metaDir, "to", metaDest)
	if err := fsutil.CopyTree(metaDir, metaDest, fsutil.DefaultIgnore); err != nil {
		return fmt.Errorf("copying %s: %w", metaDir, err)
	}

	for _, name := range nonEmptyLines(data) {
		src := filepath.Join(siteDir, name)
		if fsutil.IsDir(src) {
			dest := filepath.Join(libDir, filepath.Base(src))
			b.log.Info("Copying package", "from", src, "to", dest)
			if err := fsutil.CopyTree(src, dest, fsutil.DefaultIgnore); err != nil {
				return fmt.Errorf("copying %s: %w", src, err)
			}
			continue
		}

		module := src + ".py"
		if !fsutil.Exists(module) {
			return oerrors.NewNotFoundError(
				fmt.Sprintf("top-level name %q listed in %s does not exist", name, topLevel),
				siteDir,
				"",
			)
		}
		dest := filepath.Join(libDir, filepath.Base(module))
		b.log.Info("Copying module", "from", module, "to", dest)
		if err := fsutil.CopyFile(module, dest); err != nil {
			return fmt.Errorf("copying %s: %w", module, err)
		}
	}
	return nil
}

// findTopLevel returns the last top_level.txt in an rpm file list.
func findTopLevel(fileList []byte) string {
	var found string
	for _, path := range nonEmptyLines(fileList) {
		if strings.HasSuffix(path, topLevelFile) {
			found = path
		}
	}
	return found
}

func nonEmptyLines(data []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
