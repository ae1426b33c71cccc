package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ceph/cephadm-build/internal/archive"
	"github.com/ceph/cephadm-build/internal/bundler"
	"github.com/ceph/cephadm-build/internal/config"
	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/fsutil"
	"github.com/ceph/cephadm-build/internal/manifest"
	"github.com/ceph/cephadm-build/internal/metadata"
	"github.com/ceph/cephadm-build/internal/output"
	"github.com/ceph/cephadm-build/internal/runner"
)

// scratchPattern names scratch directories under the system temp dir.
const scratchPattern = "*.cephadm.build"

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	// Runner executes child processes.
	Runner runner.Runner

	// Python is the absolute path of the build interpreter.
	Python string

	// Compress selects a compressed archive.
	Compress bool

	// Emitter writes the archive. nil means an archive.Emitter built from
	// the fields above.
	Emitter Emitter

	// TempDir is where the scratch tree is created. Empty means os.TempDir.
	TempDir string
}

// Orchestrator runs builds for one BuildConfig.
type Orchestrator struct {
	id      string
	cfg     *config.BuildConfig
	bundler bundler.Bundler
	emitter Emitter
	tempDir string
	log     *log.Logger
}

// New creates an Orchestrator. The bundler is chosen here, once, from the
// configured dependency mode.
func New(cfg *config.BuildConfig, deps Deps) (*Orchestrator, error) {
	id := uuid.NewString()
	logger := output.BuildLogger(id[:8])

	b, err := bundler.New(cfg, bundler.Options{
		Runner: deps.Runner,
		Python: deps.Python,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	emitter := deps.Emitter
	if emitter == nil {
		emitter = archive.NewEmitter(archive.Options{
			Runner:   deps.Runner,
			Python:   deps.Python,
			Compress: deps.Compress,
			Logger:   logger,
		})
	}

	return &Orchestrator{
		id:      id,
		cfg:     cfg,
		bundler: b,
		emitter: emitter,
		tempDir: deps.TempDir,
		log:     logger,
	}, nil
}

// ID returns the build identifier.
func (o *Orchestrator) ID() string { return o.id }

// Build runs one build. The scratch tree is removed on every return path,
// and Dest is only written when every step succeeded.
func (o *Orchestrator) Build(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	scratch, err := os.MkdirTemp(o.tempDir, scratchPattern)
	if err != nil {
		return nil, oerrors.WrapPermission(err, "creating scratch directory")
	}
	o.log.Debug("created scratch directory", "path", scratch)
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			o.log.Warn("failed to remove scratch directory", "path", scratch, "error", err)
			return
		}
		o.log.Debug("removed scratch directory", "path", scratch)
	}()

	res := &Result{BuildID: o.id, Dest: opts.Dest}

	if o.bundler != nil {
		m, err := o.bundler.Bundle(ctx, bundler.Scratch{Root: scratch, LibDir: scratch})
		if err != nil {
			return nil, fmt.Errorf("bundling %s dependencies: %w", o.bundler.Name(), err)
		}
		res.Manifest = m
	} else {
		o.log.Info("Skipping dependency installation")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := stageSources(opts.SourceDir, scratch, o.log); err != nil {
		return nil, err
	}
	if err := writeMetadata(scratch, opts.VersionVars, res.Manifest); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	digest, err := archive.TreeDigest(scratch)
	if err != nil {
		return nil, fmt.Errorf("hashing staged tree: %w", err)
	}
	res.TreeDigest = digest
	o.log.Info("Staged tree", "digest", digest, "dependencies", res.DependencyCount())

	if err := o.emitter.Emit(ctx, scratch, opts.Dest); err != nil {
		return nil, err
	}
	return res, nil
}

// stageSources copies cephadmlib and installs cephadm.py as the entry point.
func stageSources(src, scratch string, l *log.Logger) error {
	libSrc := filepath.Join(src, metadata.LibDir)
	libDest := filepath.Join(scratch, metadata.LibDir)
	l.Info("Copying contents", "from", libSrc, "to", libDest)
	if err := fsutil.CopyTree(libSrc, libDest, fsutil.DefaultIgnore); err != nil {
		return fmt.Errorf("copying %s: %w", metadata.LibDir, err)
	}

	entry := filepath.Join(src, metadata.SourceEntry)
	if err := fsutil.CopyFile(entry, filepath.Join(scratch, metadata.EntryPoint)); err != nil {
		return fmt.Errorf("copying %s: %w", metadata.SourceEntry, err)
	}
	return nil
}

// writeMetadata creates the metadata package with the optional version
// module and dependency manifest.
func writeMetadata(scratch string, vars []config.VersionVar, m *manifest.Manifest) error {
	if err := os.MkdirAll(filepath.Join(scratch, metadata.MetaDir), 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(scratch, metadata.MetaInit), nil, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", metadata.MetaInit, err)
	}
	if len(vars) > 0 {
		if err := metadata.WriteVersionFile(filepath.Join(scratch, metadata.VersionFile), vars); err != nil {
			return err
		}
	}
	if m != nil {
		if err := m.Save(filepath.Join(scratch, metadata.ManifestFile)); err != nil {
			return err
		}
	}
	return nil
}
