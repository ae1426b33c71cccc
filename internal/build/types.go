// Package build assembles the cephadm zipapp: it owns the scratch tree,
// runs the configured bundler, stages the application sources and build
// metadata, and hands the tree to the archive emitter.
package build

import (
	"context"
	"path/filepath"

	"github.com/ceph/cephadm-build/internal/config"
	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/fsutil"
	"github.com/ceph/cephadm-build/internal/manifest"
	"github.com/ceph/cephadm-build/internal/metadata"
)

// Emitter compiles a staged tree and writes the archive.
type Emitter interface {
	Emit(ctx context.Context, dir, dest string) error
}

// Options configures one build invocation.
type Options struct {
	// SourceDir contains cephadm.py and the cephadmlib package.
	// Required.
	SourceDir string

	// Dest is the path of the archive to write.
	// Required. Its parent directory must exist.
	Dest string

	// VersionVars are written to the generated version module.
	// Optional. No version module is written when empty.
	VersionVars []config.VersionVar
}

// Validate checks that the source tree and destination are usable.
func (o Options) Validate() error {
	if o.Dest == "" {
		return oerrors.NewValidationError("destination path is required", "dest", "")
	}
	if dir := filepath.Dir(o.Dest); !fsutil.IsDir(dir) {
		return oerrors.NewNotFoundError("destination directory does not exist", dir, "")
	}
	if fsutil.IsDir(o.Dest) {
		return oerrors.NewValidationError("destination is a directory", "dest", "Pass the path of the archive file to write.")
	}

	entry := filepath.Join(o.SourceDir, metadata.SourceEntry)
	if !fsutil.Exists(entry) {
		return oerrors.NewNotFoundError(
			"cephadm entry point not found",
			entry,
			"Run from src/cephadm or pass --source.",
		)
	}
	lib := filepath.Join(o.SourceDir, metadata.LibDir)
	if !fsutil.IsDir(lib) {
		return oerrors.NewNotFoundError("cephadmlib package not found", lib, "Run from src/cephadm or pass --source.")
	}
	return nil
}

// Result describes a finished build.
type Result struct {
	// BuildID identifies the build in logs.
	BuildID string

	// Dest is the written archive.
	Dest string

	// Manifest lists the bundled dependencies. nil when none were bundled.
	Manifest *manifest.Manifest

	// TreeDigest is the BLAKE3 digest of the staged tree.
	TreeDigest string
}

// DependencyCount returns the number of bundled dependencies.
func (r *Result) DependencyCount() int {
	if r.Manifest == nil {
		return 0
	}
	return r.Manifest.Len()
}
