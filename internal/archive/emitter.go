// Package archive compiles a staged tree and writes it out as a
// self-executing Python zip application.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"

	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/output"
	"github.com/ceph/cephadm-build/internal/python"
	"github.com/ceph/cephadm-build/internal/runner"
)

// compileScript byte-compiles sys.argv[1] in place, writing legacy .pyc
// files next to the sources so zipimport finds them.
const compileScript = "import compileall, sys; " +
	"sys.exit(0 if compileall.compile_dir(sys.argv[1], maxlevels=16, legacy=True, quiet=1, workers=0) else 1)"

// Options configure an Emitter.
type Options struct {
	// Runner executes the byte compiler.
	Runner runner.Runner

	// Python is the absolute interpreter path, compiled into the shebang.
	Python string

	// Compress selects deflate for file entries.
	Compress bool

	// Logger receives progress messages. nil means the global logger.
	Logger *log.Logger
}

// Emitter turns a staged tree into the final archive.
type Emitter struct {
	runner   runner.Runner
	python   string
	compress bool
	method   uint16
	log      *log.Logger
}

// NewEmitter creates an Emitter.
func NewEmitter(opts Options) *Emitter {
	l := opts.Logger
	if l == nil {
		l = output.Logger()
	}
	return &Emitter{
		runner:   opts.Runner,
		python:   opts.Python,
		compress: opts.Compress,
		method:   zip.Deflate,
		log:      l,
	}
}

// CheckRuntime fails with ErrArchiver when the interpreter lacks the zipapp
// module and so cannot be the target of a zip application.
func (e *Emitter) CheckRuntime(ctx context.Context) error {
	if python.HasZipapp(ctx, e.runner, e.python) {
		return nil
	}
	return &oerrors.DetailError{
		Type:    "capability unavailable",
		Message: "the zipapp module is not available in this python",
		Context: map[string]string{"python": e.python},
		Hint:    "Build with Python 3.5 or newer.",
		Cause:   oerrors.ErrArchiver,
	}
}

// Emit byte-compiles dir and writes the archive to dest.
func (e *Emitter) Emit(ctx context.Context, dir, dest string) error {
	if err := e.Compile(ctx, dir); err != nil {
		return err
	}
	return output.RunWithSpinner(ctx, func() error {
		return e.Write(dir, dest)
	}, output.WithTitle("Writing "+filepath.Base(dest)))
}

// Compile byte-compiles every source under dir. Files that fail to compile
// are logged and left as source; only failing to run the compiler is fatal.
func (e *Emitter) Compile(ctx context.Context, dir string) error {
	e.log.Info("Byte-compiling sources", "dir", dir)
	res, err := runner.Run(ctx, e.runner, runner.Command{
		Args:          []string{e.python, "-c", compileScript, dir},
		DiscardStdout: true,
	})
	if err != nil {
		return fmt.Errorf("running byte compiler: %w", err)
	}
	if res.ExitCode != 0 {
		e.log.Warn("some sources failed to byte-compile", "status", res.ExitCode)
	}
	return nil
}

// Write packs dir into an executable archive at dest. The archive is
// assembled in a temporary file beside dest and renamed into place, so dest
// only ever appears complete.
func (e *Emitter) Write(dir, dest string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return oerrors.WrapPermission(err, "creating temporary archive")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	method := zip.Store
	if e.compress {
		method = e.method
	}

	err = writeZipapp(tmp, dir, e.python, method)
	// guards a writer without the method registered
	if errors.Is(err, zip.ErrAlgorithm) && method != zip.Store {
		e.log.Warn("compression unsupported, writing an uncompressed archive", "method", method)
		if err = rewind(tmp); err != nil {
			return err
		}
		err = writeZipapp(tmp, dir, e.python, zip.Store)
	}
	if err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}

	if err = tmp.Chmod(0o755); err != nil {
		return fmt.Errorf("setting archive mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("moving archive into place: %w", err)
	}

	e.log.Info("Wrote archive", "dest", dest)
	return nil
}

func rewind(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncating archive: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("rewinding archive: %w", err)
	}
	return nil
}
