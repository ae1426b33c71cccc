package archive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/ceph/cephadm-build/internal/config"
	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/manifest"
	"github.com/ceph/cephadm-build/internal/metadata"
)

// Info describes a built archive.
type Info struct {
	Path         string                      `json:"path"`
	Interpreter  string                      `json:"interpreter"`
	Digest       string                      `json:"digest"`
	Size         int64                       `json:"size"`
	Entries      int                         `json:"entries"`
	Compressed   bool                        `json:"compressed"`
	VersionVars  []config.VersionVar         `json:"versionVars,omitempty"`
	Dependencies []manifest.DependencyRecord `json:"dependencies"`
}

// Inspect reads the interpreter line, build metadata and dependency
// manifest from the archive at path.
func Inspect(path string) (*Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oerrors.NewNotFoundError("archive not found", path, "")
		}
		return nil, err
	}

	interpreter, err := readInterpreter(path)
	if err != nil {
		return nil, err
	}

	digest, err := FileDigest(path)
	if err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	info := &Info{
		Path:         path,
		Interpreter:  interpreter,
		Digest:       digest,
		Size:         st.Size(),
		Entries:      len(zr.File),
		Dependencies: []manifest.DependencyRecord{},
	}

	for _, f := range zr.File {
		if f.Method == zip.Deflate {
			info.Compressed = true
		}
		switch f.Name {
		case metadata.VersionFile:
			data, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			if info.VersionVars, err = metadata.ParseVersionFile(data); err != nil {
				return nil, fmt.Errorf("reading %s: %w", f.Name, err)
			}
		case metadata.ManifestFile:
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", f.Name, err)
			}
			info.Dependencies, err = manifest.Decode(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", f.Name, err)
			}
		}
	}

	return info, nil
}

// readInterpreter returns the interpreter named on the shebang line, or ""
// for an archive without one.
func readInterpreter(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if !strings.HasPrefix(line, "#!") {
		return "", nil
	}
	return strings.TrimSpace(strings.TrimPrefix(line, "#!")), nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
