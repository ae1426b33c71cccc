package archive

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// epoch is the modification time of every entry. It is the earliest time
// the zip format can represent.
var epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// entry is one file or directory of the staged tree.
type entry struct {
	name string
	path string
	info fs.FileInfo
}

// collect returns the entries under root sorted by archive name.
func collect(root string) ([]entry, error) {
	var entries []entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}
		name := filepath.ToSlash(rel)
		if info.IsDir() {
			name += "/"
		}
		entries = append(entries, entry{name: name, path: path, info: info})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

// writeZipapp writes the interpreter line followed by a zip of root. Entry
// order and timestamps are fixed, so equal trees give equal archives.
func writeZipapp(w io.Writer, root, interpreter string, method uint16) error {
	bw := bufio.NewWriter(w)

	shebang := "#!" + interpreter + "\n"
	if _, err := bw.WriteString(shebang); err != nil {
		return err
	}

	zw := zip.NewWriter(bw)
	zw.SetOffset(int64(len(shebang)))
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	entries, err := collect(root)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := addEntry(zw, e, method); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return err
	}
	return bw.Flush()
}

func addEntry(zw *zip.Writer, e entry, method uint16) error {
	fh := &zip.FileHeader{
		Name:     e.name,
		Method:   method,
		Modified: epoch,
	}
	if e.info.IsDir() {
		fh.Method = zip.Store
		fh.SetMode(fs.ModeDir | 0o755)
		_, err := zw.CreateHeader(fh)
		return err
	}
	fh.SetMode(e.info.Mode().Perm())

	w, err := zw.CreateHeader(fh)
	if err != nil {
		return err
	}

	f, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
