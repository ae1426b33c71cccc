// Package testutil provides test helpers for cephadm-build tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// WriteFile creates a file with the given content in the specified directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// ListFiles returns the slash-separated relative paths of all regular files
// under root, sorted.
func ListFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk %s: %v", root, err)
	}
	sort.Strings(files)
	return files
}

// SourceTree creates a minimal cephadm source tree (cephadm.py plus the
// cephadmlib package) and returns its path.
func SourceTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, dir, "cephadm.py", "import cephadmlib\n\ndef main():\n    pass\n")
	WriteFile(t, dir, "cephadmlib/__init__.py", "")
	WriteFile(t, dir, "cephadmlib/constants.py", "DEFAULT_IMAGE = 'quay.io/ceph/ceph'\n")
	WriteFile(t, dir, "cephadmlib/__pycache__/constants.cpython-39.pyc", "bytecode")
	WriteFile(t, dir, "cephadmlib/constants.py~", "backup")
	return dir
}
