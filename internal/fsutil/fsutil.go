// Package fsutil copies source trees into the build staging area.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	oerrors "github.com/ceph/cephadm-build/internal/errors"
)

// IgnoreFunc reports whether the directory entry name should be skipped.
type IgnoreFunc func(name string) bool

// DefaultIgnoreSuffixes are editor backups, bytecode, native extensions and
// bytecode caches. None of these may end up in the archive.
var DefaultIgnoreSuffixes = []string{"~", ".old", ".swp", ".pyc", ".pyo", ".so", "__pycache__"}

// IgnoreSuffixes returns an IgnoreFunc matching names ending in any suffix.
func IgnoreSuffixes(suffixes ...string) IgnoreFunc {
	return func(name string) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(name, s) {
				return true
			}
		}
		return false
	}
}

// DefaultIgnore applies DefaultIgnoreSuffixes.
var DefaultIgnore = IgnoreSuffixes(DefaultIgnoreSuffixes...)

// CopyFile copies src to dst, preserving the permission bits of src.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return oerrors.WrapPermission(err, "copying file")
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return oerrors.WrapPermission(err, "copying file")
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Chmod(dst, info.Mode().Perm())
}

// CopyTree recursively copies src into dst, skipping any entry for which
// ignore returns true. Symbolic links are followed, except a directory link
// that resolves to one of its own ancestors, which is skipped. dst must not
// exist.
func CopyTree(src, dst string, ignore IgnoreFunc) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("copying %s: destination %s already exists", src, dst)
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return copyDir(src, dst, ignore, []os.FileInfo{info})
}

// copyDir copies src into dst. ancestors holds src and every directory above
// it in the walk.
func copyDir(src, dst string, ignore IgnoreFunc, ancestors []os.FileInfo) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return oerrors.WrapPermission(err, "copying tree")
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return oerrors.WrapPermission(err, "copying tree")
	}

	for _, entry := range entries {
		if ignore != nil && ignore(entry.Name()) {
			continue
		}
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		info, err := os.Stat(srcPath)
		if err != nil {
			return err
		}

		switch {
		case info.IsDir():
			if isAncestor(info, ancestors) {
				continue
			}
			err = copyDir(srcPath, dstPath, ignore, append(ancestors[:len(ancestors):len(ancestors)], info))
		case info.Mode().IsRegular():
			err = CopyFile(srcPath, dstPath)
		default:
			// sockets, fifos and devices have no place in an archive
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func isAncestor(info os.FileInfo, ancestors []os.FileInfo) bool {
	for _, a := range ancestors {
		if os.SameFile(info, a) {
			return true
		}
	}
	return false
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
