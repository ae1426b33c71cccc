package archive

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"lukechampine.com/blake3"
)

// digestSize is the BLAKE3 output length in bytes.
const digestSize = 32

// TreeDigest returns a BLAKE3 digest over the names, modes and contents of
// every entry under root, in archive order. Two staged trees with the same
// digest produce the same archive.
func TreeDigest(root string) (string, error) {
	entries, err := collect(root)
	if err != nil {
		return "", fmt.Errorf("walking %s: %w", root, err)
	}

	h := blake3.New(digestSize, nil)
	for _, e := range entries {
		fmt.Fprintf(h, "%s\x00%o\x00", e.name, e.info.Mode().Perm())
		if e.info.IsDir() {
			continue
		}
		sum, err := FileDigest(e.path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\x00", sum)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileDigest returns the hex BLAKE3 digest of the file at path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(digestSize, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
