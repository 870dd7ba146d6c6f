package utils

import (
	"net/url"
	"os"
	"path/filepath"
)

// EnsureDir creates the directory if it does not exist.
func EnsureDir(dirPath string) error {
	return os.MkdirAll(dirPath, 0o755)
}

// SafeJoin joins baseDir with the basename of name, guarding against path
// traversal in caller-supplied file names.
func SafeJoin(baseDir, name string) string {
	return filepath.Join(baseDir, filepath.Base(name))
}

// SafeUnlink removes a file, reporting success as a bool.
func SafeUnlink(absPath string) bool {
	return os.Remove(absPath) == nil
}

// BasenameFromURL extracts the file basename from a stored picURL. Returns
// "" for empty or undecodable input.
func BasenameFromURL(u string) string {
	if u == "" {
		return ""
	}
	decoded, err := url.QueryUnescape(u)
	if err != nil {
		decoded = u
	}
	base := filepath.Base(decoded)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
