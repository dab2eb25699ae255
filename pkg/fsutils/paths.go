package fsutils

import (
	"path/filepath"
	"strings"
)

// IsWithin reports whether path is dir itself or lies below it. Paths are
// compared component-wise so /a/bc is not within /a/b.
func IsWithin(path, dir string) bool {
	if path == dir {
		return true
	}
	if dir == string(filepath.Separator) {
		return strings.HasPrefix(path, dir)
	}
	return strings.HasPrefix(path, dir) && path[len(dir)] == filepath.Separator
}

// ReplacePrefix moves path from below oldDir to the same place below newDir.
func ReplacePrefix(path, oldDir, newDir string) (string, bool) {
	if !IsWithin(path, oldDir) {
		return path, false
	}
	return filepath.Join(newDir, strings.TrimPrefix(path, oldDir)), true
}

// ResolveTarget interprets target relative to dir. Absolute targets are
// returned cleaned, "." and ".." are applied lexically.
func ResolveTarget(dir, target string) string {
	target = ExpandHome(target)
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(dir, target)
}

// CommonDir returns the deepest directory both a and b lie within.
func CommonDir(a, b string) string {
	dir := filepath.Dir(a)
	for !IsWithin(b, dir) {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dir
}
