package gitutils

import (
	"path/filepath"
)

// RepositoryRoot walks up from dirPath to the directory holding .git.
// It returns "" outside of a repository.
func RepositoryRoot(dirPath string) string {
	dirPath, err := filepathAbs(dirPath)
	if err != nil {
		return ""
	}
	for {
		if stat, err := osStat(filepath.Join(dirPath, ".git")); err == nil && stat.IsDir() {
			return dirPath
		}
		parent := filepath.Dir(dirPath)
		if parent == dirPath {
			return ""
		}
		dirPath = parent
	}
}
