package files

import (
	"context"
	"os"
)

// Store is the filesystem the filer mirrors. Every call may block on I/O and
// callers must not hold locks across it.
type Store interface {
	ReadDir(ctx context.Context, name string) ([]os.DirEntry, error)

	// ReadTree lists root and every real directory below it for which descend
	// returns true. Symbolic links are listed but never followed. The result
	// is keyed by directory path; a failure to read any selected directory
	// fails the whole call.
	ReadTree(ctx context.Context, root string, descend func(dir string) bool) (map[string][]os.DirEntry, error)

	Lstat(ctx context.Context, name string) (os.FileInfo, error)
	Stat(ctx context.Context, name string) (os.FileInfo, error)

	CreateDir(ctx context.Context, path string, perm os.FileMode) error
	// CreateFile creates an empty regular file and fails if path exists.
	CreateFile(ctx context.Context, path string, perm os.FileMode) error

	// Delete removes a file, a symbolic link or an empty directory.
	Delete(ctx context.Context, path string) error
	DeleteAll(ctx context.Context, path string) error
	Rename(ctx context.Context, oldPath, newPath string) error
}
