package osfile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/filetug/lazyfiler/pkg/files"
)

var osReadDir = os.ReadDir
var osLstat = os.Lstat
var osStat = os.Stat
var osMkdir = os.Mkdir
var osOpenFile = os.OpenFile
var osRemove = os.Remove
var osRemoveAll = os.RemoveAll
var osRename = os.Rename
var fastwalkWalk = fastwalk.Walk

var _ files.Store = (*Store)(nil)

// Store is the local filesystem.
type Store struct {
}

func NewStore() *Store {
	return &Store{}
}

func (s Store) ReadDir(ctx context.Context, name string) ([]os.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return osReadDir(name)
}

func (s Store) ReadTree(ctx context.Context, root string, descend func(dir string) bool) (map[string][]os.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root = filepath.Clean(root)
	listings := map[string][]os.DirEntry{root: nil}
	var mu sync.Mutex

	// Symlinked directories are left to the caller, a followed link may
	// point back up the tree.
	conf := &fastwalk.Config{
		Follow: false,
	}
	err := fastwalkWalk(conf, root, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fullPath = filepath.Clean(fullPath)
		if fullPath == root {
			return nil
		}
		dir := filepath.Dir(fullPath)
		mu.Lock()
		listings[dir] = append(listings[dir], d)
		mu.Unlock()
		if !d.IsDir() {
			return nil
		}
		if !descend(fullPath) {
			return fastwalk.SkipDir
		}
		mu.Lock()
		if _, ok := listings[fullPath]; !ok {
			listings[fullPath] = nil
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (s Store) Lstat(ctx context.Context, name string) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return osLstat(name)
}

func (s Store) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return osStat(name)
}

func (s Store) CreateDir(ctx context.Context, path string, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return osMkdir(path, perm)
}

func (s Store) CreateFile(ctx context.Context, path string, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := osOpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	return f.Close()
}

func (s Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return osRemove(path)
}

func (s Store) DeleteAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return osRemoveAll(path)
}

func (s Store) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return osRename(oldPath, newPath)
}
