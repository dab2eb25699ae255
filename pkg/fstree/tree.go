package fstree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/filetug/lazyfiler/pkg/files"
	"github.com/filetug/lazyfiler/pkg/fsperm"
)

// Tree caches the filesystem below "/" as seen through a store.
type Tree struct {
	store files.Store
	root  *Dir
}

func New(store files.Store) *Tree {
	return &Tree{store: store, root: NewDir()}
}

func (t *Tree) Root() *Dir {
	return t.root
}

func components(path string) ([]string, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotAbsolute, path)
	}
	path = filepath.Clean(path)
	rel := strings.TrimPrefix(path, string(filepath.Separator))
	if rel == "" {
		return nil, nil
	}
	return strings.Split(rel, string(filepath.Separator)), nil
}

// Resolve returns the cached directory for path, materializing missing
// directories on the way with permissions read from disk. Directory contents
// are not read.
func (t *Tree) Resolve(ctx context.Context, path string) (*Dir, error) {
	parts, err := components(path)
	if err != nil {
		return nil, err
	}
	dir := t.root
	realPath := string(filepath.Separator)
	for _, name := range parts {
		realPath = filepath.Join(realPath, name)
		n, ok := dir.Get(name)
		if !ok {
			if n, err = t.materialize(ctx, realPath); err != nil {
				return nil, err
			}
			n = dir.insertIfAbsent(name, n)
		}
		r := n.Resolved()
		if r.Kind != KindDirectory || r.Dir == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotDir, realPath)
		}
		dir = r.Dir
	}
	return dir, nil
}

func (t *Tree) materialize(ctx context.Context, realPath string) (Node, error) {
	info, err := t.store.Lstat(ctx, realPath)
	if err != nil {
		return Node{}, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := t.store.Stat(ctx, realPath)
		if err != nil {
			return Node{}, err
		}
		if !target.IsDir() {
			return Node{}, fmt.Errorf("%w: %s", ErrNotDir, realPath)
		}
		return LinkNode(DirNode(fsperm.FromFileInfo(target))), nil
	}
	if !info.IsDir() {
		return Node{}, fmt.Errorf("%w: %s", ErrNotDir, realPath)
	}
	return DirNode(fsperm.FromFileInfo(info)), nil
}

// Lookup finds the cached node for path without touching disk.
func (t *Tree) Lookup(path string) (Node, bool) {
	parts, err := components(path)
	if err != nil {
		return Node{}, false
	}
	n := Node{Kind: KindDirectory, Dir: t.root}
	for _, name := range parts {
		r := n.Resolved()
		if r.Kind != KindDirectory || r.Dir == nil {
			return Node{}, false
		}
		child, ok := r.Dir.Get(name)
		if !ok {
			return Node{}, false
		}
		n = child
	}
	return n, true
}
