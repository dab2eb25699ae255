package fstree

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/filetug/lazyfiler/pkg/fsperm"
	"github.com/filetug/lazyfiler/pkg/fsutils"
	"github.com/filetug/lazyfiler/pkg/logging"
	"github.com/filetug/lazyfiler/pkg/metrics"
)

// Reconcile brings the children of dir in line with the directory at
// realPath. Unchanged subdirectories keep their cached contents. Any read
// error leaves dir untouched.
func (t *Tree) Reconcile(ctx context.Context, dir *Dir, realPath string) error {
	entries, err := t.store.ReadDir(ctx, realPath)
	if err != nil {
		return err
	}
	return t.reconcileEntries(ctx, dir, realPath, entries)
}

// ReconcileRecursive reconciles dir, every directory below it that expanded
// accepts, and the immediate subdirectories of those. level is the row level
// of dir's children, the walk stops descending at MaxLevel.
//
// Listings are prefetched concurrently. A read error on dir itself aborts,
// unreadable descendants are skipped.
func (t *Tree) ReconcileRecursive(ctx context.Context, dir *Dir, realPath string, level int, expanded func(string) bool) error {
	listings := t.prefetch(ctx, realPath, level, expanded)

	type frame struct {
		dir   *Dir
		path  string
		level int
	}
	stack := []frame{{dir: dir, path: realPath, level: level}}
	first := true
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := t.reconcileListed(ctx, listings, f.dir, f.path); err != nil {
			if first {
				return err
			}
			logging.Debug("skipping unreadable directory", logging.String("path", f.path), logging.Err(err))
			continue
		}
		first = false

		for _, e := range f.dir.entries() {
			r := e.node.Resolved()
			if r.Kind != KindDirectory || r.Dir == nil {
				continue
			}
			childPath := filepath.Join(f.path, e.name)
			if f.level < MaxLevel && expanded(childPath) {
				stack = append(stack, frame{dir: r.Dir, path: childPath, level: f.level + 1})
				continue
			}
			if err := t.reconcileListed(ctx, listings, r.Dir, childPath); err != nil {
				logging.Debug("skipping unreadable directory", logging.String("path", childPath), logging.Err(err))
			}
		}
	}
	return nil
}

func (t *Tree) reconcileListed(ctx context.Context, listings map[string][]os.DirEntry, dir *Dir, realPath string) error {
	entries, ok := listings[realPath]
	if !ok {
		return t.Reconcile(ctx, dir, realPath)
	}
	return t.reconcileEntries(ctx, dir, realPath, entries)
}

// prefetch reads in one concurrent walk every directory ReconcileRecursive
// will visit. Directories behind symbolic links are not included. Failures
// are not fatal, the walk then reads directories one by one.
func (t *Tree) prefetch(ctx context.Context, realPath string, level int, expanded func(string) bool) map[string][]os.DirEntry {
	info, err := t.store.Lstat(ctx, realPath)
	if err != nil || !info.IsDir() {
		return nil
	}
	visited := func(p string) bool {
		for p != realPath {
			if !fsutils.IsWithin(p, realPath) {
				return false
			}
			rel, err := filepath.Rel(realPath, p)
			if err != nil {
				return false
			}
			rowLevel := level + strings.Count(rel, string(filepath.Separator))
			if rowLevel >= MaxLevel || !expanded(p) {
				return false
			}
			p = filepath.Dir(p)
		}
		return true
	}
	listings, err := t.store.ReadTree(ctx, realPath, func(dir string) bool {
		return visited(filepath.Dir(dir))
	})
	if err != nil {
		logging.Debug("prefetch failed", logging.String("path", realPath), logging.Err(err))
		return nil
	}
	return listings
}

func (t *Tree) reconcileEntries(ctx context.Context, dir *Dir, realPath string, entries []os.DirEntry) error {
	fresh := make(map[string]Node, len(entries))
	for _, e := range entries {
		n, err := t.classify(ctx, filepath.Join(realPath, e.Name()), e)
		if err != nil {
			return err
		}
		fresh[e.Name()] = n
	}
	metrics.AddNodesReconciled(len(fresh))
	dir.merge(fresh)
	return nil
}

func (t *Tree) classify(ctx context.Context, path string, e os.DirEntry) (Node, error) {
	info, err := e.Info()
	if err != nil {
		return Node{}, err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return nodeFromInfo(info), nil
	}
	target, err := t.store.Stat(ctx, path)
	if err != nil {
		// dangling or unreadable target
		return LinkNode(OtherNode()), nil
	}
	return LinkNode(nodeFromInfo(target)), nil
}

func nodeFromInfo(info os.FileInfo) Node {
	perm := fsperm.FromFileInfo(info)
	switch {
	case info.IsDir():
		return DirNode(perm)
	case info.Mode().IsRegular():
		return RegularNode(perm)
	default:
		return OtherNode()
	}
}

// merge applies a fresh read to the cached children.
func (d *Dir) merge(fresh map[string]Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name := range d.children {
		if _, ok := fresh[name]; !ok {
			delete(d.children, name)
		}
	}
	for name, n := range fresh {
		if old, ok := d.children[name]; ok {
			if kept, ok := refreshed(old, n); ok {
				d.children[name] = kept
				continue
			}
		}
		d.children[name] = n
	}
}

// refreshed carries the cached contents of old over to the fresh node when
// both are the same kind of directory.
func refreshed(old, fresh Node) (Node, bool) {
	switch {
	case old.Kind == KindDirectory && fresh.Kind == KindDirectory:
		return Node{Kind: KindDirectory, Perm: fresh.Perm, Dir: old.Dir}, true
	case old.Kind == KindLink && fresh.Kind == KindLink:
		target, ok := refreshed(old.Resolved(), fresh.Resolved())
		if !ok {
			return Node{}, false
		}
		return LinkNode(target), true
	default:
		return Node{}, false
	}
}
