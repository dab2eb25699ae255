package filer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/filetug/lazyfiler/pkg/fsperm"
	"github.com/filetug/lazyfiler/pkg/fstree"
	"github.com/filetug/lazyfiler/pkg/fsutils"
	"github.com/filetug/lazyfiler/pkg/lines"
)

const (
	dirPerm  os.FileMode = 0o775
	filePerm os.FileMode = 0o664
)

// CreateEntry creates name in the directory at idx, or next to the file at
// idx. A trailing slash creates a directory.
func (f *Filer) CreateEntry(ctx context.Context, idx lines.LineIdx, name string) error {
	return f.command(ctx, "create_entry", func(ctx context.Context) (bool, error) {
		item, ok := f.model.Get(idx)
		if !ok {
			return false, nil
		}
		return f.create(ctx, dirOf(item), name)
	})
}

// CreateInRoot creates name directly in the root, which works on an empty
// view too.
func (f *Filer) CreateInRoot(ctx context.Context, name string) error {
	return f.command(ctx, "create_in_root", func(ctx context.Context) (bool, error) {
		root := f.Root()
		if root == "" {
			return false, nil
		}
		return f.create(ctx, root, name)
	})
}

// entryName keeps the last element of name.
func entryName(name string) (string, bool) {
	isDir := strings.HasSuffix(name, "/") || strings.HasSuffix(name, string(filepath.Separator))
	base := filepath.Base(filepath.Clean(strings.TrimSpace(name)))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", isDir
	}
	return base, isDir
}

func (f *Filer) create(ctx context.Context, dir, name string) (bool, error) {
	base, isDir := entryName(name)
	if base == "" {
		return false, nil
	}
	path := filepath.Join(dir, base)

	var node fstree.Node
	var err error
	if isDir {
		err = f.store.CreateDir(ctx, path, dirPerm)
		node = fstree.DirNode(fsperm.FromMode(dirPerm))
	} else {
		err = f.store.CreateFile(ctx, path, filePerm)
		node = fstree.RegularNode(fsperm.FromMode(filePerm))
	}
	if err != nil {
		return skip("create", path, err)
	}

	parent, err := f.tree.Resolve(ctx, dir)
	if err != nil {
		return skip("resolve", dir, err)
	}
	parent.Insert(base, node)

	root := f.Root()
	level := childLevel(root, dir)
	if dir != root && !f.expanded.Contains(dir) {
		return f.expand(ctx, dir, level)
	}
	item := lines.Item{Level: level, Path: path, Metadata: node.Metadata()}
	return true, f.model.InsertDyn(ctx, item, lines.SiblingPosition(path, dir == root))
}

// DeleteEntry removes the entry at idx from disk. Directories go with
// everything below them; symbolic links are removed themselves, never what
// they point to.
func (f *Filer) DeleteEntry(ctx context.Context, idx lines.LineIdx) error {
	return f.command(ctx, "delete_entry", func(ctx context.Context) (bool, error) {
		item, ok := f.model.Get(idx)
		if !ok {
			return false, nil
		}
		var err error
		switch t := item.Metadata.Type; {
		case t.IsLink():
			err = f.store.Delete(ctx, item.Path)
		case t == lines.Directory:
			err = f.store.DeleteAll(ctx, item.Path)
		default:
			err = f.store.Delete(ctx, item.Path)
		}
		if err != nil {
			return skip("delete", item.Path, err)
		}

		if removed, ok := f.detach(item.Path); ok {
			fstree.Discard(removed)
		}
		if item.Metadata.Type.IsDir() {
			f.expanded.RemovePrefix(item.Path)
			return true, f.model.RemoveRange(ctx, lines.FindInDir(item.Path))
		}
		return true, f.model.RemoveRange(ctx, lines.FindRow(item.Path))
	})
}

// detach takes the cached node for path out of its parent.
func (f *Filer) detach(path string) (fstree.Node, bool) {
	parent, ok := f.tree.Lookup(filepath.Dir(path))
	if !ok || !parent.IsDir() {
		return fstree.Node{}, false
	}
	return parent.Resolved().Dir.Remove(filepath.Base(path))
}

// RenameEntry moves the entry at idx to target. A relative target is taken
// from the entry's directory; moving onto an existing directory moves the
// entry into it.
func (f *Filer) RenameEntry(ctx context.Context, idx lines.LineIdx, target string) error {
	return f.command(ctx, "rename_entry", func(ctx context.Context) (bool, error) {
		item, ok := f.model.Get(idx)
		if !ok || strings.TrimSpace(target) == "" {
			return false, nil
		}
		oldPath := item.Path
		newPath := fsutils.ResolveTarget(item.Dir(), target)
		if info, err := f.store.Stat(ctx, newPath); err == nil && info.IsDir() {
			newPath = filepath.Join(newPath, item.Name())
		}
		if newPath == oldPath {
			return false, nil
		}
		if err := f.store.Rename(ctx, oldPath, newPath); err != nil {
			return skip("rename", oldPath, err)
		}

		newParent := filepath.Dir(newPath)
		moved, cached := f.detach(oldPath)
		if dir, err := f.tree.Resolve(ctx, newParent); err == nil {
			if cached {
				dir.Insert(filepath.Base(newPath), moved)
			}
			// pick up the entry when it was not cached and refresh the parent
			if err := f.tree.Reconcile(ctx, dir, newParent); err != nil {
				_, _ = skip("read", newParent, err)
			}
		} else if cached {
			fstree.Discard(moved)
		}

		root := f.Root()
		ancestor, ok := f.visibleAncestor(root, oldPath, newPath)
		if !ok {
			f.expanded.RemovePrefix(oldPath)
			return true, f.model.RemoveRange(ctx, lines.FindInDir(oldPath))
		}
		f.expanded.RenamePrefix(oldPath, newPath)
		for dir := newParent; dir != ancestor && fsutils.IsWithin(dir, ancestor); dir = filepath.Dir(dir) {
			if f.expanded.Contains(dir) {
				continue
			}
			f.expanded.Insert(dir)
			if node, err := f.tree.Resolve(ctx, dir); err == nil {
				if err := f.tree.Reconcile(ctx, node, dir); err != nil {
					_, _ = skip("read", dir, err)
				}
			}
		}

		node, err := f.tree.Resolve(ctx, ancestor)
		if err != nil {
			return skip("resolve", ancestor, err)
		}
		items := f.flatten(node, ancestor, childLevel(root, ancestor))
		return true, f.model.ReplaceRange(ctx, items, lines.FindChildren(ancestor, ancestor == root))
	})
}

// visibleAncestor finds the deepest directory holding both paths whose
// children are on screen: the root, or an expanded directory with a row.
func (f *Filer) visibleAncestor(root, oldPath, newPath string) (string, bool) {
	if root == "" || !fsutils.IsWithin(oldPath, root) || !fsutils.IsWithin(newPath, root) {
		return "", false
	}
	items := f.model.Items()
	for dir := fsutils.CommonDir(oldPath, newPath); fsutils.IsWithin(dir, root); dir = filepath.Dir(dir) {
		if dir == root {
			return dir, true
		}
		if _, shown := lines.FindRow(dir)(items); shown && f.expanded.Contains(dir) {
			return dir, true
		}
	}
	return "", false
}
