package filer

import (
	"context"
	"path/filepath"

	"github.com/filetug/lazyfiler/pkg/fsutils"
	"github.com/filetug/lazyfiler/pkg/lines"
	"github.com/filetug/lazyfiler/pkg/logging"
)

// Open makes dir the root and renders it from scratch.
func (f *Filer) Open(ctx context.Context, dir string) error {
	return f.command(ctx, "open", func(ctx context.Context) (bool, error) {
		abs, err := filepath.Abs(fsutils.ExpandHome(dir))
		if err != nil {
			return skip("open", dir, err)
		}
		return f.openRoot(ctx, abs)
	})
}

func (f *Filer) openRoot(ctx context.Context, root string) (bool, error) {
	node, err := f.tree.Resolve(ctx, root)
	if err != nil {
		return skip("resolve", root, err)
	}
	if err := f.tree.ReconcileRecursive(ctx, node, root, 0, f.expanded.Snapshot()); err != nil {
		return skip("read", root, err)
	}
	f.setRoot(root)
	logging.Debug("root changed", logging.String("path", root))
	return true, f.model.ReplaceAll(ctx, f.flatten(node, root, 0))
}

// MoveToParent makes the parent of the root the new root. The old root stays
// expanded below it.
func (f *Filer) MoveToParent(ctx context.Context) error {
	return f.command(ctx, "move_to_parent", func(ctx context.Context) (bool, error) {
		root := f.Root()
		parent := filepath.Dir(root)
		if root == "" || parent == root {
			return false, nil
		}
		f.expanded.Insert(root)
		return f.openRoot(ctx, parent)
	})
}

// ExpandDir toggles the directory at idx.
func (f *Filer) ExpandDir(ctx context.Context, idx lines.LineIdx) error {
	return f.command(ctx, "expand_dir", func(ctx context.Context) (bool, error) {
		item, ok := f.model.Get(idx)
		if !ok || !item.Metadata.Type.IsDir() {
			return false, nil
		}
		return f.toggle(ctx, item)
	})
}

func (f *Filer) toggle(ctx context.Context, item lines.Item) (bool, error) {
	if f.expanded.Remove(item.Path) {
		return true, f.model.RemoveRange(ctx, lines.FindChildren(item.Path, false))
	}
	return f.expand(ctx, item.Path, item.Level+1)
}

// expand shows the children of dir, which live at level.
func (f *Filer) expand(ctx context.Context, dir string, level int) (bool, error) {
	f.expanded.Insert(dir)
	node, err := f.tree.Resolve(ctx, dir)
	if err == nil {
		err = f.tree.Reconcile(ctx, node, dir)
	}
	if err != nil {
		f.expanded.Remove(dir)
		return skip("expand", dir, err)
	}
	items := f.flatten(node, dir, level)
	return true, f.model.ReplaceRange(ctx, items, lines.FindChildren(dir, false))
}

// Redraw renders the rows of paths again without touching the cache. Paths
// without a row are skipped.
func (f *Filer) Redraw(ctx context.Context, paths []string) error {
	return f.command(ctx, "redraw", func(ctx context.Context) (bool, error) {
		for _, path := range paths {
			if err := f.model.Redraw(ctx, lines.FindRow(path)); err != nil {
				return true, err
			}
		}
		return len(paths) > 0, nil
	})
}

// OpenOrExpand opens a regular file or toggles a directory.
func (f *Filer) OpenOrExpand(ctx context.Context, idx lines.LineIdx) error {
	return f.command(ctx, "open_or_expand", func(ctx context.Context) (bool, error) {
		item, ok := f.model.Get(idx)
		if !ok {
			return false, nil
		}
		switch t := item.Metadata.Type; {
		case t.IsDir():
			return f.toggle(ctx, item)
		case t.IsRegular():
			return f.open(ctx, item)
		default:
			return false, nil
		}
	})
}

// OpenFile hands the regular file at idx to the opener.
func (f *Filer) OpenFile(ctx context.Context, idx lines.LineIdx) error {
	return f.command(ctx, "open_file", func(ctx context.Context) (bool, error) {
		item, ok := f.model.Get(idx)
		if !ok || !item.Metadata.Type.IsRegular() {
			return false, nil
		}
		return f.open(ctx, item)
	})
}

func (f *Filer) open(ctx context.Context, item lines.Item) (bool, error) {
	if f.opener == nil {
		return false, nil
	}
	return true, f.opener.OpenFile(ctx, item.Path)
}

// Refresh rereads dir and every expanded directory below it, then renders
// its block again. A dir whose row is hidden under a collapsed parent is
// only marked expanded and shows once the parent is expanded.
func (f *Filer) Refresh(ctx context.Context, dir string) error {
	return f.command(ctx, "refresh", func(ctx context.Context) (bool, error) {
		dir = filepath.Clean(dir)
		root := f.Root()
		if root == "" || !fsutils.IsWithin(dir, root) {
			return false, nil
		}
		if dir != root {
			f.expanded.Insert(dir)
		}
		node, err := f.tree.Resolve(ctx, dir)
		if err != nil {
			return skip("resolve", dir, err)
		}
		level := childLevel(root, dir)
		if err := f.tree.ReconcileRecursive(ctx, node, dir, level, f.expanded.Snapshot()); err != nil {
			return skip("refresh", dir, err)
		}
		items := f.flatten(node, dir, level)
		if dir == root {
			return true, f.model.ReplaceAll(ctx, items)
		}
		return true, f.model.ReplaceRange(ctx, items, lines.FindChildren(dir, false))
	})
}
