package fstree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/filetug/lazyfiler/pkg/files"
	"github.com/filetug/lazyfiler/pkg/files/osfile"
	"github.com/filetug/lazyfiler/pkg/fsperm"
	"github.com/filetug/lazyfiler/pkg/fsutils"
	"github.com/filetug/lazyfiler/pkg/lines"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyStore is the OS store with recorded reads and injectable failures.
type spyStore struct {
	*osfile.Store
	mu         sync.Mutex
	reads      []string
	readDirErr map[string]error
	listings   map[string][]os.DirEntry
	treeErr    error
}

func newSpyStore() *spyStore {
	return &spyStore{
		Store:      osfile.NewStore(),
		readDirErr: make(map[string]error),
		listings:   make(map[string][]os.DirEntry),
	}
}

func (s *spyStore) ReadDir(ctx context.Context, name string) ([]os.DirEntry, error) {
	s.mu.Lock()
	s.reads = append(s.reads, name)
	err := s.readDirErr[name]
	listing, ok := s.listings[name]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if ok {
		return listing, nil
	}
	return s.Store.ReadDir(ctx, name)
}

func (s *spyStore) ReadTree(ctx context.Context, root string, descend func(string) bool) (map[string][]os.DirEntry, error) {
	if s.treeErr != nil {
		return nil, s.treeErr
	}
	return s.Store.ReadTree(ctx, root, descend)
}

func (s *spyStore) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reads)
}

var _ files.Store = (*spyStore)(nil)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
}

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(root, n), nil, 0o644))
	}
}

func pathsOf(items []lines.Item) []string {
	result := make([]string, len(items))
	for i, it := range items {
		result[i] = it.Path
	}
	return result
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	mkdirs(t, root, "a/b")
	touch(t, root, "f")
	require.NoError(t, os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "la")))

	store := newSpyStore()
	tree := New(store)

	t.Run("materializes_without_reading", func(t *testing.T) {
		dir, err := tree.Resolve(ctx, filepath.Join(root, "a", "b"))
		require.NoError(t, err)
		assert.NotNil(t, dir)
		assert.Zero(t, dir.Len())
		assert.Zero(t, store.readCount())

		again, err := tree.Resolve(ctx, filepath.Join(root, "a", "b"))
		require.NoError(t, err)
		assert.Same(t, dir, again)

		n, ok := tree.Lookup(filepath.Join(root, "a"))
		require.True(t, ok)
		assert.Equal(t, KindDirectory, n.Kind)
		assert.True(t, n.Perm.Read)
	})

	t.Run("link_segment", func(t *testing.T) {
		_, err := tree.Resolve(ctx, filepath.Join(root, "la"))
		require.NoError(t, err)
		n, ok := tree.Lookup(filepath.Join(root, "la"))
		require.True(t, ok)
		assert.Equal(t, KindLink, n.Kind)
		assert.True(t, n.IsDir())
		assert.Equal(t, lines.LinkDirectory, n.Metadata().Type)
	})

	t.Run("not_a_directory", func(t *testing.T) {
		_, err := tree.Resolve(ctx, filepath.Join(root, "f"))
		assert.ErrorIs(t, err, ErrNotDir)

		require.NoError(t, tree.Reconcile(ctx, mustResolve(t, tree, root), root))
		_, err = tree.Resolve(ctx, filepath.Join(root, "f", "x"))
		assert.ErrorIs(t, err, ErrNotDir)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := tree.Resolve(ctx, filepath.Join(root, "nope"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("relative", func(t *testing.T) {
		_, err := tree.Resolve(ctx, "a/b")
		assert.ErrorIs(t, err, ErrNotAbsolute)
		_, ok := tree.Lookup("a/b")
		assert.False(t, ok)
	})

	t.Run("root", func(t *testing.T) {
		dir, err := tree.Resolve(ctx, "/")
		require.NoError(t, err)
		assert.Same(t, tree.Root(), dir)
	})
}

func mustResolve(t *testing.T, tree *Tree, path string) *Dir {
	t.Helper()
	dir, err := tree.Resolve(context.Background(), path)
	require.NoError(t, err)
	return dir
}

func TestReconcile_Kinds(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	mkdirs(t, root, "d")
	touch(t, root, "f")
	require.NoError(t, os.Symlink(filepath.Join(root, "f"), filepath.Join(root, "lf")))
	require.NoError(t, os.Symlink(filepath.Join(root, "d"), filepath.Join(root, "ld")))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")))

	tree := New(newSpyStore())
	dir := mustResolve(t, tree, root)
	require.NoError(t, tree.Reconcile(ctx, dir, root))

	assert.Equal(t, []string{"d", "dangling", "f", "ld", "lf"}, dir.Names())
	expected := map[string]lines.FileType{
		"d":        lines.Directory,
		"dangling": lines.LinkOther,
		"f":        lines.Regular,
		"ld":       lines.LinkDirectory,
		"lf":       lines.LinkRegular,
	}
	for name, ft := range expected {
		n, ok := dir.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, ft, n.Metadata().Type, name)
	}
}

func TestReconcile_PreservesExpansion(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	mkdirs(t, root, "x/y")
	touch(t, root, "x/f", "g")

	tree := New(newSpyStore())
	dir := mustResolve(t, tree, root)
	require.NoError(t, tree.Reconcile(ctx, dir, root))
	x := mustResolve(t, tree, filepath.Join(root, "x"))
	require.NoError(t, tree.Reconcile(ctx, x, filepath.Join(root, "x")))
	y, _ := x.Get("y")

	require.NoError(t, os.Chmod(filepath.Join(root, "x"), 0o500))
	defer func() { _ = os.Chmod(filepath.Join(root, "x"), 0o755) }()
	require.NoError(t, tree.Reconcile(ctx, dir, root))

	n, ok := dir.Get("x")
	require.True(t, ok)
	assert.Same(t, x, n.Dir, "cached subdirectory keeps its identity")
	assert.Equal(t, []string{"f", "y"}, x.Names())
	yAgain, _ := x.Get("y")
	assert.Same(t, y.Dir, yAgain.Dir)
	if os.Geteuid() != 0 {
		assert.False(t, n.Perm.Write, "permissions refreshed")
	}
}

func TestReconcile_LinkKeepsTargetContents(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	mkdirs(t, root, "d/e")
	require.NoError(t, os.Symlink(filepath.Join(root, "d"), filepath.Join(root, "ld")))

	tree := New(newSpyStore())
	dir := mustResolve(t, tree, root)
	require.NoError(t, tree.Reconcile(ctx, dir, root))
	ld := mustResolve(t, tree, filepath.Join(root, "ld"))
	require.NoError(t, tree.Reconcile(ctx, ld, filepath.Join(root, "ld")))

	require.NoError(t, tree.Reconcile(ctx, dir, root))
	again := mustResolve(t, tree, filepath.Join(root, "ld"))
	assert.Same(t, ld, again)
	assert.Equal(t, []string{"e"}, again.Names())

	d := mustResolve(t, tree, filepath.Join(root, "d"))
	assert.NotSame(t, d, ld, "a link owns its own copy of the target")
}

func TestReconcile_ChangesAndFailures(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	mkdirs(t, root, "a")
	touch(t, root, "b")

	store := newSpyStore()
	tree := New(store)
	dir := mustResolve(t, tree, root)
	require.NoError(t, tree.Reconcile(ctx, dir, root))
	assert.Equal(t, []string{"a", "b"}, dir.Names())

	require.NoError(t, os.Remove(filepath.Join(root, "a")))
	touch(t, root, "a", "c")
	require.NoError(t, tree.Reconcile(ctx, dir, root))
	assert.Equal(t, []string{"a", "b", "c"}, dir.Names())
	a, _ := dir.Get("a")
	assert.Equal(t, KindRegular, a.Kind, "kind change replaces the node")

	t.Run("read_error_leaves_cache", func(t *testing.T) {
		store.readDirErr[root] = errors.New("permission denied")
		defer delete(store.readDirErr, root)
		assert.Error(t, tree.Reconcile(ctx, dir, root))
		assert.Equal(t, []string{"a", "b", "c"}, dir.Names())
	})

	t.Run("classify_error_leaves_cache", func(t *testing.T) {
		store.listings[root] = []os.DirEntry{files.NewDirEntry("z", 0o644), files.DirEntry{}}
		defer delete(store.listings, root)
		assert.Error(t, tree.Reconcile(ctx, dir, root))
		assert.Equal(t, []string{"a", "b", "c"}, dir.Names())
	})

	t.Run("synthetic_entries", func(t *testing.T) {
		store.listings[root] = []os.DirEntry{
			files.NewDirEntry("z", 0o640),
			files.NewDirEntry("sub", os.ModeDir|0o750),
		}
		defer delete(store.listings, root)
		require.NoError(t, tree.Reconcile(ctx, dir, root))
		assert.Equal(t, []string{"sub", "z"}, dir.Names())
		z, _ := dir.Get("z")
		assert.Equal(t, "rw-", z.Perm.String())
	})
}

func TestReconcileRecursive(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	mkdirs(t, root, "a/b/c", "a/q/r", "z/deep")
	touch(t, root, "a/b/c/f", "top")

	expanded := NewExpandedSet(filepath.Join(root, "a"), filepath.Join(root, "a", "b"))

	t.Run("prefetched", func(t *testing.T) {
		store := newSpyStore()
		tree := New(store)
		dir := mustResolve(t, tree, root)
		require.NoError(t, tree.ReconcileRecursive(ctx, dir, root, 0, expanded.Snapshot()))
		assert.Zero(t, store.readCount(), "every listing came from the prefetch")
		assertRecursiveResult(t, tree, root)
	})

	t.Run("read_one_by_one", func(t *testing.T) {
		store := newSpyStore()
		store.treeErr = errors.New("walk failed")
		tree := New(store)
		dir := mustResolve(t, tree, root)
		require.NoError(t, tree.ReconcileRecursive(ctx, dir, root, 0, expanded.Snapshot()))
		assert.ElementsMatch(t, []string{
			root,
			filepath.Join(root, "a"),
			filepath.Join(root, "z"),
			filepath.Join(root, "a", "b"),
			filepath.Join(root, "a", "q"),
			filepath.Join(root, "a", "b", "c"),
		}, store.reads)
		assertRecursiveResult(t, tree, root)
	})

	t.Run("unreadable_descendant_skipped", func(t *testing.T) {
		store := newSpyStore()
		store.treeErr = errors.New("walk failed")
		store.readDirErr[filepath.Join(root, "a", "q")] = errors.New("permission denied")
		tree := New(store)
		dir := mustResolve(t, tree, root)
		require.NoError(t, tree.ReconcileRecursive(ctx, dir, root, 0, expanded.Snapshot()))
		q := mustResolve(t, tree, filepath.Join(root, "a", "q"))
		assert.Zero(t, q.Len())
		assertRecursiveResult(t, tree, root)
	})

	t.Run("unreadable_start_fails", func(t *testing.T) {
		store := newSpyStore()
		store.treeErr = errors.New("walk failed")
		store.readDirErr[root] = errors.New("permission denied")
		tree := New(store)
		dir := mustResolve(t, tree, root)
		assert.Error(t, tree.ReconcileRecursive(ctx, dir, root, 0, expanded.Snapshot()))
	})
}

func assertRecursiveResult(t *testing.T, tree *Tree, root string) {
	t.Helper()
	c := mustResolve(t, tree, filepath.Join(root, "a", "b", "c"))
	assert.Equal(t, []string{"f"}, c.Names(), "child of an expanded dir is read")
	z := mustResolve(t, tree, filepath.Join(root, "z"))
	assert.Equal(t, []string{"deep"}, z.Names(), "child of the start dir is read")
	deep := mustResolve(t, tree, filepath.Join(root, "z", "deep"))
	assert.Zero(t, deep.Len(), "collapsed dirs are not entered")
}

func TestFlatten(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	mkdirs(t, root, "a/b/c", "a/d", "e")
	touch(t, root, "a/b/c/x", "a/b/y", "f")

	tree := New(newSpyStore())
	dir := mustResolve(t, tree, root)
	all := func(string) bool { return true }
	require.NoError(t, tree.ReconcileRecursive(ctx, dir, root, 0, all))

	expanded := NewExpandedSet(filepath.Join(root, "a"), filepath.Join(root, "a", "b"))
	items := Flatten(dir, root, 0, expanded.Snapshot()).Collect()

	rel := make([]string, len(items))
	levels := make([]int, len(items))
	for i, it := range items {
		rel[i], _ = filepath.Rel(root, it.Path)
		levels[i] = it.Level
	}
	assert.Equal(t, []string{"a", "a/b", "a/b/c", "a/b/y", "a/d", "e", "f"}, rel)
	assert.Equal(t, []int{0, 1, 2, 2, 1, 0, 0}, levels)
	assert.Equal(t, lines.Directory, items[0].Metadata.Type)
	assert.Equal(t, lines.Regular, items[6].Metadata.Type)

	t.Run("from_subdir", func(t *testing.T) {
		a := mustResolve(t, tree, filepath.Join(root, "a"))
		items := Flatten(a, filepath.Join(root, "a"), 1, expanded.Snapshot()).Collect()
		assert.Equal(t, []string{
			filepath.Join(root, "a", "b"),
			filepath.Join(root, "a", "b", "c"),
			filepath.Join(root, "a", "b", "y"),
			filepath.Join(root, "a", "d"),
		}, pathsOf(items))
		assert.Equal(t, 1, items[0].Level)
	})

	t.Run("seq_stops_early", func(t *testing.T) {
		var seen []string
		for it := range Flatten(dir, root, 0, all).All() {
			seen = append(seen, it.Path)
			if len(seen) == 2 {
				break
			}
		}
		assert.Len(t, seen, 2)
	})

	t.Run("pre_order_for_every_expansion", func(t *testing.T) {
		dirs := []string{
			filepath.Join(root, "a"),
			filepath.Join(root, "a", "b"),
			filepath.Join(root, "a", "b", "c"),
			filepath.Join(root, "a", "d"),
			filepath.Join(root, "e"),
		}
		for mask := 0; mask < 1<<len(dirs); mask++ {
			set := NewExpandedSet()
			for i, d := range dirs {
				if mask&(1<<i) != 0 {
					set.Insert(d)
				}
			}
			items := Flatten(dir, root, 0, set.Snapshot()).Collect()
			assertPreOrder(t, items)
		}
	})
}

// assertPreOrder checks that every directory's descendants directly follow
// its row and that no other row lies below it.
func assertPreOrder(t *testing.T, items []lines.Item) {
	t.Helper()
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		assert.False(t, seen[it.Path], "duplicate row %s", it.Path)
		seen[it.Path] = true
		if !it.Metadata.Type.IsDir() {
			continue
		}
		j := i + 1
		for j < len(items) && fsutils.IsWithin(items[j].Path, it.Path) {
			assert.Greater(t, items[j].Level, it.Level)
			j++
		}
		for k := j; k < len(items); k++ {
			assert.False(t, fsutils.IsWithin(items[k].Path, it.Path), "%s outside the block of %s", items[k].Path, it.Path)
		}
	}
}

func TestFlatten_SymlinkCycleStops(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	touch(t, root, "f")
	require.NoError(t, os.Symlink(root, filepath.Join(root, "loop")))

	tree := New(newSpyStore())
	dir := mustResolve(t, tree, root)
	all := func(string) bool { return true }
	require.NoError(t, tree.ReconcileRecursive(ctx, dir, root, 0, all))

	items := Flatten(dir, root, 0, all).Collect()
	assert.Len(t, items, 2*(MaxLevel+1))
	maxLevel := 0
	for _, it := range items {
		maxLevel = max(maxLevel, it.Level)
	}
	assert.Equal(t, MaxLevel, maxLevel)
}

func TestDirMutations(t *testing.T) {
	d := NewDir()
	sub := DirNode(fsperm0())
	d.Insert("sub", sub)
	d.Insert("file", RegularNode(fsperm0()))
	sub.Dir.Insert("inner", DirNode(fsperm0()))
	inner, _ := sub.Dir.Get("inner")
	inner.Dir.Insert("leaf", RegularNode(fsperm0()))

	removed, ok := d.Remove("sub")
	require.True(t, ok)
	assert.Same(t, sub.Dir, removed.Dir)
	_, ok = d.Remove("sub")
	assert.False(t, ok)

	assert.Equal(t, 2, Discard(removed))
	assert.Zero(t, sub.Dir.Len())
	assert.Zero(t, inner.Dir.Len())

	former := d.Clear()
	assert.Len(t, former, 1)
	assert.Zero(t, d.Len())
	assert.Zero(t, Discard(LinkNode(OtherNode())))
}

func TestExpandedSet(t *testing.T) {
	s := NewExpandedSet("/r", "/r/x", "/r/x/sub", "/r/xy")

	snapshot := s.Snapshot()
	s.RenamePrefix("/r/x", "/r/y")
	assert.Equal(t, []string{"/r", "/r/xy", "/r/y", "/r/y/sub"}, s.Paths())
	assert.True(t, snapshot("/r/x"), "snapshots are detached")

	assert.True(t, s.Remove("/r/xy"))
	assert.False(t, s.Remove("/r/xy"))

	s.Insert("/r/yy")
	s.RemovePrefix("/r/y")
	assert.Equal(t, []string{"/r", "/r/yy"}, s.Paths())
	assert.True(t, s.Contains("/r"))
	assert.False(t, s.Contains("/r/y"))
}

func fsperm0() fsperm.Permissions {
	return fsperm.Permissions{Read: true}
}
