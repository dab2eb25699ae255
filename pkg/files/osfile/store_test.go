package osfile

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/charlievieth/fastwalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(entries []os.DirEntry) []string {
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.Name())
	}
	sort.Strings(result)
	return result
}

func TestStore_ReadDir(t *testing.T) {
	origReadDir := osReadDir
	defer func() { osReadDir = origReadDir }()

	s := NewStore()

	t.Run("success", func(t *testing.T) {
		osReadDir = func(name string) ([]os.DirEntry, error) {
			return []os.DirEntry{}, nil
		}
		entries, err := s.ReadDir(context.Background(), "/tmp")
		assert.NoError(t, err)
		assert.NotNil(t, entries)
	})

	t.Run("context_cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		entries, err := s.ReadDir(ctx, "/tmp")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Nil(t, entries)
	})

	t.Run("read_error", func(t *testing.T) {
		osReadDir = func(name string) ([]os.DirEntry, error) {
			return nil, errors.New("read error")
		}
		entries, err := s.ReadDir(context.Background(), "/tmp")
		assert.Error(t, err)
		assert.Nil(t, entries)
	})
}

func TestStore_ReadTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b", "c"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "d", "e"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "f.txt"), nil, 0o644))
	require.NoError(t, os.Symlink(filepath.Join(root, "d"), filepath.Join(root, "a", "ld")))

	s := NewStore()

	t.Run("selected_dirs", func(t *testing.T) {
		descend := func(dir string) bool {
			return dir == filepath.Join(root, "a")
		}
		listings, err := s.ReadTree(context.Background(), root, descend)
		require.NoError(t, err)
		assert.Len(t, listings, 2)
		assert.Equal(t, []string{"a", "d"}, names(listings[root]))
		assert.Equal(t, []string{"b", "f.txt", "ld"}, names(listings[filepath.Join(root, "a")]))
		_, ok := listings[filepath.Join(root, "d")]
		assert.False(t, ok)
	})

	t.Run("links_are_not_followed", func(t *testing.T) {
		listings, err := s.ReadTree(context.Background(), root, func(string) bool { return true })
		require.NoError(t, err)
		_, ok := listings[filepath.Join(root, "a", "ld")]
		assert.False(t, ok)
		assert.Equal(t, []string{"e"}, names(listings[filepath.Join(root, "d")]))
		entries, ok := listings[filepath.Join(root, "d", "e")]
		assert.True(t, ok)
		assert.Empty(t, entries)
	})

	t.Run("context_cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		listings, err := s.ReadTree(ctx, root, func(string) bool { return true })
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, listings)
	})

	t.Run("walk_error", func(t *testing.T) {
		origWalk := fastwalkWalk
		defer func() { fastwalkWalk = origWalk }()
		fastwalkWalk = func(conf *fastwalk.Config, root string, walkFn fs.WalkDirFunc) error {
			return walkFn(root, nil, errors.New("permission denied"))
		}
		listings, err := s.ReadTree(context.Background(), root, func(string) bool { return true })
		assert.Error(t, err)
		assert.Nil(t, listings)
	})
}

func TestStore_Stat(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.Symlink(target, link))

	s := NewStore()
	ctx := context.Background()

	info, err := s.Lstat(ctx, link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	info, err = s.Stat(ctx, link)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Lstat(cancelled, link)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Stat(cancelled, link)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_CreateDir(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()
	ctx := context.Background()

	path := filepath.Join(dir, "sub")
	assert.NoError(t, s.CreateDir(ctx, path, 0o775))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Error(t, s.CreateDir(ctx, path, 0o775), "existing directory")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.CreateDir(cancelled, filepath.Join(dir, "other"), 0o775), context.Canceled)
}

func TestStore_CreateFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()
	ctx := context.Background()

	path := filepath.Join(dir, "new.txt")
	assert.NoError(t, s.CreateFile(ctx, path, 0o664))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())

	t.Run("exists", func(t *testing.T) {
		assert.ErrorIs(t, s.CreateFile(ctx, path, 0o664), os.ErrExist)
	})

	t.Run("open_error", func(t *testing.T) {
		origOpenFile := osOpenFile
		defer func() { osOpenFile = origOpenFile }()
		osOpenFile = func(name string, flag int, perm os.FileMode) (*os.File, error) {
			return nil, errors.New("open error")
		}
		assert.Error(t, s.CreateFile(ctx, filepath.Join(dir, "other.txt"), 0o664))
	})

	t.Run("context_cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, s.CreateFile(cancelled, filepath.Join(dir, "x"), 0o664), context.Canceled)
	})
}

func TestStore_Delete(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()
	ctx := context.Background()

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Error(t, s.Delete(ctx, filepath.Join(dir, "a")), "non-empty directory")
	assert.NoError(t, s.DeleteAll(ctx, filepath.Join(dir, "a")))
	_, err := os.Lstat(filepath.Join(dir, "a"))
	assert.True(t, os.IsNotExist(err))

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.NoError(t, s.Delete(ctx, file))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.Delete(cancelled, file), context.Canceled)
	assert.ErrorIs(t, s.DeleteAll(cancelled, file), context.Canceled)
}

func TestStore_Rename(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()
	ctx := context.Background()

	oldPath := filepath.Join(dir, "old")
	newPath := filepath.Join(dir, "new")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0o644))

	assert.NoError(t, s.Rename(ctx, oldPath, newPath))
	data, err := os.ReadFile(newPath)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.Rename(cancelled, newPath, oldPath), context.Canceled)
}
