// Package filer implements the commands of the tree explorer on top of the
// node cache, the expanded set and the line model.
//
// Each command resolves a row, changes the filesystem, updates the cache and
// patches the affected block of rows. Filesystem failures and rows that do
// not fit the command are silent no-ops; only view failures are returned.
package filer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/filetug/lazyfiler/pkg/files"
	"github.com/filetug/lazyfiler/pkg/fstree"
	"github.com/filetug/lazyfiler/pkg/lines"
	"github.com/filetug/lazyfiler/pkg/logging"
	"github.com/filetug/lazyfiler/pkg/metrics"
)

// Opener shows a regular file to the user.
type Opener interface {
	OpenFile(ctx context.Context, path string) error
}

type Option func(*Filer)

func WithOpener(opener Opener) Option {
	return func(f *Filer) {
		f.opener = opener
	}
}

// WithExpanded starts the filer with the given directories expanded.
func WithExpanded(paths ...string) Option {
	return func(f *Filer) {
		for _, p := range paths {
			f.expanded.Insert(filepath.Clean(p))
		}
	}
}

type Filer struct {
	store    files.Store
	tree     *fstree.Tree
	model    *lines.Model
	expanded *fstree.ExpandedSet
	opener   Opener

	mu   sync.RWMutex
	root string
}

func New(store files.Store, view lines.View, opts ...Option) *Filer {
	f := &Filer{
		store:    store,
		tree:     fstree.New(store),
		model:    lines.NewModel(view),
		expanded: fstree.NewExpandedSet(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Root is the directory whose children are the top level rows.
func (f *Filer) Root() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.root
}

func (f *Filer) setRoot(root string) {
	f.mu.Lock()
	f.root = root
	f.mu.Unlock()
}

func (f *Filer) Items() []lines.Item {
	return f.model.Items()
}

func (f *Filer) Expanded() []string {
	return f.expanded.Paths()
}

// Stale reports whether the last view call failed; the next command resyncs
// the whole view.
func (f *Filer) Stale() bool {
	return f.model.Stale()
}

// GetFilePath returns the path shown at idx.
func (f *Filer) GetFilePath(idx lines.LineIdx) (string, bool) {
	item, ok := f.model.Get(idx)
	if !ok {
		return "", false
	}
	return item.Path, true
}

// GetDir returns the directory at idx, or the directory holding the entry at
// idx.
func (f *Filer) GetDir(idx lines.LineIdx) (string, bool) {
	item, ok := f.model.Get(idx)
	if !ok {
		return "", false
	}
	return dirOf(item), true
}

func dirOf(item lines.Item) string {
	if item.Metadata.Type.IsDir() {
		return item.Path
	}
	return item.Dir()
}

// command runs fn, records its outcome and wraps view errors with name.
func (f *Filer) command(ctx context.Context, name string, fn func(ctx context.Context) (bool, error)) error {
	start := time.Now()
	changed, err := fn(ctx)
	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeFailed
		err = fmt.Errorf("%s: %w", name, err)
		logging.Warn("command failed", logging.String("command", name), logging.Err(err))
	case !changed:
		outcome = metrics.OutcomeNoop
	}
	took := time.Since(start)
	logging.Debug("command", logging.String("command", name), logging.String("outcome", outcome), logging.Duration("took", took))
	metrics.RecordCommand(name, outcome, took)
	return err
}

// skip logs a filesystem failure, which leaves the view as it is.
func skip(op, path string, err error) (bool, error) {
	logging.Debug(op+" failed", logging.String("path", path), logging.Err(err))
	return false, nil
}

// childLevel is the row level of the children of dir.
func childLevel(root, dir string) int {
	if dir == root {
		return 0
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func (f *Filer) flatten(dir *fstree.Dir, path string, level int) []lines.Item {
	return fstree.Flatten(dir, path, level, f.expanded.Snapshot()).Collect()
}
