package fstree

import (
	"iter"
	"path/filepath"

	"github.com/filetug/lazyfiler/pkg/lines"
)

type frame struct {
	level   int
	path    string
	entries []entry
	next    int
}

// Walker yields the visible rows below a directory in pre-order. It is lazy
// and can be consumed once.
type Walker struct {
	stack    []frame
	expanded func(string) bool
}

// Flatten walks dir, found at path, yielding its children at level. A
// subdirectory is entered when expanded accepts its path and its level is
// below MaxLevel.
func Flatten(dir *Dir, path string, level int, expanded func(string) bool) *Walker {
	w := &Walker{expanded: expanded}
	w.push(dir, path, level)
	return w
}

func (w *Walker) push(dir *Dir, path string, level int) {
	w.stack = append(w.stack, frame{level: level, path: path, entries: dir.entries()})
}

// Next returns the next row, or false once the walk is over.
func (w *Walker) Next() (lines.Item, bool) {
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if top.next >= len(top.entries) {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		e := top.entries[top.next]
		top.next++
		level := top.level
		path := filepath.Join(top.path, e.name)
		item := lines.Item{Level: level, Path: path, Metadata: e.node.Metadata()}
		// the row goes out before its children, whose frame is pushed now
		if r := e.node.Resolved(); r.Kind == KindDirectory && r.Dir != nil && level < MaxLevel && w.expanded(path) {
			w.push(r.Dir, path, level+1)
		}
		return item, true
	}
	return lines.Item{}, false
}

// Collect drains the walker.
func (w *Walker) Collect() []lines.Item {
	var items []lines.Item
	for item, ok := w.Next(); ok; item, ok = w.Next() {
		items = append(items, item)
	}
	return items
}

func (w *Walker) All() iter.Seq[lines.Item] {
	return func(yield func(lines.Item) bool) {
		for item, ok := w.Next(); ok; item, ok = w.Next() {
			if !yield(item) {
				return
			}
		}
	}
}
