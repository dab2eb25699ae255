package lines

import (
	"github.com/filetug/lazyfiler/pkg/fsutils"
)

// FindInDir selects the first contiguous run of rows at or below dir.
func FindInDir(dir string) Selector {
	return func(items []Item) (Range, bool) {
		start := -1
		for i, item := range items {
			within := fsutils.IsWithin(item.Path, dir)
			if start < 0 {
				if within {
					start = i
				}
				continue
			}
			if !within {
				return Range{Start: start, End: i}, true
			}
		}
		if start < 0 {
			return Range{}, false
		}
		return Range{Start: start, End: len(items)}, true
	}
}

// FindChildren selects the block of rows strictly below dir. When dir has a
// row but no visible children the range is empty and sits right after that
// row. The filer root has no row of its own; pass root as true for it, the
// block then spans every row below it.
func FindChildren(dir string, root bool) Selector {
	return func(items []Item) (Range, bool) {
		start := 0
		if !root {
			row, ok := FindRow(dir)(items)
			if !ok {
				return Range{}, false
			}
			start = row.End
		}
		end := start
		for end < len(items) && items[end].Path != dir && fsutils.IsWithin(items[end].Path, dir) {
			end++
		}
		return Range{Start: start, End: end}, true
	}
}

// FindRow selects the single row showing path.
func FindRow(path string) Selector {
	return func(items []Item) (Range, bool) {
		for i, item := range items {
			if item.Path == path {
				return Range{Start: i, End: i + 1}, true
			}
		}
		return Range{}, false
	}
}

// SiblingPosition places a new row for path among the children of its
// parent so that sibling names stay ordered. The children block of the
// parent is located like FindChildren does. It declines when path already
// has a row.
func SiblingPosition(path string, root bool) Position {
	return func(items []Item) (int, bool) {
		parent := Item{Path: path}.Dir()
		block, ok := FindChildren(parent, root)(items)
		if !ok {
			return 0, false
		}
		name := Item{Path: path}.Name()
		pos := block.End
		for i := block.Start; i < block.End; i++ {
			item := items[i]
			if item.Path == path {
				return 0, false
			}
			if item.Dir() != parent {
				continue
			}
			if item.Name() > name && pos == block.End {
				pos = i
			}
		}
		return pos, true
	}
}
