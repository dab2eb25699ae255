// Package fstree is a lazy in-memory mirror of a directory tree. Directories
// are read only when asked to, and a refresh keeps the cached children of
// unchanged subdirectories.
package fstree

import (
	"sort"
	"sync"

	"github.com/filetug/lazyfiler/pkg/fsperm"
	"github.com/filetug/lazyfiler/pkg/lines"
)

// MaxLevel bounds how deep a walk descends below its starting directory.
// Symbolic link cycles on disk are cut off there.
const MaxLevel = 10

type Kind int

const (
	KindRegular Kind = iota
	KindDirectory
	KindLink
	KindOther
)

// Node is one cached filesystem entry. Nodes are values and are replaced,
// never mutated; a directory node shares its Dir, which is what identifies
// it.
type Node struct {
	Kind   Kind
	Perm   fsperm.Permissions
	Dir    *Dir  // KindDirectory
	Target *Node // KindLink, resolved afresh from disk
}

func RegularNode(perm fsperm.Permissions) Node {
	return Node{Kind: KindRegular, Perm: perm}
}

func DirNode(perm fsperm.Permissions) Node {
	return Node{Kind: KindDirectory, Perm: perm, Dir: NewDir()}
}

func LinkNode(target Node) Node {
	return Node{Kind: KindLink, Target: &target}
}

func OtherNode() Node {
	return Node{Kind: KindOther}
}

// Resolved follows the link chain to its first non-link node.
func (n Node) Resolved() Node {
	for n.Kind == KindLink && n.Target != nil {
		n = *n.Target
	}
	return n
}

// IsDir reports whether n is a directory or links to one.
func (n Node) IsDir() bool {
	r := n.Resolved()
	return r.Kind == KindDirectory && r.Dir != nil
}

// Metadata describes n as a row, following one link for display.
func (n Node) Metadata() lines.Metadata {
	switch n.Kind {
	case KindRegular:
		return lines.Metadata{Perm: n.Perm, Type: lines.Regular}
	case KindDirectory:
		return lines.Metadata{Perm: n.Perm, Type: lines.Directory}
	case KindLink:
		target := n.Resolved()
		switch target.Kind {
		case KindRegular:
			return lines.Metadata{Perm: target.Perm, Type: lines.LinkRegular}
		case KindDirectory:
			return lines.Metadata{Perm: target.Perm, Type: lines.LinkDirectory}
		default:
			return lines.Metadata{Perm: target.Perm, Type: lines.LinkOther}
		}
	default:
		return lines.Metadata{Type: lines.Other}
	}
}

// Dir holds the children of a cached directory.
type Dir struct {
	mu       sync.Mutex
	children map[string]Node
}

func NewDir() *Dir {
	return &Dir{children: make(map[string]Node)}
}

func (d *Dir) Get(name string) (Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.children[name]
	return n, ok
}

func (d *Dir) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.children)
}

// Names returns the child names in order.
func (d *Dir) Names() []string {
	d.mu.Lock()
	names := make([]string, 0, len(d.children))
	for name := range d.children {
		names = append(names, name)
	}
	d.mu.Unlock()
	sort.Strings(names)
	return names
}

func (d *Dir) Insert(name string, n Node) {
	d.mu.Lock()
	d.children[name] = n
	d.mu.Unlock()
}

// insertIfAbsent stores n unless name is taken and returns the node that
// ends up cached.
func (d *Dir) insertIfAbsent(name string, n Node) Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.children[name]; ok {
		return existing
	}
	d.children[name] = n
	return n
}

func (d *Dir) Remove(name string) (Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.children[name]
	if ok {
		delete(d.children, name)
	}
	return n, ok
}

// Clear drops every child and returns them.
func (d *Dir) Clear() map[string]Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	children := d.children
	d.children = make(map[string]Node)
	return children
}

type entry struct {
	name string
	node Node
}

// entries snapshots the children sorted by name.
func (d *Dir) entries() []entry {
	d.mu.Lock()
	result := make([]entry, 0, len(d.children))
	for name, n := range d.children {
		result = append(result, entry{name: name, node: n})
	}
	d.mu.Unlock()
	sort.Slice(result, func(i, j int) bool {
		return result[i].name < result[j].name
	})
	return result
}

// Discard clears every cached directory below n. It never touches disk.
func Discard(n Node) int {
	cleared := 0
	stack := []Node{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.Kind != KindDirectory || top.Dir == nil {
			continue
		}
		for _, child := range top.Dir.Clear() {
			cleared++
			stack = append(stack, child)
		}
	}
	return cleared
}
