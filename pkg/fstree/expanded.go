package fstree

import (
	"sort"
	"sync"

	"github.com/filetug/lazyfiler/pkg/fsutils"
)

// ExpandedSet holds the directories whose children are shown.
type ExpandedSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func NewExpandedSet(paths ...string) *ExpandedSet {
	s := &ExpandedSet{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		s.paths[p] = struct{}{}
	}
	return s
}

func (s *ExpandedSet) Contains(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paths[path]
	return ok
}

func (s *ExpandedSet) Insert(path string) {
	s.mu.Lock()
	s.paths[path] = struct{}{}
	s.mu.Unlock()
}

// Remove reports whether path was expanded.
func (s *ExpandedSet) Remove(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paths[path]
	delete(s.paths, path)
	return ok
}

// Snapshot copies the set into a predicate that does not lock.
func (s *ExpandedSet) Snapshot() func(string) bool {
	s.mu.Lock()
	paths := make(map[string]struct{}, len(s.paths))
	for p := range s.paths {
		paths[p] = struct{}{}
	}
	s.mu.Unlock()
	return func(path string) bool {
		_, ok := paths[path]
		return ok
	}
}

// Paths lists the set in order.
func (s *ExpandedSet) Paths() []string {
	s.mu.Lock()
	paths := make([]string, 0, len(s.paths))
	for p := range s.paths {
		paths = append(paths, p)
	}
	s.mu.Unlock()
	sort.Strings(paths)
	return paths
}

// RemovePrefix drops dir and everything below it.
func (s *ExpandedSet) RemovePrefix(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.paths {
		if fsutils.IsWithin(p, dir) {
			delete(s.paths, p)
		}
	}
}

// RenamePrefix moves the entries at or below oldDir under newDir.
func (s *ExpandedSet) RenamePrefix(oldDir, newDir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var moved []string
	for p := range s.paths {
		if renamed, ok := fsutils.ReplacePrefix(p, oldDir, newDir); ok {
			delete(s.paths, p)
			moved = append(moved, renamed)
		}
	}
	for _, p := range moved {
		s.paths[p] = struct{}{}
	}
}
