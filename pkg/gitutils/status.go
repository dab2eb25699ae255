// Package gitutils reads the git state the filer decorates rows with.
package gitutils

import (
	"context"
	"errors"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/filetug/lazyfiler/pkg/fsutils"
)

// ErrNotRepository is returned for directories outside of any repository.
var ErrNotRepository = errors.New("not a git repository")

// Mark is the one letter status of a path, as printed by git status --short.
type Mark rune

const (
	Clean     Mark = ' '
	Modified  Mark = 'M'
	Added     Mark = 'A'
	Deleted   Mark = 'D'
	Renamed   Mark = 'R'
	Untracked Mark = '?'
	Unmerged  Mark = 'U'
)

// StatusIndex maps absolute paths to their worktree status. Directories
// holding changes are marked Modified.
type StatusIndex struct {
	Root   string
	Branch string
	marks  map[string]Mark
}

func NewStatusIndex(root, branch string, marks map[string]Mark) *StatusIndex {
	return &StatusIndex{Root: root, Branch: branch, marks: marks}
}

// Mark returns Clean for unknown paths and for a nil index.
func (s *StatusIndex) Mark(path string) Mark {
	if s == nil {
		return Clean
	}
	if m, ok := s.marks[path]; ok {
		return m
	}
	return Clean
}

func (s *StatusIndex) Len() int {
	if s == nil {
		return 0
	}
	return len(s.marks)
}

// LoadStatus reads the status of the repository containing dir.
func LoadStatus(ctx context.Context, dir string) (*StatusIndex, error) {
	root := RepositoryRoot(dir)
	if root == "" {
		return nil, ErrNotRepository
	}
	repo, err := gitPlainOpen(root)
	if err != nil {
		return nil, err
	}
	index := &StatusIndex{Root: root, Branch: branchName(repo), marks: make(map[string]Mark)}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wt, err := repoWorktree(repo)
	if err != nil {
		return nil, err
	}
	status, err := worktreeStatus(wt)
	if err != nil {
		return nil, err
	}
	for rel, fs := range status {
		mark := markOf(fs)
		if mark == Clean {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(rel))
		index.marks[path] = mark
		for dir := filepath.Dir(path); dir != root && fsutils.IsWithin(dir, root); dir = filepath.Dir(dir) {
			if _, ok := index.marks[dir]; ok {
				break
			}
			index.marks[dir] = Modified
		}
	}
	return index, nil
}

func markOf(fs *git.FileStatus) Mark {
	code := fs.Worktree
	if code == git.Unmodified {
		code = fs.Staging
	}
	switch code {
	case git.Unmodified:
		return Clean
	case git.Untracked:
		return Untracked
	case git.Added, git.Copied:
		return Added
	case git.Deleted:
		return Deleted
	case git.Renamed:
		return Renamed
	case git.UpdatedButUnmerged:
		return Unmerged
	default:
		return Modified
	}
}

func branchName(repo *git.Repository) string {
	head, err := repoHead(repo)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "master"
		}
		return "unknown"
	}
	if head.Name().IsBranch() {
		return head.Name().Short()
	}
	return shortHash(head.Hash().String())
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

// Changed lists the paths whose mark differs between two indexes, sorted.
// Either index may be nil.
func Changed(prev, next *StatusIndex) []string {
	var paths []string
	if prev != nil {
		for path, mark := range prev.marks {
			if next.Mark(path) != mark {
				paths = append(paths, path)
			}
		}
	}
	if next != nil {
		for path, mark := range next.marks {
			if _, seen := prev.lookup(path); !seen && mark != Clean {
				paths = append(paths, path)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

func (s *StatusIndex) lookup(path string) (Mark, bool) {
	if s == nil {
		return Clean, false
	}
	m, ok := s.marks[path]
	return m, ok
}
