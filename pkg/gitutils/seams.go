package gitutils

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var (
	osStat      = os.Stat
	filepathAbs = filepath.Abs

	gitPlainOpen = git.PlainOpen

	repoHead = func(repo *git.Repository) (*plumbing.Reference, error) {
		return repo.Head()
	}
	repoWorktree = func(repo *git.Repository) (*git.Worktree, error) {
		return repo.Worktree()
	}
	worktreeStatus = func(wt *git.Worktree) (git.Status, error) {
		return wt.Status()
	}
)
