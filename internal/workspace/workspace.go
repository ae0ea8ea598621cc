// Package workspace finds the directory gnconf treats as its base: the root
// of the enclosing git worktree, or the starting directory when there is none.
package workspace

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// plainOpen is the go-git opener; tests may replace it.
var plainOpen = git.PlainOpenWithOptions

// FindRoot walks up from start looking for a .git directory and returns the
// worktree root. ok is false when start is not inside a worktree; root is
// then the absolute form of start.
func FindRoot(start string) (root string, ok bool, err error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", false, fmt.Errorf("workspace: %w", err)
	}
	repo, err := plainOpen(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return abs, false, nil
		}
		return "", false, fmt.Errorf("workspace: go-git open: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return abs, false, nil
		}
		return "", false, fmt.Errorf("workspace: go-git worktree: %w", err)
	}
	return wt.Filesystem.Root(), true, nil
}

// BaseDir picks the base directory: explicit wins, otherwise FindRoot(cwd).
func BaseDir(explicit, cwd string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", fmt.Errorf("workspace: %w", err)
		}
		return abs, nil
	}
	root, _, err := FindRoot(cwd)
	return root, err
}
