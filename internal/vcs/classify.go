package vcs

import (
	"os"
	"path/filepath"
	"strings"
)

// Checkout classifies a directory by its .git entry.
type Checkout int

const (
	// NotRepo means the directory has no .git entry of its own.
	NotRepo Checkout = iota
	// MainCheckout means .git is a directory.
	MainCheckout
	// WorktreeCheckout means .git is a file pointing at a parent repository.
	WorktreeCheckout
)

func (c Checkout) String() string {
	switch c {
	case MainCheckout:
		return "main checkout"
	case WorktreeCheckout:
		return "worktree"
	default:
		return "not a repository"
	}
}

// Classify inspects <dir>/.git. Only the directory itself is examined; a
// subdirectory of a checkout is NotRepo.
func Classify(dir string) Checkout {
	if dir == "" {
		return NotRepo
	}
	gitPath := filepath.Join(dir, ".git")
	info, err := os.Stat(gitPath)
	if err != nil {
		return NotRepo
	}
	if info.IsDir() {
		return MainCheckout
	}
	data, err := os.ReadFile(gitPath)
	if err != nil {
		return NotRepo
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "gitdir:") {
		return WorktreeCheckout
	}
	return NotRepo
}

// IsWorktree reports whether dir is a linked worktree checkout.
func IsWorktree(dir string) bool {
	return Classify(dir) == WorktreeCheckout
}
