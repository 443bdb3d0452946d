// Package vcs wraps the git command line for the worktree source.
package vcs

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/timvw/session-switcher/internal/errors"
)

// Worktree is one entry of `git worktree list`.
type Worktree struct {
	Path   string
	Name   string // base name of Path
	Branch string // empty when detached
	Bare   bool
}

// Git is the version-control adapter.
type Git interface {
	// RepoRoot returns the top-level directory of the repository containing dir.
	RepoRoot(ctx context.Context, dir string) (string, bool)
	// ListWorktrees lists the worktrees of the repository at root, main checkout first.
	ListWorktrees(ctx context.Context, root string) ([]Worktree, error)
	// CurrentBranch returns the checked-out branch; ok=false when detached or on error.
	CurrentBranch(ctx context.Context, dir string) (string, bool)
	// RecentLog returns up to n one-line commit summaries.
	RecentLog(ctx context.Context, dir string, n int) ([]string, error)
	// Status returns `git status --porcelain` lines.
	Status(ctx context.Context, dir string) ([]string, error)
}

// CLI implements Git by running the git binary.
type CLI struct{}

// NewCLI creates a git CLI adapter.
func NewCLI() *CLI {
	return &CLI{}
}

func (g *CLI) RepoRoot(ctx context.Context, dir string) (string, bool) {
	out, err := g.run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", false
	}
	root := strings.TrimSpace(out)
	return root, root != ""
}

func (g *CLI) ListWorktrees(ctx context.Context, root string) ([]Worktree, error) {
	out, err := g.run(ctx, root, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseWorktrees(out), nil
}

func (g *CLI) CurrentBranch(ctx context.Context, dir string) (string, bool) {
	out, err := g.run(ctx, dir, "branch", "--show-current")
	if err != nil {
		return "", false
	}
	branch := strings.TrimSpace(out)
	return branch, branch != ""
}

func (g *CLI) RecentLog(ctx context.Context, dir string, n int) ([]string, error) {
	out, err := g.run(ctx, dir, "log", "--oneline", "--no-color", "-n", strconv.Itoa(n))
	if err != nil {
		return nil, err
	}
	return lines(out), nil
}

func (g *CLI) Status(ctx context.Context, dir string) ([]string, error) {
	out, err := g.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return lines(out), nil
}

// run executes git in dir and returns stdout.
func (g *CLI) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", apperrors.ExternalToolFailed("git", args, apperrors.E(msg))
		}
		return "", apperrors.ExternalToolFailed("git", args, err)
	}
	return stdout.String(), nil
}

// parseWorktrees parses `git worktree list --porcelain`. Records are
// separated by blank lines.
func parseWorktrees(out string) []Worktree {
	var res []Worktree
	var cur Worktree

	flush := func() {
		if cur.Path != "" {
			cur.Name = filepath.Base(cur.Path)
			res = append(res, cur)
		}
		cur = Worktree{}
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			cur.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch refs/heads/"):
			cur.Branch = strings.TrimPrefix(line, "branch refs/heads/")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(line, "branch ")
		case line == "bare":
			cur.Bare = true
		}
	}
	flush()
	return res
}

func lines(out string) []string {
	var res []string
	for _, l := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if strings.TrimSpace(l) != "" {
			res = append(res, l)
		}
	}
	return res
}
