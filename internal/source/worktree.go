package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/logger"
	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux"
	"github.com/timvw/session-switcher/internal/vcs"
)

const propBranch = "branch"

// WorktreeSource lists git worktrees of the repository the user is working
// in, live or not yet opened as a session.
type WorktreeSource struct {
	Base
	git   vcs.Git
	getwd func() (string, error)
	names *nameTable
	log   *slog.Logger
}

// NewWorktree creates the worktree source. getwd locates the repository
// when not inside a session.
func NewWorktree(m mux.Multiplexer, git vcs.Git, getwd func() (string, error)) *WorktreeSource {
	return &WorktreeSource{
		Base:  Base{Mux: m},
		git:   git,
		getwd: getwd,
		names: newNameTable(),
		log:   logger.ComponentLogger("worktree"),
	}
}

func (s *WorktreeSource) Name() string           { return Worktree }
func (s *WorktreeSource) Description() string    { return "Git worktrees of the current repository" }
func (s *WorktreeSource) Priority() uint         { return WorktreePriority }
func (s *WorktreeSource) Dependencies() []string { return []string{"git"} }

func (s *WorktreeSource) Discover(ctx context.Context, sc *model.SessionContext) ([]model.SessionRecord, error) {
	var records []model.SessionRecord
	livePaths := map[string]bool{}
	liveNames := map[string]bool{}

	// Live sessions sitting in a linked worktree.
	for _, sess := range sc.All {
		path, ok := s.Mux.SessionPath(ctx, sess.Name)
		if !ok || vcs.Classify(path) != vcs.WorktreeCheckout {
			continue
		}
		md := model.NewMetadata(Worktree).WithPath(path).WithExists(true)
		if branch, ok := s.git.CurrentBranch(ctx, path); ok {
			md = md.WithProperty(propBranch, branch)
		}
		rec := model.NewSessionRecord(sess.Name, Worktree, WorktreePriority, md).
			WithActive(true).
			WithCurrent(sess.Name == sc.Current).
			WithDiscoveredAt(sess.LastAttached)
		records = append(records, rec)
		livePaths[path] = true
		liveNames[sess.Name] = true
		s.names.bind(sess.Name, sess.Name)
	}

	root, ok := s.repoRoot(ctx, sc)
	if !ok {
		return records, nil
	}
	worktrees, err := s.git.ListWorktrees(ctx, root)
	if err != nil {
		s.log.Warn("listing worktrees failed", "root", root, "error", err)
		return records, nil
	}

	// Worktrees without a session yet.
	for _, wt := range worktrees {
		if wt.Bare || livePaths[wt.Path] || vcs.Classify(wt.Path) != vcs.WorktreeCheckout {
			continue
		}
		if liveNames[wt.Name] || liveNames[s.names.muxName(wt.Name)] {
			continue
		}
		md := model.NewMetadata(Worktree).WithPath(wt.Path).WithExists(false)
		if wt.Branch != "" {
			md = md.WithProperty(propBranch, wt.Branch)
		}
		records = append(records, model.NewSessionRecord(wt.Name, Worktree, WorktreePriority, md))
	}
	return records, nil
}

func (s *WorktreeSource) Resolve(ctx context.Context, name string, sc *model.SessionContext) (model.SessionMetadata, error) {
	muxName := s.names.muxName(name)
	for _, candidate := range uniqueNames(name, muxName) {
		if !s.Mux.HasSession(ctx, candidate) {
			continue
		}
		path, ok := s.Mux.SessionPath(ctx, candidate)
		if !ok || vcs.Classify(path) != vcs.WorktreeCheckout {
			continue
		}
		md := model.NewMetadata(Worktree).WithPath(path).WithExists(true)
		if branch, ok := s.git.CurrentBranch(ctx, path); ok {
			md = md.WithProperty(propBranch, branch)
		}
		return md, nil
	}

	root, ok := s.repoRoot(ctx, sc)
	if !ok {
		return model.SessionMetadata{}, apperrors.NotOwned(Worktree, name)
	}
	worktrees, err := s.git.ListWorktrees(ctx, root)
	if err != nil {
		return model.SessionMetadata{}, err
	}
	for _, wt := range worktrees {
		if wt.Bare || wt.Name != name || vcs.Classify(wt.Path) != vcs.WorktreeCheckout {
			continue
		}
		md := model.NewMetadata(Worktree).WithPath(wt.Path).WithExists(s.Mux.HasSession(ctx, muxName))
		if wt.Branch != "" {
			md = md.WithProperty(propBranch, wt.Branch)
		}
		return md, nil
	}
	return model.SessionMetadata{}, apperrors.NotOwned(Worktree, name)
}

func (s *WorktreeSource) CanHandle(ctx context.Context, name string, sc *model.SessionContext) bool {
	return OwnsByResolve(ctx, s, name, sc)
}

// Switch opens the worktree, creating its session first when needed.
func (s *WorktreeSource) Switch(ctx context.Context, name string, md model.SessionMetadata) error {
	return mux.SwitchOrCreate(ctx, s.Mux, s.names.muxName(name), md.Path)
}

// Kill translates the display name before killing.
func (s *WorktreeSource) Kill(ctx context.Context, name string) error {
	return s.Mux.KillSession(ctx, s.names.muxName(name))
}

// Start creates the worktree session in the background.
func (s *WorktreeSource) Start(ctx context.Context, name string, md model.SessionMetadata) error {
	muxName := s.names.muxName(name)
	if s.Mux.HasSession(ctx, muxName) {
		return nil
	}
	return s.Mux.NewSession(ctx, muxName, md.Path)
}

func (s *WorktreeSource) Preview(ctx context.Context, name string, md model.SessionMetadata) (string, error) {
	if md.Path == "" {
		return FallbackPreview(name, md), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Worktree: %s\n", name)
	fmt.Fprintf(&b, "Path: %s\n", md.Path)
	branch := md.Property(propBranch)
	if current, ok := s.git.CurrentBranch(ctx, md.Path); ok {
		branch = current
	}
	if branch != "" {
		fmt.Fprintf(&b, "Branch: %s\n", branch)
	}
	if md.Exists {
		b.WriteString("Session: running\n")
	} else {
		b.WriteString("Session: not started\n")
	}

	if log, err := s.git.RecentLog(ctx, md.Path, 5); err == nil && len(log) > 0 {
		b.WriteString("\nRecent commits:\n")
		for _, l := range log {
			fmt.Fprintf(&b, "  %s\n", l)
		}
	}
	if status, err := s.git.Status(ctx, md.Path); err == nil {
		if len(status) == 0 {
			b.WriteString("\nWorking tree clean\n")
		} else {
			b.WriteString("\nChanges:\n")
			for i, l := range status {
				if i == 10 {
					fmt.Fprintf(&b, "  ... and %d more\n", len(status)-10)
					break
				}
				fmt.Fprintf(&b, "  %s\n", l)
			}
		}
	}
	return b.String(), nil
}

func (s *WorktreeSource) HelpText() []string {
	return []string{"● - Worktree with a running session", "○ - Worktree without a session"}
}

// repoRoot finds the repository of the current session, or of the process
// working directory outside a session.
func (s *WorktreeSource) repoRoot(ctx context.Context, sc *model.SessionContext) (string, bool) {
	var dir string
	if sc.HasCurrent() {
		dir, _ = s.Mux.SessionPath(ctx, sc.Current)
	}
	if dir == "" {
		wd, err := s.getwd()
		if err != nil {
			return "", false
		}
		dir = wd
	}
	return s.git.RepoRoot(ctx, dir)
}

func uniqueNames(a, b string) []string {
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}
