package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux/muxtest"
	"github.com/timvw/session-switcher/internal/tmuxinator"
	"github.com/timvw/session-switcher/internal/vcs"
)

func isScratch(name string) bool { return strings.Contains(name, "scratch") }

// scenarioA is main@890, dotfiles@889 (current), notes@888,
// scratch-session@887, default@886.
func scenarioA() *muxtest.Fake {
	return muxtest.New("dotfiles",
		muxtest.Session("main", 890),
		muxtest.Session("dotfiles", 889),
		muxtest.Session("notes", 888),
		muxtest.Session("scratch-session", 887),
		muxtest.Session("default", 886),
	)
}

func snapshot(t *testing.T, f *muxtest.Fake) *model.SessionContext {
	t.Helper()
	sessions, _ := f.ListSessions(context.Background())
	current := ""
	if f.InsideClient() {
		current, _ = f.CurrentSession(context.Background())
	}
	return model.NewSessionContext(current, sessions, isScratch)
}

func names(records []model.SessionRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

type fakeGit struct {
	root      string
	worktrees []vcs.Worktree
	branches  map[string]string
	log       []string
	status    []string
}

func (g *fakeGit) RepoRoot(ctx context.Context, dir string) (string, bool) {
	if g.root == "" {
		return "", false
	}
	return g.root, true
}

func (g *fakeGit) ListWorktrees(ctx context.Context, root string) ([]vcs.Worktree, error) {
	return g.worktrees, nil
}

func (g *fakeGit) CurrentBranch(ctx context.Context, dir string) (string, bool) {
	b, ok := g.branches[dir]
	return b, ok
}

func (g *fakeGit) RecentLog(ctx context.Context, dir string, n int) ([]string, error) {
	if len(g.log) > n {
		return g.log[:n], nil
	}
	return g.log, nil
}

func (g *fakeGit) Status(ctx context.Context, dir string) ([]string, error) {
	return g.status, nil
}

type fakeTool struct {
	mu        sync.Mutex
	available bool
	configs   []tmuxinator.Config
	summaries map[string]tmuxinator.Summary
	started   []string
	mux       *muxtest.Fake
}

func (f *fakeTool) Available(ctx context.Context) bool { return f.available }

func (f *fakeTool) ListConfigs(dirs []string) []tmuxinator.Config { return f.configs }

func (f *fakeTool) Start(ctx context.Context, name string, detached bool) error {
	f.mu.Lock()
	f.started = append(f.started, name)
	f.mu.Unlock()
	if f.mux != nil {
		return f.mux.NewSession(ctx, name, "")
	}
	return nil
}

func (f *fakeTool) ReadSummary(path string) (tmuxinator.Summary, error) {
	return f.summaries[path], nil
}

// makeRepo creates a main checkout and linked worktrees under a temp dir and
// returns their paths keyed by name. "main" is the main checkout.
func makeRepo(t *testing.T, worktrees ...string) map[string]string {
	t.Helper()
	root := t.TempDir()
	paths := map[string]string{}

	mainDir := filepath.Join(root, "main")
	if err := os.MkdirAll(filepath.Join(mainDir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	paths["main"] = mainDir

	for _, name := range worktrees {
		dir := filepath.Join(root, "wt", name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		pointer := "gitdir: " + filepath.Join(mainDir, ".git", "worktrees", name) + "\n"
		if err := os.WriteFile(filepath.Join(dir, ".git"), []byte(pointer), 0o644); err != nil {
			t.Fatal(err)
		}
		paths[name] = dir
	}
	return paths
}

func (f *fakeTool) configsMD() model.SessionMetadata {
	return model.NewMetadata(Tmuxinator)
}
