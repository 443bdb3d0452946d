package registry

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux/muxtest"
	"github.com/timvw/session-switcher/internal/source"
	"github.com/timvw/session-switcher/internal/vcs"
)

func isScratch(name string) bool { return strings.Contains(name, "scratch") }

type noRepo struct{}

func (noRepo) RepoRoot(ctx context.Context, dir string) (string, bool) { return "", false }
func (noRepo) ListWorktrees(ctx context.Context, root string) ([]vcs.Worktree, error) {
	return nil, nil
}
func (noRepo) CurrentBranch(ctx context.Context, dir string) (string, bool) { return "", false }
func (noRepo) RecentLog(ctx context.Context, dir string, n int) ([]string, error) {
	return nil, nil
}
func (noRepo) Status(ctx context.Context, dir string) ([]string, error) { return nil, nil }

// stubSource is a configurable source for dedup and failure tests.
type stubSource struct {
	source.Base
	name     string
	priority uint
	deps     []string
	records  []string
	err      error
	owns     map[string]bool

	discovered atomic.Int32
	resolved   atomic.Int32
	killed     atomic.Int32
	switched   atomic.Int32
}

func (s *stubSource) Name() string           { return s.name }
func (s *stubSource) Description() string    { return "stub " + s.name }
func (s *stubSource) Priority() uint         { return s.priority }
func (s *stubSource) Dependencies() []string { return s.deps }

func (s *stubSource) Discover(ctx context.Context, sc *model.SessionContext) ([]model.SessionRecord, error) {
	s.discovered.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	var out []model.SessionRecord
	for _, n := range s.records {
		out = append(out, model.NewSessionRecord(n, s.name, s.priority, model.NewMetadata(s.name)))
	}
	return out, nil
}

func (s *stubSource) Resolve(ctx context.Context, name string, sc *model.SessionContext) (model.SessionMetadata, error) {
	s.resolved.Add(1)
	if !s.owns[name] {
		return model.SessionMetadata{}, apperrors.NotOwned(s.name, name)
	}
	return model.NewMetadata(s.name), nil
}

func (s *stubSource) CanHandle(ctx context.Context, name string, sc *model.SessionContext) bool {
	return s.owns[name]
}

func (s *stubSource) Switch(ctx context.Context, name string, md model.SessionMetadata) error {
	s.switched.Add(1)
	return nil
}

func (s *stubSource) Kill(ctx context.Context, name string) error {
	s.killed.Add(1)
	return nil
}

func (s *stubSource) Start(ctx context.Context, name string, md model.SessionMetadata) error {
	return nil
}

func (s *stubSource) Preview(ctx context.Context, name string, md model.SessionMetadata) (string, error) {
	return "preview " + name, nil
}

// onPath pretends every command except the listed ones is installed.
func onPath(missing ...string) *DependencyCache {
	c := NewDependencyCache(time.Minute)
	c.lookPath = func(cmd string) (string, error) {
		for _, m := range missing {
			if cmd == m {
				return "", errors.New("not found")
			}
		}
		return "/usr/bin/" + cmd, nil
	}
	return c
}

func scenarioA() *muxtest.Fake {
	return muxtest.New("dotfiles",
		muxtest.Session("main", 890),
		muxtest.Session("dotfiles", 889),
		muxtest.Session("notes", 888),
		muxtest.Session("scratch-session", 887),
		muxtest.Session("default", 886),
	)
}

func builtins(f *muxtest.Fake) []source.Source {
	return source.Builtins(source.Deps{
		Mux:       f,
		Git:       noRepo{},
		IsScratch: isScratch,
		Getwd:     func() (string, error) { return "/nowhere", nil },
	})
}

func snapshot(t *testing.T, f *muxtest.Fake) *model.SessionContext {
	t.Helper()
	sessions, err := f.ListSessions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	current, _ := f.CurrentSession(context.Background())
	return model.NewSessionContext(current, sessions, isScratch)
}

func names(records []model.SessionRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestDiscoverAll_ScenarioA(t *testing.T) {
	f := scenarioA()
	r := New(builtins(f), WithDependencyCache(onPath()), WithParallel(2))

	recs := r.DiscoverAll(context.Background(), snapshot(t, f))

	want := []string{"main", "dotfiles", "notes", "default", "scratch-session"}
	if got := names(recs); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	current := 0
	for _, rec := range recs {
		if rec.IsCurrent {
			current++
			if rec.Name != "dotfiles" {
				t.Errorf("current is %q", rec.Name)
			}
		}
	}
	if current != 1 {
		t.Errorf("%d current records, want 1", current)
	}

	last := recs[len(recs)-1]
	if last.Name != "scratch-session" || last.Priority != source.ScratchPriority {
		t.Errorf("last record %+v", last)
	}
	if recs[0].SourceID != source.Recent {
		t.Errorf("main owned by %q, want recent", recs[0].SourceID)
	}
}

func TestDiscoverAll_UniqueAndOrdered(t *testing.T) {
	f := scenarioA()
	r := New(builtins(f), WithDependencyCache(onPath()))
	recs := r.DiscoverAll(context.Background(), snapshot(t, f))

	seen := map[string]bool{}
	for i, rec := range recs {
		if seen[rec.Name] {
			t.Errorf("duplicate %q", rec.Name)
		}
		seen[rec.Name] = true
		if i == 0 {
			continue
		}
		prev := recs[i-1]
		if prev.Priority > rec.Priority {
			t.Errorf("%s (%d) before %s (%d)", prev.Name, prev.Priority, rec.Name, rec.Priority)
		}
		if prev.Priority == rec.Priority && prev.DiscoveredAt.Before(rec.DiscoveredAt) {
			t.Errorf("%s older than %s in same tier", prev.Name, rec.Name)
		}
	}
}

func TestDiscoverAll_MissingDependency(t *testing.T) {
	f := scenarioA()
	needy := &stubSource{name: "needy", priority: 20, deps: []string{"nonexistent-tool-xyz"}, records: []string{"x", "y"}}
	r := New(builtins(f),
		WithExtensions(needy),
		WithDependencyCache(onPath("nonexistent-tool-xyz")))

	recs := r.DiscoverAll(context.Background(), snapshot(t, f))

	if len(recs) == 0 {
		t.Fatal("round produced nothing")
	}
	for _, rec := range recs {
		if rec.SourceID == "needy" {
			t.Errorf("skipped source contributed %q", rec.Name)
		}
	}
	if needy.discovered.Load() != 0 {
		t.Error("skipped source was asked to discover")
	}
	if n := r.MissingDependencies(context.Background()); n != 1 {
		t.Errorf("MissingDependencies = %d, want 1", n)
	}
}

func TestDiscoverAll_FailingSourceIsEmpty(t *testing.T) {
	f := scenarioA()
	broken := &stubSource{name: "broken", priority: 1, err: errors.New("boom")}
	r := New(builtins(f), WithExtensions(broken), WithDependencyCache(onPath()))

	recs := r.DiscoverAll(context.Background(), snapshot(t, f))

	if len(recs) != 5 {
		t.Errorf("got %v", names(recs))
	}
	if broken.discovered.Load() != 1 {
		t.Errorf("broken discovered %d times", broken.discovered.Load())
	}
}

func TestMerge_Dedup(t *testing.T) {
	rec := func(name, src string, prio uint, ts int64) model.SessionRecord {
		return model.NewSessionRecord(name, src, prio, model.NewMetadata(src)).WithDiscoveredAt(time.Unix(ts, 0))
	}
	tests := []struct {
		name    string
		batches [][]model.SessionRecord
		want    []string // name/source pairs
	}{
		{
			name: "lower priority wins",
			batches: [][]model.SessionRecord{
				{rec("proj", "tmuxinator", 50, 1)},
				{rec("proj", "active", 10, 2)},
			},
			want: []string{"proj/active"},
		},
		{
			name: "equal priority keeps earlier source",
			batches: [][]model.SessionRecord{
				{rec("proj", "first", 10, 1)},
				{rec("proj", "second", 10, 5)},
			},
			want: []string{"proj/first"},
		},
		{
			name: "tiers then recency",
			batches: [][]model.SessionRecord{
				{rec("old", "a", 10, 1), rec("new", "a", 10, 9)},
				{rec("late", "b", 999, 100)},
				{rec("top", "c", 0, 0)},
			},
			want: []string{"top/c", "new/a", "old/a", "late/b"},
		},
		{
			name:    "empty",
			batches: [][]model.SessionRecord{nil, {}},
			want:    []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, r := range merge(tt.batches) {
				got = append(got, r.Name+"/"+r.SourceID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSwitchTo_ScenarioC(t *testing.T) {
	f := scenarioA()
	r := New(builtins(f), WithDependencyCache(onPath()))

	err := r.SwitchTo(context.Background(), "ghost-session", snapshot(t, f))
	if !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("got %v, want NotFound", err)
	}
	if len(f.Calls) != 0 {
		t.Errorf("unexpected mux calls %v", f.Calls)
	}
}

func TestSwitchTo_RoutesToOwner(t *testing.T) {
	f := scenarioA()
	r := New(builtins(f), WithDependencyCache(onPath()))

	if err := r.SwitchTo(context.Background(), "notes", snapshot(t, f)); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}
	if !f.Called("switch:notes") {
		t.Errorf("calls %v", f.Calls)
	}
}

func TestFindOwner_BuiltinsFirst(t *testing.T) {
	f := scenarioA()
	shadow := &stubSource{name: "shadow", priority: 0, owns: map[string]bool{"notes": true, "custom": true}}
	r := New(builtins(f), WithExtensions(shadow), WithDependencyCache(onPath()))
	sc := snapshot(t, f)
	ctx := context.Background()

	tests := []struct {
		session string
		owner   string
	}{
		{"main", source.Recent},
		{"notes", source.Active},
		{"scratch-session", source.Scratch},
		{"custom", "shadow"},
		{"ghost", ""},
	}
	for _, tt := range tests {
		s, ok := r.FindOwner(ctx, tt.session, sc)
		got := ""
		if ok {
			got = s.Name()
		}
		if got != tt.owner {
			t.Errorf("FindOwner(%q) = %q, want %q", tt.session, got, tt.owner)
		}
	}
}

func TestKill_SkipsResolve(t *testing.T) {
	f := muxtest.New("")
	ext := &stubSource{name: "ext", owns: map[string]bool{"job": true}}
	r := New(nil, WithExtensions(ext), WithDependencyCache(onPath()))

	if err := r.Kill(context.Background(), "job", snapshot(t, f)); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if ext.killed.Load() != 1 || ext.resolved.Load() != 0 {
		t.Errorf("killed=%d resolved=%d", ext.killed.Load(), ext.resolved.Load())
	}
}

func TestPreview(t *testing.T) {
	f := muxtest.New("")
	ext := &stubSource{name: "ext", owns: map[string]bool{"job": true}}
	r := New(nil, WithExtensions(ext), WithDependencyCache(onPath()))
	sc := snapshot(t, f)

	text, err := r.Preview(context.Background(), "job", sc)
	if err != nil || text != "preview job" {
		t.Errorf("Preview = %q, %v", text, err)
	}
	if _, err := r.Preview(context.Background(), "nope", sc); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Errorf("Preview(nope) err = %v", err)
	}
}

func TestInspect(t *testing.T) {
	f := scenarioA()
	ext := &stubSource{name: "ext", priority: 7, deps: []string{"jq"}}
	r := New(builtins(f), WithExtensions(ext), WithDependencyCache(onPath("tmuxinator", "jq")))

	statuses := r.Inspect(context.Background())
	var order []string
	for _, st := range statuses {
		order = append(order, st.Name)
	}
	want := []string{"recent", "worktree", "ext", "active", "tmuxinator", "scratch"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order %v, want %v", order, want)
	}
	for _, st := range statuses {
		switch st.Name {
		case "tmuxinator", "ext":
			if st.Usable() {
				t.Errorf("%s should be unusable", st.Name)
			}
		default:
			if !st.Usable() {
				t.Errorf("%s missing %v", st.Name, st.Missing)
			}
		}
		if st.Extension != (st.Name == "ext") {
			t.Errorf("%s extension=%v", st.Name, st.Extension)
		}
	}
}

func TestHelpText(t *testing.T) {
	f := scenarioA()
	r := New(builtins(f))
	text := strings.Join(r.HelpText(), "\n")
	for _, want := range []string{"★", "→", "◆"} {
		if !strings.Contains(text, want) {
			t.Errorf("help text missing %q:\n%s", want, text)
		}
	}
}
