package picker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux"
)

func TestParseFZFOutput(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want Result
	}{
		{"empty", "", Result{}},
		{"whitespace", "\n\n", Result{}},
		{"plain accept", "\n● notes\n", Result{Line: "● notes"}},
		{"selection only", "● notes", Result{Line: "● notes"}},
		{"key and selection", "ctrl-x\n● notes\n", Result{Key: KeyKill, Line: "● notes"}},
		{"extra lines", "ctrl-s\n◆ proj (tmuxinator)\nignored\n", Result{Key: KeyStart, Line: "◆ proj (tmuxinator)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFZFOutput(tt.out); got != tt.want {
				t.Errorf("ParseFZFOutput(%q) = %+v, want %+v", tt.out, got, tt.want)
			}
		})
	}
}

func TestExtractSessionName(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"● notes", "notes"},
		{"→ dotfiles", "dotfiles"},
		{"◆ proj (tmuxinator)", "proj"},
		{"○ feature_x (worktree)", "feature_x"},
		{"\x1b[1;33m★\x1b[0m main", "main"},
		{"● my session (jobs)", "my session"},
		{"  ● padded  ", "padded"},
		{"bare", "bare"},
	}
	for _, tt := range tests {
		if got := ExtractSessionName(tt.line); got != tt.want {
			t.Errorf("ExtractSessionName(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func rec(name, src string) model.SessionRecord {
	return model.NewSessionRecord(name, src, 0, model.NewMetadata(src))
}

func TestFormatter_Format(t *testing.T) {
	tests := []struct {
		name        string
		rec         model.SessionRecord
		showSources bool
		want        string
	}{
		{"recent", rec("main", "recent"), false, "★ main"},
		{"active", rec("notes", "active"), false, "● notes"},
		{"current", rec("dotfiles", "active").WithCurrent(true), false, "→ dotfiles"},
		{"scratch", rec("scratch-1", "scratch"), false, "󱗽 scratch-1"},
		{"live worktree", rec("feat", "worktree").WithActive(true), false, "● feat (worktree)"},
		{"pending worktree", rec("feat", "worktree"), false, "○ feat (worktree)"},
		{"tmuxinator", rec("proj", "tmuxinator"), false, "◆ proj (tmuxinator)"},
		{"extension", rec("job", "jobs"), false, "● job (jobs)"},
		{"forced suffix", rec("notes", "active"), true, "● notes (active)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormatter(tt.showSources, false)
			if got := f.Format(tt.rec); got != tt.want {
				t.Errorf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatter_ColorRoundTrip(t *testing.T) {
	f := NewFormatter(false, true)
	recs := []model.SessionRecord{
		rec("main", "recent"),
		rec("dotfiles", "active").WithCurrent(true),
		rec("proj", "tmuxinator"),
		rec("scratch-session", "scratch").WithActive(true),
	}
	lines := f.FormatAll(recs)
	if !strings.Contains(lines[0], "\x1b[") {
		t.Errorf("expected ANSI color in %q", lines[0])
	}
	for i, line := range lines {
		if got := ExtractSessionName(line); got != recs[i].Name {
			t.Errorf("round trip %q -> %q, want %q", line, got, recs[i].Name)
		}
	}
}

func TestArgs(t *testing.T) {
	opts := Options{
		Preview:        true,
		PreviewWindow:  "down:40%",
		PreviewCommand: "ss preview",
		HelpCommand:    "ss help-preview",
	}
	args := Args(opts)
	want := []string{
		"--ansi",
		"--prompt=" + DefaultPrompt + ": ",
		"--expect=ctrl-x,ctrl-r,ctrl-s,ctrl-n,ctrl-p",
		"--preview=ss preview {}",
		"--preview-window=down:40%",
		"--bind=?:preview(ss help-preview)+change-preview-window(down:40%)",
	}
	for _, w := range want {
		if !contains(args, w) {
			t.Errorf("missing %q in %v", w, args)
		}
	}

	opts.Preview = false
	if !contains(Args(opts), "--preview-window=down:40%:hidden") {
		t.Errorf("hidden preview not requested: %v", Args(opts))
	}
	if !contains(Args(Options{}), "--preview-window=hidden") {
		t.Errorf("no preview command should hide the window: %v", Args(Options{}))
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestShellCommand(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"/usr/bin/ss", "preview"}, "/usr/bin/ss preview"},
		{[]string{"/opt/my tools/ss", "preview"}, "'/opt/my tools/ss' preview"},
		{[]string{"it's"}, `'it'\''s'`},
		{[]string{""}, "''"},
	}
	for _, tt := range tests {
		if got := ShellCommand(tt.parts...); got != tt.want {
			t.Errorf("ShellCommand(%q) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

// fakePopup runs nothing but writes the files the popup command would.
type fakePopup struct {
	output  string
	status  string
	err     error
	command string
	opts    mux.PopupOptions
}

func (f *fakePopup) Popup(ctx context.Context, opts mux.PopupOptions, command string) error {
	f.command = command
	f.opts = opts
	// The command ends with "< in > out; echo $? > status".
	fields := strings.Fields(command)
	out := strings.Trim(strings.TrimSuffix(fields[len(fields)-5], ";"), "'")
	status := strings.Trim(fields[len(fields)-1], "'")
	if f.output != "" {
		_ = os.WriteFile(out, []byte(f.output), 0o600)
	}
	if f.status != "" {
		_ = os.WriteFile(status, []byte(f.status+"\n"), 0o600)
	}
	return f.err
}

func TestPopup_Select(t *testing.T) {
	tests := []struct {
		name    string
		fake    fakePopup
		want    Result
		wantErr bool
	}{
		{"accept", fakePopup{output: "\n● notes\n", status: "0"}, Result{Line: "● notes"}, false},
		{"kill", fakePopup{output: "ctrl-x\n● notes\n", status: "0"}, Result{Key: KeyKill, Line: "● notes"}, false},
		{"escape", fakePopup{status: "130"}, Result{}, false},
		{"fzf crashed", fakePopup{status: "2"}, Result{}, true},
		{"popup failed", fakePopup{err: errors.New("no popups")}, Result{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := tt.fake
			p := &Popup{Mux: &fake, Width: "60%", Height: "40%"}
			got, err := p.Select(context.Background(), []string{"● notes", "★ main"}, Options{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if fake.opts.Width != "60%" || fake.opts.Height != "40%" {
				t.Errorf("popup options %+v", fake.opts)
			}
			if !strings.HasPrefix(fake.command, "fzf --ansi") {
				t.Errorf("command %q", fake.command)
			}
		})
	}
}

func TestPopup_CleansUp(t *testing.T) {
	fake := &fakePopup{status: "0", output: "● notes\n"}
	p := &Popup{Mux: fake}
	if _, err := p.Select(context.Background(), []string{"● notes"}, Options{}); err != nil {
		t.Fatal(err)
	}
	fields := strings.Fields(fake.command)
	in := strings.Trim(fields[len(fields)-7], "'")
	if _, err := os.Stat(filepath.Dir(in)); !os.IsNotExist(err) {
		t.Errorf("temp dir %s still exists (err=%v)", filepath.Dir(in), err)
	}
}

func TestSelect_EmptyListCancels(t *testing.T) {
	for _, p := range []Picker{&FZF{Path: "/nonexistent/fzf"}, &Popup{}, &Builtin{}} {
		got, err := p.Select(context.Background(), nil, Options{})
		if err != nil || !got.Cancelled() {
			t.Errorf("%T: got %+v, %v", p, got, err)
		}
	}
}

func TestChoose(t *testing.T) {
	withFZF := func(string) (string, error) { return "/usr/bin/fzf", nil }
	noFZF := func(string) (string, error) { return "", errors.New("not found") }
	tty := func() bool { return true }
	noTTY := func() bool { return false }
	popups := &fakePopup{}

	tests := []struct {
		name     string
		choice   Choice
		want     string
		wantKind apperrors.Kind
	}{
		{"auto outside tmux", Choice{Mode: ModeAuto, LookPath: withFZF, IsTerminal: tty}, "*picker.FZF", 0},
		{"auto inside tmux", Choice{Mode: ModeAuto, Inside: true, Popups: popups, LookPath: withFZF}, "*picker.Popup", 0},
		{"auto no popup", Choice{Mode: ModeAuto, Inside: true, NoPopup: true, Popups: popups, LookPath: withFZF}, "*picker.FZF", 0},
		{"auto without fzf", Choice{Mode: ModeAuto, LookPath: noFZF, IsTerminal: tty}, "*picker.Builtin", 0},
		{"auto without fzf or tty", Choice{Mode: ModeAuto, LookPath: noFZF, IsTerminal: noTTY}, "", apperrors.KindUnsupported},
		{"fzf missing", Choice{Mode: ModeFZF, LookPath: noFZF}, "", apperrors.KindDependencyMissing},
		{"popup outside tmux", Choice{Mode: ModePopup, LookPath: withFZF}, "*picker.FZF", 0},
		{"builtin", Choice{Mode: ModeBuiltin, LookPath: withFZF, IsTerminal: tty}, "*picker.Builtin", 0},
		{"unknown", Choice{Mode: "gui", LookPath: withFZF}, "", apperrors.KindConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Choose(tt.choice)
			if tt.want == "" {
				if got := apperrors.GetKind(err); got != tt.wantKind {
					t.Fatalf("kind = %v (%v), want %v", got, err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Choose: %v", err)
			}
			if got := reflect.TypeOf(p).String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
