package mux

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/model"
)

// listFormat puts the name last; tmux forbids ':' in session names so the
// first three fields can be split off safely.
const listFormat = "#{?session_last_attached,#{session_last_attached},#{session_activity}}:#{session_windows}:#{session_attached}:#{session_name}"

// Tmux implements the Multiplexer interface for tmux.
type Tmux struct {
	socket string
	inside bool
	paths  singleflight.Group
}

// Option configures a Tmux.
type Option func(*Tmux)

// WithSocket selects the tmux server. Values containing a path separator are
// passed as -S, bare names as -L.
func WithSocket(socket string) Option {
	return func(t *Tmux) { t.socket = socket }
}

// WithInside overrides $TMUX detection.
func WithInside(inside bool) Option {
	return func(t *Tmux) { t.inside = inside }
}

// NewTmux creates a new tmux multiplexer.
func NewTmux(opts ...Option) *Tmux {
	t := &Tmux{inside: os.Getenv("TMUX") != ""}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns "tmux".
func (t *Tmux) Name() string {
	return "tmux"
}

// InsideClient reports whether $TMUX was set.
func (t *Tmux) InsideClient() bool {
	return t.inside
}

// ListSessions returns every live session.
func (t *Tmux) ListSessions(ctx context.Context) ([]model.MuxSession, error) {
	out, err := t.run(ctx, "list-sessions", "-F", listFormat)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return parseSessions(out)
}

// CurrentSession returns the session of the calling client.
func (t *Tmux) CurrentSession(ctx context.Context) (string, error) {
	if !t.inside {
		return "", nil
	}
	out, err := t.run(ctx, "display-message", "-p", "#{session_name}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HasSession checks for an exact session name match.
func (t *Tmux) HasSession(ctx context.Context, name string) bool {
	_, err := t.run(ctx, "has-session", "-t", exact(name))
	return err == nil
}

// SessionPath returns #{session_path}. Concurrent lookups of the same name
// share one tmux call.
func (t *Tmux) SessionPath(ctx context.Context, name string) (string, bool) {
	v, err, _ := t.paths.Do(name, func() (interface{}, error) {
		return t.run(ctx, "display-message", "-p", "-t", exact(name), "#{session_path}")
	})
	if err != nil {
		return "", false
	}
	path := strings.TrimSpace(v.(string))
	return path, path != ""
}

// NewSession creates a detached session.
func (t *Tmux) NewSession(ctx context.Context, name, path string) error {
	args := []string{"new-session", "-d", "-s", name}
	if path != "" {
		args = append(args, "-c", path)
	}
	_, err := t.run(ctx, args...)
	return err
}

// KillSession destroys a session.
func (t *Tmux) KillSession(ctx context.Context, name string) error {
	_, err := t.run(ctx, "kill-session", "-t", exact(name))
	return err
}

// SwitchOrAttach uses switch-client inside tmux and attach-session outside.
func (t *Tmux) SwitchOrAttach(ctx context.Context, name string) error {
	if t.inside {
		_, err := t.run(ctx, "switch-client", "-t", exact(name))
		return err
	}
	return t.runAttached(ctx, "attach-session", "-t", exact(name))
}

// CaptureSession captures the active pane of the active window, with escapes.
func (t *Tmux) CaptureSession(ctx context.Context, name string) (string, error) {
	out, err := t.run(ctx, "list-windows", "-t", exact(name), "-f", "#{window_active}", "-F", "#{window_index}")
	if err != nil {
		return "", err
	}
	window := firstLine(out)
	if window == "" {
		return "", apperrors.MalformedOutput("tmux", fmt.Sprintf("no active window in session %s", name))
	}
	out, err = t.run(ctx, "list-panes", "-t", exact(name)+":"+window, "-f", "#{pane_active}", "-F", "#{pane_index}")
	if err != nil {
		return "", err
	}
	pane := firstLine(out)
	if pane == "" {
		return "", apperrors.MalformedOutput("tmux", fmt.Sprintf("no active pane in %s:%s", name, window))
	}
	return t.run(ctx, "capture-pane", "-e", "-p", "-t", fmt.Sprintf("%s:%s.%s", exact(name), window, pane))
}

// SessionInfo returns the window and attached-client counts.
func (t *Tmux) SessionInfo(ctx context.Context, name string) (SessionInfo, error) {
	out, err := t.run(ctx, "display-message", "-p", "-t", exact(name), "#{session_windows}:#{session_attached}")
	if err != nil {
		return SessionInfo{}, err
	}
	return parseSessionInfo(out)
}

// PopupOptions sizes a display-popup.
type PopupOptions struct {
	Width  string
	Height string
	Title  string
}

// Popup runs command in a tmux popup and waits for it to exit.
func (t *Tmux) Popup(ctx context.Context, opts PopupOptions, command string) error {
	args := []string{"display-popup", "-E"}
	if opts.Width != "" {
		args = append(args, "-w", opts.Width)
	}
	if opts.Height != "" {
		args = append(args, "-h", opts.Height)
	}
	if opts.Title != "" {
		args = append(args, "-T", opts.Title)
	}
	args = append(args, command)
	_, err := t.run(ctx, args...)
	return err
}

func (t *Tmux) globalArgs() []string {
	switch {
	case t.socket == "":
		return nil
	case strings.ContainsRune(t.socket, os.PathSeparator):
		return []string{"-S", t.socket}
	default:
		return []string{"-L", t.socket}
	}
}

// run executes a tmux command and returns its stdout.
func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", append(t.globalArgs(), args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", wrapError(err, stderr.String(), args)
	}
	return stdout.String(), nil
}

// runAttached hands the terminal to tmux (attach-session).
func (t *Tmux) runAttached(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "tmux", append(t.globalArgs(), args...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return wrapError(err, stderr.String(), args)
	}
	return nil
}

// wrapError maps tmux stderr onto the package sentinels.
func wrapError(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)

	kind := apperrors.KindExternalTool
	switch {
	case strings.Contains(stderr, "no server running"),
		strings.Contains(stderr, "error connecting to"),
		strings.Contains(stderr, "server exited unexpectedly"):
		err = ErrNoServer
		kind = apperrors.KindNotFound
	case strings.Contains(stderr, "duplicate session"):
		err = ErrSessionExists
	case strings.Contains(stderr, "session not found"),
		strings.Contains(stderr, "can't find session"):
		err = ErrSessionNotFound
		kind = apperrors.KindNotFound
	case stderr != "":
		err = fmt.Errorf("%w: %s", err, stderr)
	}
	return apperrors.E(apperrors.Op("tmux"), kind, "tmux "+strings.Join(args, " "), err)
}

// exact prefixes "=" so tmux does not fall back to prefix matching.
func exact(name string) string {
	return "=" + name
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// parseSessions parses list-sessions output produced with listFormat.
func parseSessions(out string) ([]model.MuxSession, error) {
	var sessions []model.MuxSession
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 4)
		if len(parts) != 4 || parts[3] == "" {
			return nil, apperrors.MalformedOutput("tmux", fmt.Sprintf("unexpected list-sessions line %q", line))
		}
		var last time.Time
		if parts[0] != "" {
			secs, err := strconv.ParseInt(parts[0], 10, 64)
			if err != nil {
				return nil, apperrors.MalformedOutput("tmux", fmt.Sprintf("bad timestamp in %q", line))
			}
			last = time.Unix(secs, 0)
		}
		windows, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, apperrors.MalformedOutput("tmux", fmt.Sprintf("bad window count in %q", line))
		}
		attached, _ := strconv.Atoi(parts[2])
		sessions = append(sessions, model.MuxSession{
			Name:         parts[3],
			LastAttached: last,
			Windows:      windows,
			Attached:     attached > 0,
		})
	}
	return sessions, nil
}

func parseSessionInfo(out string) (SessionInfo, error) {
	windows, attached, ok := strings.Cut(strings.TrimSpace(out), ":")
	if !ok {
		return SessionInfo{}, apperrors.MalformedOutput("tmux", fmt.Sprintf("unexpected session info %q", out))
	}
	w, err1 := strconv.Atoi(windows)
	a, err2 := strconv.Atoi(attached)
	if err1 != nil || err2 != nil {
		return SessionInfo{}, apperrors.MalformedOutput("tmux", fmt.Sprintf("unexpected session info %q", out))
	}
	return SessionInfo{Windows: w, Attached: a}, nil
}
