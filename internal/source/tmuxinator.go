package source

import (
	"context"
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux"
	"github.com/timvw/session-switcher/internal/tmuxinator"
)

const propConfig = "config"

// TmuxinatorSource lists tmuxinator projects and starts them on demand.
type TmuxinatorSource struct {
	Base
	tool tmuxinator.Tool
	dirs []string

	availOnce sync.Once
	avail     bool
}

// NewTmuxinator creates the tmuxinator source. dirs are searched in order.
func NewTmuxinator(m mux.Multiplexer, tool tmuxinator.Tool, dirs []string) *TmuxinatorSource {
	return &TmuxinatorSource{Base: Base{Mux: m}, tool: tool, dirs: dirs}
}

func (s *TmuxinatorSource) Name() string           { return Tmuxinator }
func (s *TmuxinatorSource) Description() string    { return "tmuxinator projects" }
func (s *TmuxinatorSource) Priority() uint         { return TmuxinatorPriority }
func (s *TmuxinatorSource) Dependencies() []string { return []string{"tmuxinator"} }

// available probes the tool once per process.
func (s *TmuxinatorSource) available(ctx context.Context) bool {
	s.availOnce.Do(func() {
		s.avail = s.tool != nil && s.tool.Available(ctx)
	})
	return s.avail
}

func (s *TmuxinatorSource) Discover(ctx context.Context, sc *model.SessionContext) ([]model.SessionRecord, error) {
	if !s.available(ctx) {
		return nil, nil
	}
	configs := s.tool.ListConfigs(s.dirs)
	records := make([]model.SessionRecord, 0, len(configs))
	for _, cfg := range configs {
		live, exists := sc.Lookup(cfg.Name)
		md := model.NewMetadata(Tmuxinator).WithExists(exists).WithProperty(propConfig, cfg.Path)
		rec := model.NewSessionRecord(cfg.Name, Tmuxinator, TmuxinatorPriority, md).
			WithActive(exists).
			WithCurrent(cfg.Name == sc.Current)
		if exists {
			rec = rec.WithDiscoveredAt(live.LastAttached)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *TmuxinatorSource) Resolve(ctx context.Context, name string, sc *model.SessionContext) (model.SessionMetadata, error) {
	if !s.available(ctx) {
		return model.SessionMetadata{}, apperrors.NotOwned(Tmuxinator, name)
	}
	for _, cfg := range s.tool.ListConfigs(s.dirs) {
		if cfg.Name != name {
			continue
		}
		md := model.NewMetadata(Tmuxinator).
			WithExists(s.Mux.HasSession(ctx, name)).
			WithProperty(propConfig, cfg.Path)
		if summary, err := s.tool.ReadSummary(cfg.Path); err == nil && summary.Root != "" {
			md = md.WithPath(summary.Root)
		}
		return md, nil
	}
	return model.SessionMetadata{}, apperrors.NotOwned(Tmuxinator, name)
}

func (s *TmuxinatorSource) CanHandle(ctx context.Context, name string, sc *model.SessionContext) bool {
	return OwnsByResolve(ctx, s, name, sc)
}

// Switch starts the project detached when it is not running, then switches.
func (s *TmuxinatorSource) Switch(ctx context.Context, name string, md model.SessionMetadata) error {
	if !s.Mux.HasSession(ctx, name) {
		if err := s.tool.Start(ctx, name, true); err != nil {
			return err
		}
	}
	return s.Mux.SwitchOrAttach(ctx, name)
}

// Start launches the project in the background.
func (s *TmuxinatorSource) Start(ctx context.Context, name string, md model.SessionMetadata) error {
	if s.Mux.HasSession(ctx, name) {
		return nil
	}
	return s.tool.Start(ctx, name, true)
}

func (s *TmuxinatorSource) Preview(ctx context.Context, name string, md model.SessionMetadata) (string, error) {
	cfgPath := md.Property(propConfig)
	if cfgPath == "" {
		return FallbackPreview(name, md), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "tmuxinator project: %s\n", name)
	fmt.Fprintf(&b, "Config: %s\n", cfgPath)
	if summary, err := s.tool.ReadSummary(cfgPath); err == nil {
		if summary.Root != "" {
			fmt.Fprintf(&b, "Root: %s\n", summary.Root)
		}
		if len(summary.Windows) > 0 {
			fmt.Fprintf(&b, "Windows: %s\n", strings.Join(summary.Windows, ", "))
		}
	}
	if md.Exists {
		b.WriteString("Status: running\n")
		if content, err := s.Mux.CaptureSession(ctx, name); err == nil && strings.TrimSpace(content) != "" {
			b.WriteString(strings.Repeat("─", 40))
			b.WriteString("\n")
			b.WriteString(strings.TrimRight(content, "\n"))
			b.WriteString("\n")
		}
	} else {
		b.WriteString("Status: not running\n")
	}
	return b.String(), nil
}

func (s *TmuxinatorSource) HelpText() []string {
	return []string{"◆ - tmuxinator project"}
}
