package source

import (
	"context"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux"
	"github.com/timvw/session-switcher/internal/vcs"
)

// ActiveSource lists the live non-scratch sessions, including the current one.
type ActiveSource struct {
	Base
	isScratch func(string) bool
}

// NewActive creates the active source.
func NewActive(m mux.Multiplexer, isScratch func(string) bool) *ActiveSource {
	return &ActiveSource{Base: Base{Mux: m}, isScratch: isScratch}
}

func (s *ActiveSource) Name() string        { return Active }
func (s *ActiveSource) Description() string { return "Live tmux sessions" }
func (s *ActiveSource) Priority() uint      { return ActivePriority }

func (s *ActiveSource) Discover(ctx context.Context, sc *model.SessionContext) ([]model.SessionRecord, error) {
	records := make([]model.SessionRecord, 0, len(sc.Active)+1)
	for _, name := range sc.Active {
		records = append(records, liveRecord(name, Active, ActivePriority, sc))
	}
	if sc.HasCurrent() && !s.isScratch(sc.Current) {
		records = append(records, liveRecord(sc.Current, Active, ActivePriority, sc).WithCurrent(true))
	}
	return records, nil
}

func (s *ActiveSource) Resolve(ctx context.Context, name string, sc *model.SessionContext) (model.SessionMetadata, error) {
	md, ok := resolveLive(ctx, s.Mux, Active, name, sc)
	if !ok {
		return model.SessionMetadata{}, apperrors.NotOwned(Active, name)
	}
	return md, nil
}

// CanHandle claims live non-scratch sessions whose directory is not a
// linked worktree; those belong to the worktree source.
func (s *ActiveSource) CanHandle(ctx context.Context, name string, sc *model.SessionContext) bool {
	if !sc.InActive(name) && name != sc.Current {
		return false
	}
	if name == "" || s.isScratch(name) {
		return false
	}
	if path, ok := s.Mux.SessionPath(ctx, name); ok && vcs.Classify(path) == vcs.WorktreeCheckout {
		return false
	}
	return true
}

func (s *ActiveSource) Switch(ctx context.Context, name string, md model.SessionMetadata) error {
	return s.Mux.SwitchOrAttach(ctx, name)
}

func (s *ActiveSource) Start(ctx context.Context, name string, md model.SessionMetadata) error {
	return s.Switch(ctx, name, md)
}

func (s *ActiveSource) Preview(ctx context.Context, name string, md model.SessionMetadata) (string, error) {
	return livePreview(ctx, s.Mux, name, md), nil
}

func (s *ActiveSource) HelpText() []string {
	return []string{"● - Active session", "→ - Current session"}
}
