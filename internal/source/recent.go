package source

import (
	"context"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux"
)

// RecentSource surfaces the most recently used session other than the current one.
type RecentSource struct {
	Base
}

// NewRecent creates the recent source.
func NewRecent(m mux.Multiplexer) *RecentSource {
	return &RecentSource{Base: Base{Mux: m}}
}

func (s *RecentSource) Name() string        { return Recent }
func (s *RecentSource) Description() string { return "Most recently used session" }
func (s *RecentSource) Priority() uint      { return RecentPriority }

func (s *RecentSource) Discover(ctx context.Context, sc *model.SessionContext) ([]model.SessionRecord, error) {
	head := sc.MostRecent()
	if head == "" || head == sc.Current {
		return nil, nil
	}
	return []model.SessionRecord{liveRecord(head, Recent, RecentPriority, sc)}, nil
}

func (s *RecentSource) Resolve(ctx context.Context, name string, sc *model.SessionContext) (model.SessionMetadata, error) {
	md, ok := resolveLive(ctx, s.Mux, Recent, name, sc)
	if !ok {
		return model.SessionMetadata{}, apperrors.NotOwned(Recent, name)
	}
	return md, nil
}

// CanHandle only claims the head of the active list.
func (s *RecentSource) CanHandle(ctx context.Context, name string, sc *model.SessionContext) bool {
	head := sc.MostRecent()
	return head != "" && head != sc.Current && name == head
}

func (s *RecentSource) Switch(ctx context.Context, name string, md model.SessionMetadata) error {
	return s.Mux.SwitchOrAttach(ctx, name)
}

func (s *RecentSource) Start(ctx context.Context, name string, md model.SessionMetadata) error {
	return s.Switch(ctx, name, md)
}

func (s *RecentSource) Preview(ctx context.Context, name string, md model.SessionMetadata) (string, error) {
	return livePreview(ctx, s.Mux, name, md), nil
}

func (s *RecentSource) HelpText() []string {
	return []string{"★ - Most recent session"}
}
