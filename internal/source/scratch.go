package source

import (
	"context"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux"
)

// ScratchSource lists throwaway sessions matching the scratch naming convention.
type ScratchSource struct {
	Base
	isScratch func(string) bool
}

// NewScratch creates the scratch source.
func NewScratch(m mux.Multiplexer, isScratch func(string) bool) *ScratchSource {
	return &ScratchSource{Base: Base{Mux: m}, isScratch: isScratch}
}

func (s *ScratchSource) Name() string        { return Scratch }
func (s *ScratchSource) Description() string { return "Scratch sessions" }
func (s *ScratchSource) Priority() uint      { return ScratchPriority }

func (s *ScratchSource) Discover(ctx context.Context, sc *model.SessionContext) ([]model.SessionRecord, error) {
	records := make([]model.SessionRecord, 0, len(sc.Scratch))
	for _, name := range sc.Scratch {
		records = append(records, liveRecord(name, Scratch, ScratchPriority, sc))
	}
	// The active source skips a scratch-named current session.
	if sc.HasCurrent() && s.isScratch(sc.Current) {
		records = append(records, liveRecord(sc.Current, Scratch, ScratchPriority, sc).WithCurrent(true))
	}
	return records, nil
}

func (s *ScratchSource) Resolve(ctx context.Context, name string, sc *model.SessionContext) (model.SessionMetadata, error) {
	if !s.isScratch(name) {
		return model.SessionMetadata{}, apperrors.NotOwned(Scratch, name)
	}
	md, ok := resolveLive(ctx, s.Mux, Scratch, name, sc)
	if !ok {
		return model.SessionMetadata{}, apperrors.NotOwned(Scratch, name)
	}
	return md, nil
}

func (s *ScratchSource) CanHandle(ctx context.Context, name string, sc *model.SessionContext) bool {
	return OwnsByResolve(ctx, s, name, sc)
}

func (s *ScratchSource) Switch(ctx context.Context, name string, md model.SessionMetadata) error {
	return s.Mux.SwitchOrAttach(ctx, name)
}

func (s *ScratchSource) Start(ctx context.Context, name string, md model.SessionMetadata) error {
	return s.Switch(ctx, name, md)
}

func (s *ScratchSource) Preview(ctx context.Context, name string, md model.SessionMetadata) (string, error) {
	return livePreview(ctx, s.Mux, name, md), nil
}

func (s *ScratchSource) HelpText() []string {
	return []string{"󱗽 - Scratch session"}
}
