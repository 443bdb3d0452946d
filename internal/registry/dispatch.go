package registry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/source"
)

// Actions routed through dispatch.
const (
	ActionSwitch  = "switch"
	ActionKill    = "kill"
	ActionStart   = "start"
	ActionPreview = "preview"
)

// FindOwner returns the first usable source, built-ins first, whose
// CanHandle accepts name. sc should be freshly built.
func (r *Registry) FindOwner(ctx context.Context, name string, sc *model.SessionContext) (source.Source, bool) {
	for _, s := range r.Sources() {
		if !r.usable(ctx, s) {
			continue
		}
		if s.CanHandle(ctx, name, sc) {
			return s, true
		}
	}
	return nil, false
}

// SwitchTo resolves name with its owner and switches to it.
func (r *Registry) SwitchTo(ctx context.Context, name string, sc *model.SessionContext) error {
	return r.dispatch(ctx, ActionSwitch, name, sc, func(s source.Source, md model.SessionMetadata) error {
		return s.Switch(ctx, name, md)
	})
}

// Start resolves name with its owner and starts it without switching.
func (r *Registry) Start(ctx context.Context, name string, sc *model.SessionContext) error {
	return r.dispatch(ctx, ActionStart, name, sc, func(s source.Source, md model.SessionMetadata) error {
		return s.Start(ctx, name, md)
	})
}

// Kill asks the owner to kill name. No resolve is needed.
func (r *Registry) Kill(ctx context.Context, name string, sc *model.SessionContext) error {
	ctx, span := tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.String("action", ActionKill),
		attribute.String("session", name),
	))
	defer span.End()

	owner, ok := r.FindOwner(ctx, name, sc)
	if !ok {
		err := apperrors.SessionNotFound(name)
		r.finish(ctx, span, ActionKill, "", err)
		return err
	}
	err := owner.Kill(ctx, name)
	r.finish(ctx, span, ActionKill, owner.Name(), err)
	return err
}

// Preview resolves name with its owner and renders its preview text.
func (r *Registry) Preview(ctx context.Context, name string, sc *model.SessionContext) (string, error) {
	var text string
	err := r.dispatch(ctx, ActionPreview, name, sc, func(s source.Source, md model.SessionMetadata) error {
		var err error
		text, err = s.Preview(ctx, name, md)
		return err
	})
	return text, err
}

// dispatch finds the owner, resolves fresh metadata and runs act.
func (r *Registry) dispatch(ctx context.Context, action, name string, sc *model.SessionContext,
	act func(source.Source, model.SessionMetadata) error) error {
	ctx, span := tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.String("action", action),
		attribute.String("session", name),
	))
	defer span.End()

	owner, ok := r.FindOwner(ctx, name, sc)
	if !ok {
		err := apperrors.SessionNotFound(name)
		r.finish(ctx, span, action, "", err)
		return err
	}
	md, err := owner.Resolve(ctx, name, sc)
	if err != nil {
		r.finish(ctx, span, action, owner.Name(), err)
		return err
	}
	err = act(owner, md)
	r.finish(ctx, span, action, owner.Name(), err)
	return err
}

func (r *Registry) finish(ctx context.Context, span trace.Span, action, owner string, err error) {
	outcome := "ok"
	switch {
	case apperrors.Is(err, apperrors.KindNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	span.SetAttributes(attribute.String("source.name", owner), attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Warn("dispatch failed", "action", action, "source", owner, "error", err)
	}
	r.metrics.RecordDispatch(ctx, action, owner, outcome)
}
