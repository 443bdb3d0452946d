package extension

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/logger"
	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux"
	"github.com/timvw/session-switcher/internal/source"
)

// Source adapts an extension program to source.Source.
type Source struct {
	source.Base
	manifest Manifest
	log      *slog.Logger
}

var _ source.Source = (*Source)(nil)

// New creates a source for a validated manifest.
func New(manifest Manifest, m mux.Multiplexer) *Source {
	if manifest.timeout == 0 {
		manifest.timeout = DefaultTimeout
	}
	return &Source{
		Base:     source.Base{Mux: m},
		manifest: manifest,
		log:      logger.ComponentLogger("extension." + manifest.Name),
	}
}

// Manifest returns the manifest the source was built from.
func (s *Source) Manifest() Manifest { return s.manifest }

func (s *Source) Name() string           { return s.manifest.Name }
func (s *Source) Description() string    { return s.manifest.Description }
func (s *Source) Priority() uint         { return s.manifest.Priority }
func (s *Source) Dependencies() []string { return s.manifest.Dependencies }
func (s *Source) HelpText() []string     { return s.manifest.Help }

func (s *Source) Discover(ctx context.Context, sc *model.SessionContext) ([]model.SessionRecord, error) {
	resp, err := s.call(ctx, newRequest(OpDiscover, "", sc))
	if err != nil {
		return nil, err
	}
	records := make([]model.SessionRecord, 0, len(resp.Sessions))
	for _, p := range resp.Sessions {
		records = append(records, p.toRecord(s.Name(), s.Priority(), sc))
	}
	return records, nil
}

func (s *Source) Resolve(ctx context.Context, name string, sc *model.SessionContext) (model.SessionMetadata, error) {
	resp, err := s.call(ctx, newRequest(OpResolve, name, sc))
	if err != nil {
		return model.SessionMetadata{}, err
	}
	if resp.NotFound {
		return model.SessionMetadata{}, apperrors.NotOwned(s.Name(), name)
	}
	return resp.Metadata.toModel(s.Name()), nil
}

// CanHandle asks the extension when it declares can_handle, otherwise
// ownership is decided by Resolve.
func (s *Source) CanHandle(ctx context.Context, name string, sc *model.SessionContext) bool {
	if !s.manifest.Has(CapCanHandle) {
		return source.OwnsByResolve(ctx, s, name, sc)
	}
	resp, err := s.call(ctx, newRequest(OpCanHandle, name, sc))
	if err != nil {
		s.log.Debug("can_handle failed", "session", name, "error", err)
		return false
	}
	return resp.Handled
}

func (s *Source) Switch(ctx context.Context, name string, md model.SessionMetadata) error {
	return s.act(ctx, OpSwitch, name, &md)
}

func (s *Source) Kill(ctx context.Context, name string) error {
	if !s.manifest.Has(CapKill) {
		return s.Base.Kill(ctx, name)
	}
	return s.act(ctx, OpKill, name, nil)
}

func (s *Source) Start(ctx context.Context, name string, md model.SessionMetadata) error {
	if !s.manifest.Has(CapStart) {
		return s.Switch(ctx, name, md)
	}
	return s.act(ctx, OpStart, name, &md)
}

func (s *Source) Preview(ctx context.Context, name string, md model.SessionMetadata) (string, error) {
	if !s.manifest.Has(CapPreview) {
		return source.FallbackPreview(name, md), nil
	}
	req := newRequest(OpPreview, name, nil)
	req.Metadata = toPayload(md)
	resp, err := s.call(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Preview, nil
}

func (s *Source) act(ctx context.Context, op, name string, md *model.SessionMetadata) error {
	req := newRequest(op, name, nil)
	if md != nil {
		req.Metadata = toPayload(*md)
	}
	resp, err := s.call(ctx, req)
	if err != nil {
		return err
	}
	if resp.NotFound {
		return apperrors.NotOwned(s.Name(), name)
	}
	return nil
}

// call runs the extension once for req.
func (s *Source) call(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.manifest.timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encoding %s request: %w", req.Op, err)
	}

	cmd := exec.CommandContext(ctx, s.manifest.Command, s.manifest.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), "SESSION_SWITCHER_OP="+req.Op)
	cmd.WaitDelay = 500 * time.Millisecond

	start := time.Now()
	err = cmd.Run()
	s.log.Debug("extension call", "op", req.Op, "session", req.Session, "duration", time.Since(start), "error", err)
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", s.manifest.timeout, err)
		}
		return Response{}, apperrors.ExternalToolFailed(s.manifest.Command, []string{req.Op}, err)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return Response{}, apperrors.MalformedOutput(s.manifest.Command, fmt.Sprintf("%s response: %v", req.Op, err))
	}
	if err := resp.Validate(req.Op); err != nil {
		return Response{}, apperrors.MalformedOutput(s.manifest.Command, fmt.Sprintf("%s response: %v", req.Op, err))
	}
	if resp.Error != "" {
		return Response{}, apperrors.ExternalToolFailed(s.manifest.Command, []string{req.Op}, errors.New(resp.Error))
	}
	return resp, nil
}
