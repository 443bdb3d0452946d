package extension

import (
	"fmt"
	"strings"
	"time"

	"github.com/timvw/session-switcher/internal/model"
)

// ProtocolVersion is sent in every request and must be echoed in every response.
const ProtocolVersion = 1

// Operations.
const (
	OpDiscover  = "discover"
	OpResolve   = "resolve"
	OpCanHandle = "can_handle"
	OpSwitch    = "switch"
	OpKill      = "kill"
	OpStart     = "start"
	OpPreview   = "preview"
)

// Request is written to the extension's stdin.
type Request struct {
	Version  int              `json:"version"`
	Op       string           `json:"op"`
	Session  string           `json:"session,omitempty"`
	Context  Context          `json:"context"`
	Metadata *MetadataPayload `json:"metadata,omitempty"`
}

// Context is the session snapshot as seen by extensions.
type Context struct {
	Current  string           `json:"current,omitempty"`
	Active   []string         `json:"active"`
	Scratch  []string         `json:"scratch"`
	Sessions []SessionPayload `json:"sessions"`
}

// SessionPayload is one live multiplexer session.
type SessionPayload struct {
	Name         string `json:"name"`
	LastAttached int64  `json:"last_attached"`
	Windows      int    `json:"windows"`
	Attached     bool   `json:"attached"`
}

// MetadataPayload mirrors model.SessionMetadata.
type MetadataPayload struct {
	Type       string            `json:"type,omitempty"`
	Path       string            `json:"path,omitempty"`
	Exists     bool              `json:"exists"`
	Properties map[string]string `json:"properties,omitempty"`
}

// RecordPayload is one discovered session.
type RecordPayload struct {
	Name         string           `json:"name"`
	DiscoveredAt int64            `json:"discovered_at,omitempty"`
	IsCurrent    bool             `json:"is_current,omitempty"`
	IsActive     bool             `json:"is_active,omitempty"`
	Metadata     *MetadataPayload `json:"metadata,omitempty"`
}

// Response is read from the extension's stdout.
type Response struct {
	Version  int              `json:"version"`
	Sessions []RecordPayload  `json:"sessions,omitempty"`
	Metadata *MetadataPayload `json:"metadata,omitempty"`
	Handled  bool             `json:"handled,omitempty"`
	Preview  string           `json:"preview,omitempty"`
	Error    string           `json:"error,omitempty"`
	NotFound bool             `json:"not_found,omitempty"`
}

// Validate checks the response against the operation it answers.
func (r Response) Validate(op string) error {
	if r.Version != ProtocolVersion {
		return fmt.Errorf("protocol version %d, want %d", r.Version, ProtocolVersion)
	}
	if op == OpDiscover {
		seen := map[string]bool{}
		for i, rec := range r.Sessions {
			if strings.TrimSpace(rec.Name) == "" {
				return fmt.Errorf("session %d has no name", i)
			}
			if seen[rec.Name] {
				return fmt.Errorf("duplicate session %q", rec.Name)
			}
			seen[rec.Name] = true
		}
	}
	return nil
}

func newRequest(op, name string, sc *model.SessionContext) Request {
	req := Request{Version: ProtocolVersion, Op: op, Session: name}
	if sc == nil {
		return req
	}
	req.Context = Context{
		Current:  sc.Current,
		Active:   sc.Active,
		Scratch:  sc.Scratch,
		Sessions: make([]SessionPayload, 0, len(sc.All)),
	}
	for _, s := range sc.All {
		req.Context.Sessions = append(req.Context.Sessions, SessionPayload{
			Name:         s.Name,
			LastAttached: s.LastAttached.Unix(),
			Windows:      s.Windows,
			Attached:     s.Attached,
		})
	}
	return req
}

func toPayload(md model.SessionMetadata) *MetadataPayload {
	return &MetadataPayload{Type: md.Type, Path: md.Path, Exists: md.Exists, Properties: md.Properties}
}

func (p *MetadataPayload) toModel(defaultType string) model.SessionMetadata {
	if p == nil {
		return model.NewMetadata(defaultType)
	}
	typ := p.Type
	if typ == "" {
		typ = defaultType
	}
	md := model.NewMetadata(typ).WithPath(p.Path).WithExists(p.Exists)
	for k, v := range p.Properties {
		md = md.WithProperty(k, v)
	}
	return md
}

// toRecord converts a discovered entry. The record takes the extension's
// name and priority; only the real current session may be flagged current.
func (p RecordPayload) toRecord(sourceID string, priority uint, sc *model.SessionContext) model.SessionRecord {
	rec := model.NewSessionRecord(p.Name, sourceID, priority, p.Metadata.toModel(sourceID)).
		WithActive(p.IsActive || sc.IsLive(p.Name)).
		WithCurrent(p.IsCurrent && sc.HasCurrent() && p.Name == sc.Current)
	if p.DiscoveredAt > 0 {
		rec = rec.WithDiscoveredAt(time.Unix(p.DiscoveredAt, 0))
	} else if s, ok := sc.Lookup(p.Name); ok {
		rec = rec.WithDiscoveredAt(s.LastAttached)
	}
	return rec
}
