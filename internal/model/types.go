package model

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// SessionMetadata is what a source knows about one session right now.
type SessionMetadata struct {
	// Type is the source-specific tag (e.g., "active", "worktree").
	Type string `json:"type"`
	// Path is the session's working directory; empty when unknown.
	Path string `json:"path,omitempty"`
	// Exists is true when a live multiplexer session backs this entry.
	Exists bool `json:"exists"`
	// Properties is an open-ended bag (branch, config path, ...).
	Properties map[string]string `json:"properties,omitempty"`
}

// NewMetadata returns metadata of the given type with no path.
func NewMetadata(typ string) SessionMetadata {
	return SessionMetadata{Type: typ}
}

// WithPath returns a copy with Path set.
func (m SessionMetadata) WithPath(path string) SessionMetadata {
	m.Path = path
	return m
}

// WithExists returns a copy with Exists set.
func (m SessionMetadata) WithExists(exists bool) SessionMetadata {
	m.Exists = exists
	return m
}

// WithProperty returns a copy with key set. The receiver's map is never modified.
func (m SessionMetadata) WithProperty(key, value string) SessionMetadata {
	props := make(map[string]string, len(m.Properties)+1)
	maps.Copy(props, m.Properties)
	props[key] = value
	m.Properties = props
	return m
}

// Property returns the property value, or "" when unset.
func (m SessionMetadata) Property(key string) string {
	return m.Properties[key]
}

// SessionRecord is one candidate session produced by a source during a
// discovery round. Records are values; the With* helpers return copies.
type SessionRecord struct {
	// ID is unique per record and never used for equality; Name is the merge key.
	ID uuid.UUID `json:"id"`
	// Name is the display and lookup key.
	Name string `json:"name"`
	// SourceID names the source that produced the record.
	SourceID string `json:"source"`
	// Priority orders the list; lower values are shown first.
	Priority uint `json:"priority"`
	// DiscoveredAt is discovery time unless a real last-used time is known.
	DiscoveredAt time.Time `json:"discovered_at"`
	// IsCurrent is true for the session the user is inside.
	IsCurrent bool `json:"is_current"`
	// IsActive is true when a live session backs the record.
	IsActive bool `json:"is_active"`
	// Metadata carries source-specific details.
	Metadata SessionMetadata `json:"metadata"`
}

// NewSessionRecord creates a record with a fresh ID and DiscoveredAt set to now.
func NewSessionRecord(name, sourceID string, priority uint, md SessionMetadata) SessionRecord {
	return SessionRecord{
		ID:           uuid.New(),
		Name:         name,
		SourceID:     sourceID,
		Priority:     priority,
		DiscoveredAt: time.Now(),
		Metadata:     md,
	}
}

// WithCurrent returns a copy with IsCurrent set.
func (r SessionRecord) WithCurrent(current bool) SessionRecord {
	r.IsCurrent = current
	return r
}

// WithActive returns a copy with IsActive set.
func (r SessionRecord) WithActive(active bool) SessionRecord {
	r.IsActive = active
	return r
}

// WithDiscoveredAt returns a copy with DiscoveredAt overridden. A zero time is ignored.
func (r SessionRecord) WithDiscoveredAt(t time.Time) SessionRecord {
	if !t.IsZero() {
		r.DiscoveredAt = t
	}
	return r
}

// MuxSession is a live multiplexer session as reported by list-sessions.
type MuxSession struct {
	Name         string    `json:"name"`
	LastAttached time.Time `json:"last_attached"`
	Windows      int       `json:"windows"`
	Attached     bool      `json:"attached"`
}
