package model

import (
	"slices"
	"sort"
)

// SessionContext is a read-only snapshot of the live environment, rebuilt
// for every discovery round and shared by all sources during that round.
type SessionContext struct {
	// Current is the session the user is inside, or "" outside any session.
	Current string
	// Active holds the other live non-scratch sessions, most recent first.
	Active []string
	// Scratch holds the other live scratch sessions, most recent first.
	Scratch []string
	// All holds every live session, most recent first.
	All []MuxSession
}

// NewSessionContext partitions live sessions into the active and scratch
// buckets. The current session is left out of both. The input slice is copied.
func NewSessionContext(current string, all []MuxSession, isScratch func(string) bool) *SessionContext {
	sorted := slices.Clone(all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastAttached.After(sorted[j].LastAttached)
	})

	sc := &SessionContext{Current: current, All: sorted}
	for _, s := range sorted {
		if s.Name == current {
			continue
		}
		if isScratch != nil && isScratch(s.Name) {
			sc.Scratch = append(sc.Scratch, s.Name)
		} else {
			sc.Active = append(sc.Active, s.Name)
		}
	}
	return sc
}

// HasCurrent reports whether the user is inside a session.
func (c *SessionContext) HasCurrent() bool {
	return c != nil && c.Current != ""
}

// MostRecent returns the head of Active, or "" when there is none.
func (c *SessionContext) MostRecent() string {
	if c == nil || len(c.Active) == 0 {
		return ""
	}
	return c.Active[0]
}

// Lookup returns the raw live session with the given name.
func (c *SessionContext) Lookup(name string) (MuxSession, bool) {
	if c == nil {
		return MuxSession{}, false
	}
	for _, s := range c.All {
		if s.Name == name {
			return s, true
		}
	}
	return MuxSession{}, false
}

// IsLive reports whether name is a live session in this snapshot.
func (c *SessionContext) IsLive(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// InActive reports whether name is in the active bucket.
func (c *SessionContext) InActive(name string) bool {
	return c != nil && slices.Contains(c.Active, name)
}
