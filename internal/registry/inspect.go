package registry

import (
	"context"
	"sort"

	"github.com/timvw/session-switcher/internal/source"
)

// SourceStatus describes a source for the doctor and info commands.
type SourceStatus struct {
	Name         string
	Description  string
	Priority     uint
	Dependencies []string
	Missing      []string
	Extension    bool
}

// Usable reports whether every dependency is present.
func (s SourceStatus) Usable() bool {
	return len(s.Missing) == 0
}

// Inspect reports every source ordered by priority.
func (r *Registry) Inspect(ctx context.Context) []SourceStatus {
	statuses := make([]SourceStatus, 0, len(r.builtins)+len(r.extensions))
	add := func(srcs []source.Source, ext bool) {
		for _, s := range srcs {
			statuses = append(statuses, SourceStatus{
				Name:         s.Name(),
				Description:  s.Description(),
				Priority:     s.Priority(),
				Dependencies: s.Dependencies(),
				Missing:      r.deps.Missing(ctx, s.Dependencies()),
				Extension:    ext,
			})
		}
	}
	add(r.builtins, false)
	add(r.extensions, true)
	sort.SliceStable(statuses, func(i, j int) bool { return statuses[i].Priority < statuses[j].Priority })
	return statuses
}

// MissingDependencies counts sources that are skipped for missing tools.
func (r *Registry) MissingDependencies(ctx context.Context) int {
	n := 0
	for _, st := range r.Inspect(ctx) {
		if !st.Usable() {
			n++
		}
	}
	return n
}

// HelpText collects every source's legend lines in declaration order.
func (r *Registry) HelpText() []string {
	var lines []string
	for _, s := range r.Sources() {
		lines = append(lines, s.HelpText()...)
	}
	return lines
}
