package source

import (
	"strings"
	"sync"
)

// SanitizeName converts a display name into a name tmux accepts: a leading
// "." is dropped and the remaining "." and ":" become "_".
func SanitizeName(display string) string {
	name := strings.TrimPrefix(display, ".")
	name = strings.NewReplacer(".", "_", ":", "_").Replace(name)
	if name == "" {
		return "_"
	}
	return name
}

// nameTable remembers which tmux name each display name maps to, so a name
// shown in the list is translated the same way at every later action.
type nameTable struct {
	mu    sync.Mutex
	toMux map[string]string
}

func newNameTable() *nameTable {
	return &nameTable{toMux: map[string]string{}}
}

// muxName returns the tmux name for display, recording the pair.
func (t *nameTable) muxName(display string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if name, ok := t.toMux[display]; ok {
		return name
	}
	name := SanitizeName(display)
	t.toMux[display] = name
	return name
}

// bind records that display is served by the tmux session name.
func (t *nameTable) bind(display, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toMux[display] = name
}
