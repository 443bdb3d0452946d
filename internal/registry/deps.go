package registry

import (
	"context"
	"os/exec"
	"sync"
	"time"

	ssotel "github.com/timvw/session-switcher/internal/otel"
)

// DependencyCache remembers whether dependency commands are on PATH so each
// interactive round does not search PATH again for every source.
//
// Entries expire after the TTL so installing a tool while the picker loop
// runs is eventually noticed. A TTL of 0 disables caching.
type DependencyCache struct {
	mu       sync.RWMutex
	entries  map[string]depEntry
	ttl      time.Duration
	lookPath func(string) (string, error)
	metrics  *ssotel.Metrics
}

type depEntry struct {
	available bool
	checkedAt time.Time
}

// NewDependencyCache creates a cache that resolves commands with exec.LookPath.
func NewDependencyCache(ttl time.Duration) *DependencyCache {
	return &DependencyCache{
		entries:  make(map[string]depEntry),
		ttl:      ttl,
		lookPath: exec.LookPath,
	}
}

// Available reports whether cmd is on PATH.
func (c *DependencyCache) Available(ctx context.Context, cmd string) bool {
	if c.ttl > 0 {
		c.mu.RLock()
		entry, ok := c.entries[cmd]
		c.mu.RUnlock()
		if ok && time.Since(entry.checkedAt) <= c.ttl {
			c.metrics.RecordDependencyLookup(ctx, true)
			return entry.available
		}
	}

	c.metrics.RecordDependencyLookup(ctx, false)
	_, err := c.lookPath(cmd)
	available := err == nil

	if c.ttl > 0 {
		c.mu.Lock()
		c.entries[cmd] = depEntry{available: available, checkedAt: time.Now()}
		c.mu.Unlock()
	}
	return available
}

// Missing returns the dependencies that are not on PATH.
func (c *DependencyCache) Missing(ctx context.Context, deps []string) []string {
	var missing []string
	for _, d := range deps {
		if !c.Available(ctx, d) {
			missing = append(missing, d)
		}
	}
	return missing
}

// Invalidate forgets cmd so the next lookup searches PATH again.
func (c *DependencyCache) Invalidate(cmd string) {
	c.mu.Lock()
	delete(c.entries, cmd)
	c.mu.Unlock()
}
