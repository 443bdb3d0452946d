// Package extension runs session sources supplied as external programs.
//
// Each extension is described by a TOML manifest in the plugin directory.
// The host spawns the extension's command once per call, writes one JSON
// Request to its stdin and reads one JSON Response from its stdout.
package extension

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/logger"
	"github.com/timvw/session-switcher/internal/mux"
	"github.com/timvw/session-switcher/internal/source"
)

// Optional capabilities. Without them the host uses its default behaviour.
const (
	CapCanHandle = "can_handle"
	CapKill      = "kill"
	CapStart     = "start"
	CapPreview   = "preview"
)

// DefaultTimeout bounds a single extension call.
const DefaultTimeout = 5 * time.Second

var reservedNames = []string{
	source.Recent, source.Worktree, source.Active, source.Tmuxinator, source.Scratch,
}

// Manifest describes one extension.
type Manifest struct {
	Name         string   `toml:"name"`
	Description  string   `toml:"description"`
	Priority     uint     `toml:"priority"`
	Command      string   `toml:"command"`
	Args         []string `toml:"args"`
	Dependencies []string `toml:"dependencies"`
	Help         []string `toml:"help"`
	Capabilities []string `toml:"capabilities"`
	Timeout      string   `toml:"timeout"`

	// Path is the manifest file the extension was loaded from.
	Path string `toml:"-"`

	timeout time.Duration
}

// Validate checks required fields and parses the timeout.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(m.Name, " \t\n()") {
		return fmt.Errorf("invalid name %q", m.Name)
	}
	if slices.Contains(reservedNames, m.Name) {
		return fmt.Errorf("name %q is reserved for a built-in source", m.Name)
	}
	if strings.TrimSpace(m.Command) == "" {
		return fmt.Errorf("command is required")
	}
	for _, c := range m.Capabilities {
		if !isValidCapability(c) {
			return fmt.Errorf("unknown capability %q", c)
		}
	}
	m.timeout = DefaultTimeout
	if m.Timeout != "" {
		d, err := time.ParseDuration(m.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout %q", m.Timeout)
		}
		m.timeout = d
	}
	return nil
}

// Has reports whether the extension declares capability c.
func (m Manifest) Has(c string) bool {
	return slices.Contains(m.Capabilities, c)
}

func isValidCapability(c string) bool {
	switch c {
	case CapCanHandle, CapKill, CapStart, CapPreview:
		return true
	default:
		return false
	}
}

// LoadManifest decodes and validates the manifest at path. A relative
// command is resolved against the manifest's directory when such a file exists.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return Manifest{}, apperrors.E(apperrors.Op("extension.LoadManifest"), apperrors.KindConfig, path, err)
	}
	m.Path = path
	if err := m.Validate(); err != nil {
		return Manifest{}, apperrors.E(apperrors.Op("extension.LoadManifest"), apperrors.KindConfig, path, err)
	}
	if !filepath.IsAbs(m.Command) && strings.ContainsRune(m.Command, filepath.Separator) {
		m.Command = filepath.Join(filepath.Dir(path), m.Command)
	}
	return m, nil
}

// Load reads every *.toml manifest in dir, in lexical order, and returns one
// source per valid manifest. Invalid manifests and duplicate names are
// logged and skipped. A missing directory yields no sources.
func Load(dir string, m mux.Multiplexer) []source.Source {
	log := logger.ComponentLogger("extension")
	if dir == "" {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		log.Warn("scanning plugin dir failed", "dir", dir, "error", err)
		return nil
	}
	if len(files) == 0 {
		if _, err := os.Stat(dir); err != nil && !os.IsNotExist(err) {
			log.Warn("plugin dir unreadable", "dir", dir, "error", err)
		}
		return nil
	}
	slices.Sort(files)

	seen := map[string]string{}
	var sources []source.Source
	for _, file := range files {
		manifest, err := LoadManifest(file)
		if err != nil {
			log.Warn("skipping extension", "file", file, "error", err)
			continue
		}
		if prev, ok := seen[manifest.Name]; ok {
			log.Warn("skipping duplicate extension", "name", manifest.Name, "file", file, "first", prev)
			continue
		}
		seen[manifest.Name] = file
		log.Debug("loaded extension", "name", manifest.Name, "command", manifest.Command)
		sources = append(sources, New(manifest, m))
	}
	return sources
}
