// Package tmuxinator wraps the tmuxinator CLI and reads just enough of its
// project files to describe them in a preview.
package tmuxinator

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/timvw/session-switcher/internal/errors"
)

// Config is one project definition file.
type Config struct {
	Name string
	Path string
}

// Summary is the subset of a project file shown in previews.
type Summary struct {
	Root    string
	Windows []string
}

// Tool is the saved-project-config adapter.
type Tool interface {
	// Available reports whether the tmuxinator binary works.
	Available(ctx context.Context) bool
	// ListConfigs scans dirs for *.yml and *.yaml files. Earlier dirs win on
	// duplicate names.
	ListConfigs(dirs []string) []Config
	// Start launches the project, optionally detached.
	Start(ctx context.Context, name string, detached bool) error
	// ReadSummary reads root and window names from a project file.
	ReadSummary(path string) (Summary, error)
}

// DefaultDirs returns the standard tmuxinator config locations, extra first.
func DefaultDirs(extra ...string) []string {
	dirs := append([]string(nil), extra...)
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".config", "tmuxinator"),
			filepath.Join(home, ".tmuxinator"),
		)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "tmuxinator"))
	}
	return dirs
}

// CLI implements Tool by running the tmuxinator binary.
type CLI struct{}

// NewCLI creates a tmuxinator CLI adapter.
func NewCLI() *CLI {
	return &CLI{}
}

func (c *CLI) Available(ctx context.Context) bool {
	return exec.CommandContext(ctx, "tmuxinator", "version").Run() == nil
}

func (c *CLI) ListConfigs(dirs []string) []Config {
	return listConfigs(dirs)
}

func (c *CLI) Start(ctx context.Context, name string, detached bool) error {
	args := []string{"start", name}
	if detached {
		args = append(args, "--detach")
	}
	cmd := exec.CommandContext(ctx, "tmuxinator", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return apperrors.ExternalToolFailed("tmuxinator", args, apperrors.E(msg))
		}
		return apperrors.ExternalToolFailed("tmuxinator", args, err)
	}
	return nil
}

func (c *CLI) ReadSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, apperrors.ExternalToolFailed("tmuxinator", []string{"read", path}, err)
	}
	return parseSummary(data)
}

func listConfigs(dirs []string) []Config {
	seen := map[string]bool{}
	var configs []Config
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := filepath.Ext(e.Name())
			if ext != ".yml" && ext != ".yaml" {
				continue
			}
			name := strings.TrimSuffix(e.Name(), ext)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			configs = append(configs, Config{Name: name, Path: filepath.Join(dir, e.Name())})
		}
	}
	sort.SliceStable(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs
}

// projectFile is the part of a tmuxinator project we care about. Window
// entries are either a bare name or a single-key map of name to layout.
type projectFile struct {
	Root    string      `yaml:"root"`
	Windows []yaml.Node `yaml:"windows"`
}

func parseSummary(data []byte) (Summary, error) {
	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return Summary{}, apperrors.E(apperrors.Op("tmuxinator.ReadSummary"), apperrors.KindMalformedOutput, err)
	}
	s := Summary{Root: pf.Root}
	for _, w := range pf.Windows {
		switch w.Kind {
		case yaml.ScalarNode:
			s.Windows = append(s.Windows, w.Value)
		case yaml.MappingNode:
			if len(w.Content) >= 2 {
				s.Windows = append(s.Windows, w.Content[0].Value)
			}
		}
	}
	return s, nil
}
