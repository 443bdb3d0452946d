// Package config loads and persists session-switcher settings.
//
// Precedence (highest to lowest):
//  1. Environment variables (SESSION_SWITCHER_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .session-switcher.yaml in current directory
//  2. $XDG_CONFIG_HOME/session-switcher/config.yaml (~/.config when unset)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/timvw/session-switcher/internal/errors"
)

// UI modes.
const (
	UIAuto    = "auto"
	UIFZF     = "fzf"
	UIPopup   = "popup"
	UIBuiltin = "builtin"
)

// UISettings controls how the picker is presented.
type UISettings struct {
	Mode            string `yaml:"mode"`             // auto, fzf, popup or builtin
	PopupWidth      string `yaml:"popup_width"`      // tmux display-popup -w
	PopupHeight     string `yaml:"popup_height"`     // tmux display-popup -h
	PreviewPosition string `yaml:"preview_position"` // fzf --preview-window
	ShowSourceNames bool   `yaml:"show_source_names"`
	Theme           string `yaml:"theme"` // dark or light
}

// Config holds all session-switcher configuration.
type Config struct {
	PreviewEnabled bool   `yaml:"preview_enabled"`
	PluginDir      string `yaml:"plugin_dir"`
	TmuxSocket     string `yaml:"tmux_socket"`

	// Discovery
	ScratchPattern     string   `yaml:"scratch_pattern"` // regexp matched against session names
	TmuxinatorDirs     []string `yaml:"tmuxinator_dirs"` // searched before the standard locations
	Parallel           int      `yaml:"parallel"`
	DiscoveryTimeout   string   `yaml:"discovery_timeout"`    // Go duration string, "0" disables
	DependencyCacheTTL string   `yaml:"dependency_cache_ttl"` // Go duration string, "0" disables

	UI UISettings `yaml:"ui"`

	// Logging
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed values (not from YAML, set after loading)
	DiscoveryTimeoutDuration   time.Duration  `yaml:"-"`
	DependencyCacheTTLDuration time.Duration  `yaml:"-"`
	ScratchRegexp              *regexp.Regexp `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded, or where
	// Save writes when none was found.
	ConfigFile string `yaml:"-"`
}

// Dir returns the session-switcher config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "session-switcher")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "session-switcher")
	}
	return filepath.Join(os.TempDir(), "session-switcher")
}

// DefaultPath is where the config file lives when none was found.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		PreviewEnabled:     true,
		PluginDir:          filepath.Join(Dir(), "plugins"),
		ScratchPattern:     "scratch",
		Parallel:           5,
		DiscoveryTimeout:   "5s",
		DependencyCacheTTL: "1m",
		UI: UISettings{
			Mode:            UIAuto,
			PopupWidth:      "60%",
			PopupHeight:     "40%",
			PreviewPosition: "right:50%:wrap",
			Theme:           "dark",
		},
		LogLevel: "info",
	}
}

// Load reads configuration from file and environment variables.
// An explicit path must exist; otherwise the search order applies and a
// missing file is not an error.
func Load(explicit string) (*Config, error) {
	cfg := Defaults()

	path, data, err := findConfigFile(explicit)
	switch {
	case err == nil:
		// Unmarshal onto the defaults so keys absent from the file keep them.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.ConfigLoadFailed(path, err)
		}
		cfg.ConfigFile = path
	case explicit != "":
		return nil, apperrors.ConfigLoadFailed(explicit, err)
	default:
		cfg.ConfigFile = DefaultPath()
	}

	// Environment variables override everything
	mergeEnv(cfg)

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finalize parses derived values and validates enumerations.
func (c *Config) finalize() error {
	var err error
	c.DiscoveryTimeoutDuration, err = parseDurationOrDisable(c.DiscoveryTimeout, 5*time.Second)
	if err != nil {
		return apperrors.E(apperrors.Op("config.Load"), apperrors.KindConfig,
			fmt.Sprintf("invalid discovery timeout %q", c.DiscoveryTimeout), err)
	}
	c.DependencyCacheTTLDuration, err = parseDurationOrDisable(c.DependencyCacheTTL, time.Minute)
	if err != nil {
		return apperrors.E(apperrors.Op("config.Load"), apperrors.KindConfig,
			fmt.Sprintf("invalid dependency cache TTL %q", c.DependencyCacheTTL), err)
	}
	if c.ScratchPattern == "" {
		c.ScratchPattern = "scratch"
	}
	c.ScratchRegexp, err = regexp.Compile(c.ScratchPattern)
	if err != nil {
		return apperrors.E(apperrors.Op("config.Load"), apperrors.KindConfig,
			fmt.Sprintf("invalid scratch pattern %q", c.ScratchPattern), err)
	}
	switch c.UI.Mode {
	case "":
		c.UI.Mode = UIAuto
	case UIAuto, UIFZF, UIPopup, UIBuiltin:
	default:
		return apperrors.E(apperrors.Op("config.Load"), apperrors.KindConfig,
			fmt.Sprintf("invalid ui mode %q (want auto, fzf, popup or builtin)", c.UI.Mode))
	}
	if c.Parallel < 0 {
		c.Parallel = 0
	}
	return nil
}

// IsScratch reports whether name follows the scratch naming convention.
func (c *Config) IsScratch(name string) bool {
	if c.ScratchRegexp == nil {
		return strings.Contains(name, "scratch")
	}
	return c.ScratchRegexp.MatchString(name)
}

// Save writes the configuration to ConfigFile, creating parent directories.
func (c *Config) Save() error {
	path := c.ConfigFile
	if path == "" {
		path = DefaultPath()
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return apperrors.ConfigSaveFailed(path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.ConfigSaveFailed(path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.ConfigSaveFailed(path, err)
	}
	c.ConfigFile = path
	return nil
}

// TogglePreview flips PreviewEnabled and persists the result.
func (c *Config) TogglePreview() error {
	c.PreviewEnabled = !c.PreviewEnabled
	return c.Save()
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile(explicit string) (string, []byte, error) {
	if explicit != "" {
		data, err := os.ReadFile(explicit)
		if err != nil {
			return "", nil, err
		}
		return explicit, data, nil
	}

	// 1. Current directory
	if data, err := os.ReadFile(".session-switcher.yaml"); err == nil {
		return ".session-switcher.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	path := DefaultPath()
	if data, err := os.ReadFile(path); err == nil {
		return path, data, nil
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("SESSION_SWITCHER_PREVIEW"); v != "" {
		cfg.PreviewEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("SESSION_SWITCHER_PLUGIN_DIR"); v != "" {
		cfg.PluginDir = v
	}
	if v := os.Getenv("SESSION_SWITCHER_TMUX_SOCKET"); v != "" {
		cfg.TmuxSocket = v
	}
	if v := os.Getenv("SESSION_SWITCHER_SCRATCH_PATTERN"); v != "" {
		cfg.ScratchPattern = v
	}
	if v := os.Getenv("SESSION_SWITCHER_TMUXINATOR_DIRS"); v != "" {
		cfg.TmuxinatorDirs = filepath.SplitList(v)
	}
	if v := os.Getenv("SESSION_SWITCHER_DISCOVERY_TIMEOUT"); v != "" {
		cfg.DiscoveryTimeout = v
	}
	if v := os.Getenv("SESSION_SWITCHER_UI"); v != "" {
		cfg.UI.Mode = v
	}
	if v := os.Getenv("SESSION_SWITCHER_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	if v := os.Getenv("SESSION_SWITCHER_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("SESSION_SWITCHER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable" return 0.
// Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
