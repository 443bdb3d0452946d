package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/timvw/session-switcher/internal/config"
	"github.com/timvw/session-switcher/internal/extension"
	"github.com/timvw/session-switcher/internal/logger"
	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux"
	telem "github.com/timvw/session-switcher/internal/otel"
	"github.com/timvw/session-switcher/internal/registry"
	"github.com/timvw/session-switcher/internal/source"
	"github.com/timvw/session-switcher/internal/tmuxinator"
	"github.com/timvw/session-switcher/internal/vcs"
)

// app is the state shared by every command: configuration, the
// multiplexer, and the registry with built-in and extension sources.
type app struct {
	cfg      *config.Config
	mux      mux.Multiplexer
	registry *registry.Registry
	tel      *telem.Telemetry
	log      *slog.Logger
}

func newApp(ctx context.Context) (*app, error) {
	// Load configuration: defaults -> config file -> env vars -> flags.
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if flagSocket != "" {
		cfg.TmuxSocket = flagSocket
	}

	logPath := cfg.LogFile
	if logPath == "" {
		logPath = logger.DefaultLogPath()
	}
	level := logger.ParseLevel(cfg.LogLevel)
	if flagVerbose {
		level = slog.LevelDebug
	}
	if err := logger.Init(logPath, level); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}
	log := logger.ComponentLogger("cmd")
	log.Debug("config loaded", "file", cfg.ConfigFile)

	// Wire build version into OTEL service metadata
	telem.Version = Version

	// Initialize OTEL (no-op if no endpoint configured)
	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
	}
	var metrics *telem.Metrics
	if tel != nil {
		metrics = tel.Metrics
	}

	m, err := getMultiplexer(cfg.TmuxSocket)
	if err != nil {
		tel.Shutdown(ctx)
		logger.Close()
		return nil, err
	}

	builtins := source.Builtins(source.Deps{
		Mux:            m,
		Git:            vcs.NewCLI(),
		Tmuxinator:     tmuxinator.NewCLI(),
		TmuxinatorDirs: tmuxinator.DefaultDirs(cfg.TmuxinatorDirs...),
		IsScratch:      cfg.IsScratch,
	})
	extensions := extension.Load(cfg.PluginDir, m)
	log.Debug("sources ready", "builtins", len(builtins), "extensions", len(extensions), "plugin_dir", cfg.PluginDir)

	reg := registry.New(builtins,
		registry.WithExtensions(extensions...),
		registry.WithParallel(cfg.Parallel),
		registry.WithTimeout(cfg.DiscoveryTimeoutDuration),
		registry.WithDependencyCache(registry.NewDependencyCache(cfg.DependencyCacheTTLDuration)),
		registry.WithMetrics(metrics),
	)

	return &app{cfg: cfg, mux: m, registry: reg, tel: tel, log: log}, nil
}

// Close flushes telemetry and the log file.
func (a *app) Close(ctx context.Context) {
	a.tel.Shutdown(ctx)
	logger.Close()
}

func (a *app) snapshot(ctx context.Context) (*model.SessionContext, error) {
	return mux.Snapshot(ctx, a.mux, a.cfg.IsScratch)
}

// discover runs one discovery round against a fresh snapshot.
func (a *app) discover(ctx context.Context) (*model.SessionContext, []model.SessionRecord, error) {
	sc, err := a.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sc, a.registry.DiscoverAll(ctx, sc), nil
}

// selfCommand is the command line fzf uses to call back into this binary,
// carrying over flags that change which config or server is used.
func (a *app) selfCommand(sub string) []string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	args := []string{exe, sub}
	if flagConfig != "" {
		args = append(args, "--config", flagConfig)
	}
	if a.cfg.TmuxSocket != "" {
		args = append(args, "--socket", a.cfg.TmuxSocket)
	}
	return args
}
