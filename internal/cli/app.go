package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"cwmanager/internal/common/fsutil"
	"cwmanager/internal/config"
	"cwmanager/internal/connection"
	"cwmanager/internal/httpapi"
	"cwmanager/internal/installer"
	"cwmanager/internal/manager"
	"cwmanager/internal/registry"
)

var _ httpapi.Service = (*manager.Manager)(nil)

// Options are the persistent root flags. Non-empty values override the
// configuration file.
type Options struct {
	ConfigPath  string
	LogLevel    string
	Installer   string
	Addr        string
	CORSOrigins string
	JSON        bool
}

// app is the wired object graph shared by every subcommand.
type app struct {
	cfg  config.Config
	log  zerolog.Logger
	inst *installer.Client
	fac  *connection.Factory
	reg  *registry.Registry
	mgr  *manager.Manager
}

// loadConfig reads the optional config file, applies flag overrides and
// fills defaults.
func loadConfig(opts *Options) (config.Config, error) {
	var cfg config.Config
	if opts.ConfigPath != "" {
		c, err := config.Load(opts.ConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", opts.ConfigPath, err)
		}
		cfg = c
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Installer != "" {
		cfg.InstallerPath = opts.Installer
	}
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}
	if v := splitCSV(opts.CORSOrigins); len(v) > 0 {
		cfg.CORSOrigins = v
	}
	return cfg.WithDefaults(), nil
}

func newLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// newApp wires installer, connection factory, registry and manager. runner
// may be nil to execute the real installer binary.
func newApp(cfg config.Config, log zerolog.Logger, runner installer.Runner) *app {
	path, err := fsutil.ResolveExecutable(cfg.InstallerPath)
	if err != nil {
		log.Warn().Err(err).Str("installer", cfg.InstallerPath).Msg("installer not found")
		if p, xerr := fsutil.ExpandHome(cfg.InstallerPath); xerr == nil {
			path = p
		} else {
			path = cfg.InstallerPath
		}
	}
	inst := installer.New(installer.Options{
		Path:             path,
		Runner:           runner,
		StatusTimeout:    cfg.StatusTimeout(),
		OperationTimeout: cfg.OperationTimeout(),
		Logger:           log.With().Str("component", "installer").Logger(),
	})
	fac := connection.NewFactory(cfg.HTTPTimeout(), log.With().Str("component", "connection").Logger())
	reg := registry.New()
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Status:         inst,
		Installer:      inst,
		Templates:      inst,
		Factory:        fac,
		Registry:       reg,
		MinVersion:     cfg.MinVersion,
		InstallVersion: cfg.InstallVersion,
		Logger:         log,
	})
	return &app{cfg: cfg, log: log, inst: inst, fac: fac, reg: reg, mgr: mgr}
}

// addRemotes registers the remote connections listed in the config.
// Unreachable remotes are kept unconnected.
func (a *app) addRemotes(ctx context.Context) {
	for _, r := range a.cfg.Remotes {
		c, err := a.fac.NewRemote(ctx, r.URL, r.ID)
		if err != nil {
			a.log.Warn().Err(err).Str("url", r.URL).Msg("skipping remote")
			continue
		}
		if old := a.reg.Add(c); old != nil {
			_ = old.Close()
		}
	}
}

// closeAll closes every registered connection.
func (a *app) closeAll() {
	a.mgr.RemoveLocalConnection()
	for _, c := range a.reg.All() {
		_ = c.Close()
		a.reg.Remove(c.BaseURL())
	}
}

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
