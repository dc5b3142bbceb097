package manager

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"cwmanager/internal/installer"
	"cwmanager/internal/registry"
	"cwmanager/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMinVersion     = "0.9.0"
	defaultInstallVersion = "latest"
	defaultPollInterval   = 5 * time.Second
	// maxPollBackoff caps the poll delay at this multiple of the interval.
	maxPollBackoff = 8
)

// StatusSource reports the installer status document.
type StatusSource interface {
	Status(ctx context.Context) (installer.StatusDoc, error)
}

// Installer runs installer operations. A non-zero exit must be reported as
// an error (installer.OperationError).
type Installer interface {
	Install(ctx context.Context, version string) (installer.Result, error)
	Start(ctx context.Context, version string) (installer.Result, error)
	Stop(ctx context.Context) (installer.Result, error)
	Uninstall(ctx context.Context) (installer.Result, error)
}

// TemplateSource lists project templates for a connection.
type TemplateSource interface {
	ListTemplates(ctx context.Context, conid string, enabledOnly bool) ([]types.Template, error)
}

// ConnectionFactory builds connections and answers backend version queries.
type ConnectionFactory interface {
	NewConnection(ctx context.Context, baseURL, conid string) (registry.Conn, error)
	Version(ctx context.Context, baseURL string) (string, error)
}

// ManagerConfig encapsulates all collaborators and tunables for Manager construction.
type ManagerConfig struct {
	Status    StatusSource
	Installer Installer      // optional; operations return ErrNoInstaller when nil
	Templates TemplateSource // optional
	Factory   ConnectionFactory
	Registry  *registry.Registry

	MinVersion     string
	InstallVersion string
	Logger         zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		status:         cfg.Status,
		installer:      cfg.Installer,
		templates:      cfg.Templates,
		factory:        cfg.Factory,
		reg:            cfg.Registry,
		minVersion:     cfg.MinVersion,
		installVersion: cfg.InstallVersion,
		log:            cfg.Logger.With().Str("component", "manager").Logger(),
		observers:      make(map[uint64]Observer),
	}
	// Apply defaults if unset
	if m.reg == nil {
		m.reg = registry.New()
	}
	if m.minVersion == "" {
		m.minVersion = defaultMinVersion
	}
	if m.installVersion == "" {
		m.installVersion = defaultInstallVersion
	}
	return m
}
