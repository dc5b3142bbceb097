package manager

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"cwmanager/internal/registry"
	"cwmanager/pkg/types"
)

// state is everything guarded by Manager.mu. An empty status means the
// installer has not been queried successfully yet.
type state struct {
	status    InstallStatus
	installer InstallerStatus
	url       string
	version   string
	local     registry.Conn
}

type Manager struct {
	mu sync.Mutex
	st state
	// connMu serializes local connection creation and removal. Lock order: connMu, then mu.
	connMu sync.Mutex
	// sf collapses concurrent forced status queries into one installer call.
	sf singleflight.Group

	obsMu     sync.Mutex
	observers map[uint64]Observer
	nextObsID uint64

	status    StatusSource
	installer Installer
	templates TemplateSource
	factory   ConnectionFactory
	reg       *registry.Registry

	minVersion     string
	installVersion string
	log            zerolog.Logger
}

func New(status StatusSource, factory ConnectionFactory, reg *registry.Registry) *Manager {
	return NewWithConfig(ManagerConfig{
		Status:   status,
		Factory:  factory,
		Registry: reg,
	})
}

// Registry returns the connection registry the manager registers into.
func (m *Manager) Registry() *registry.Registry { return m.reg }

// InstallerStatus returns the installer operation in progress.
func (m *Manager) InstallerStatus() InstallerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.installer
}

// SetInstallerStatus records the installer operation in progress and
// notifies observers once.
func (m *Manager) SetInstallerStatus(s InstallerStatus) {
	m.mu.Lock()
	m.st.installer = s
	inst := m.st.status
	m.mu.Unlock()
	m.notify(Event{Kind: EventInstallerStatus, InstallerStatus: s, InstallStatus: inst})
}

// Snapshot returns the cached state without querying anything.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.st.status
	if st == "" {
		st = StatusUnknown
	}
	return Snapshot{
		InstallStatus:   st,
		InstallerStatus: m.st.installer,
		URL:             m.st.url,
		Version:         m.st.version,
		LocalConnection: m.st.local != nil,
	}
}

// Status builds a status response for /status from cached state.
func (m *Manager) Status() types.StatusResponse {
	s := m.Snapshot()
	return types.StatusResponse{
		InstallStatus:   string(s.InstallStatus),
		InstallerStatus: string(s.InstallerStatus),
		Display:         s.Display(),
		URL:             s.URL,
		Version:         s.Version,
		Installed:       s.InstallStatus.IsInstalled(),
		LocalConnection: s.LocalConnection,
	}
}

// Ready reports whether the backend is running and the local connection is up.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.status == StatusRunning && m.st.local != nil && m.st.local.IsConnected()
}
