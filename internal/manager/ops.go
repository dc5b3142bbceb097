package manager

import (
	"context"
	"fmt"
	"time"

	"cwmanager/internal/connection"
	"cwmanager/internal/installer"
	"cwmanager/internal/registry"
	"cwmanager/internal/templates"
	"cwmanager/pkg/types"
)

// Operation names accepted by RunOperation.
const (
	OpInstall   = "install"
	OpUninstall = "uninstall"
	OpStart     = "start"
	OpStop      = "stop"
)

// Init performs the startup sequence: a forced status query and, when the
// backend is running, creation of the local connection and an app refresh.
func (m *Manager) Init(ctx context.Context) {
	if m.InstallStatus(ctx, true) != StatusRunning {
		return
	}
	if c := m.CreateLocalConnection(ctx); c != nil {
		if err := c.RefreshApps(ctx); err != nil {
			m.log.Warn().Err(err).Msg("initial app refresh failed")
		}
	}
}

// RunOperation dispatches an installer operation by name.
func (m *Manager) RunOperation(ctx context.Context, op string) error {
	switch op {
	case OpInstall:
		return m.Install(ctx)
	case OpUninstall:
		return m.Uninstall(ctx)
	case OpStart:
		return m.Start(ctx)
	case OpStop:
		return m.Stop(ctx)
	}
	return unknownOperationError{op: op}
}

// Install pulls the backend images.
func (m *Manager) Install(ctx context.Context) error {
	err := m.runOp(ctx, InstallerInstalling, func(ctx context.Context) (installer.Result, error) {
		return m.installer.Install(ctx, m.installVersion)
	})
	if err != nil {
		return fmt.Errorf("install: %w", err)
	}
	return nil
}

// Uninstall drops the local connection and removes the backend images.
func (m *Manager) Uninstall(ctx context.Context) error {
	err := m.runOp(ctx, InstallerUninstalling, func(ctx context.Context) (installer.Result, error) {
		m.RemoveLocalConnection()
		return m.installer.Uninstall(ctx)
	})
	if err != nil {
		return fmt.Errorf("uninstall: %w", err)
	}
	return nil
}

// Start starts the backend and creates the local connection.
func (m *Manager) Start(ctx context.Context) error {
	err := m.runOp(ctx, InstallerStarting, func(ctx context.Context) (installer.Result, error) {
		return m.installer.Start(ctx, m.installVersion)
	})
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if st := m.InstallStatus(ctx, false); st != StatusRunning {
		return fmt.Errorf("start: backend reported %q after start: %w", st, ErrStatusUnknown)
	}
	c := m.CreateLocalConnection(ctx)
	if c == nil {
		return fmt.Errorf("start: %w", ErrConnectionFailed)
	}
	if err := c.RefreshApps(ctx); err != nil {
		m.log.Warn().Err(err).Msg("app refresh after start failed")
	}
	return nil
}

// Stop stops the backend and drops the local connection.
func (m *Manager) Stop(ctx context.Context) error {
	err := m.runOp(ctx, InstallerStopping, func(ctx context.Context) (installer.Result, error) {
		return m.installer.Stop(ctx)
	})
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	m.RemoveLocalConnection()
	return nil
}

// runOp marks marker as the installer status for the duration of op, then
// clears it and forces a status refresh. Only one operation runs at a time.
func (m *Manager) runOp(ctx context.Context, marker InstallerStatus, op func(context.Context) (installer.Result, error)) error {
	if m.installer == nil {
		return ErrNoInstaller
	}
	m.mu.Lock()
	if m.st.installer != InstallerIdle {
		busy := m.st.installer
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBusy, busy)
	}
	m.st.installer = marker
	inst := m.st.status
	m.mu.Unlock()
	m.notify(Event{Kind: EventInstallerStatus, InstallerStatus: marker, InstallStatus: inst})

	start := time.Now()
	_, err := op(ctx)
	operationsTotal.WithLabelValues(string(marker), resultLabel(err)).Inc()
	if err != nil {
		m.log.Error().Err(err).Str("op", string(marker)).Dur("dur", time.Since(start)).Msg("installer operation failed")
	} else {
		m.log.Info().Str("op", string(marker)).Dur("dur", time.Since(start)).Msg("installer operation finished")
	}
	m.InstallStatus(ctx, true)
	m.SetInstallerStatus(InstallerIdle)
	return err
}

// EnsureLocalConnection returns a connected local connection, starting the
// backend first when it is installed but stopped.
func (m *Manager) EnsureLocalConnection(ctx context.Context) (registry.Conn, error) {
	if c := m.LocalConnection(); c != nil && c.IsConnected() {
		return c, nil
	}
	switch st := m.InstallStatus(ctx, true); st {
	case StatusRunning:
		if c := m.CreateLocalConnection(ctx); c != nil {
			return c, nil
		}
		return nil, ErrConnectionFailed
	case StatusStopped:
		if err := m.Start(ctx); err != nil {
			return nil, err
		}
		if c := m.LocalConnection(); c != nil {
			return c, nil
		}
		return nil, ErrConnectionFailed
	case StatusNotInstalled:
		return nil, ErrNotInstalled
	default:
		return nil, ErrStatusUnknown
	}
}

// Templates lists the enabled project templates of conid (the local
// connection when empty), sorted by label and filtered by filter.
func (m *Manager) Templates(ctx context.Context, conid, filter string) ([]types.Template, error) {
	if m.templates == nil {
		return nil, ErrNoInstaller
	}
	var c registry.Conn
	if conid == "" || conid == connection.LocalConID {
		c = m.LocalConnection()
	} else {
		c = m.reg.ByID(conid)
	}
	if c == nil {
		return nil, fmt.Errorf("templates for %q: %w", conid, ErrConnectionFailed)
	}
	list, err := m.templates.ListTemplates(ctx, c.ConID(), true)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	templates.Sort(list)
	return templates.Filter(list, filter), nil
}
