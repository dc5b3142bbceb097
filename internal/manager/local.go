package manager

import (
	"context"

	"cwmanager/internal/connection"
	"cwmanager/internal/registry"
)

// LocalConnection returns the shared local connection, or nil.
func (m *Manager) LocalConnection() registry.Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.local
}

// CreateLocalConnection returns the shared local connection, creating and
// registering it if none exists. Concurrent callers get the same instance.
// Failures (backend not running, unsupported version, connect error) are
// logged and yield nil.
func (m *Manager) CreateLocalConnection(ctx context.Context) registry.Conn {
	m.connMu.Lock()
	c, created := m.createLocal(ctx)
	m.connMu.Unlock()
	if created {
		m.notify(Event{Kind: EventConnectionAdded, InstallStatus: StatusRunning, URL: c.BaseURL()})
	}
	return c
}

// createLocal does the work of CreateLocalConnection. Callers hold m.connMu.
func (m *Manager) createLocal(ctx context.Context) (registry.Conn, bool) {
	if c := m.LocalConnection(); c != nil {
		return c, false
	}
	if m.factory == nil {
		m.log.Error().Msg("no connection factory configured")
		return nil, false
	}
	v := m.Version(ctx)
	if v == "" {
		m.log.Warn().Msg("attempting to connect to codewind failed: version unknown")
		return nil, false
	}
	if !m.IsSupportedVersion(v) {
		m.log.Warn().Str("version", v).Str("min_version", m.minVersion).Msg("attempting to connect to codewind failed: unsupported version")
		return nil, false
	}
	u := m.LocalURI(ctx)
	if u == "" {
		return nil, false
	}
	c, err := m.factory.NewConnection(ctx, u, connection.LocalConID)
	if err != nil {
		m.log.Warn().Err(err).Str("url", u).Msg("attempting to connect to codewind failed")
		return nil, false
	}

	m.mu.Lock()
	if m.st.status != StatusRunning || m.st.url != u {
		m.mu.Unlock()
		_ = c.Close()
		m.log.Warn().Str("url", u).Msg("backend stopped while connecting; discarding connection")
		return nil, false
	}
	m.st.local = c
	prev := m.reg.Add(c)
	m.mu.Unlock()

	if prev != nil && prev != c {
		_ = prev.Close()
	}
	localConnectionGauge.Set(1)
	m.log.Info().Str("url", u).Str("version", v).Msg("local connection created")
	return c, true
}

// RemoveLocalConnection closes and deregisters the local connection, if any.
func (m *Manager) RemoveLocalConnection() {
	m.connMu.Lock()
	m.mu.Lock()
	c := m.detachLocked()
	m.mu.Unlock()
	m.connMu.Unlock()
	if c != nil {
		m.closeConn(c)
	}
}

// detachLocked clears the local slot and deregisters it. Callers hold m.mu.
func (m *Manager) detachLocked() registry.Conn {
	c := m.st.local
	if c == nil {
		return nil
	}
	m.st.local = nil
	if m.reg.Get(c.BaseURL()) == c {
		m.reg.Remove(c.BaseURL())
	}
	return c
}

func (m *Manager) closeConn(c registry.Conn) {
	if err := c.Close(); err != nil {
		m.log.Warn().Err(err).Str("url", c.BaseURL()).Msg("error closing local connection")
	}
	localConnectionGauge.Set(0)
	m.log.Info().Str("url", c.BaseURL()).Msg("local connection removed")
	m.notify(Event{Kind: EventConnectionRemoved, URL: c.BaseURL()})
}
