package manager

import (
	"context"

	"golang.org/x/sync/errgroup"

	"cwmanager/internal/registry"
	"cwmanager/pkg/types"
)

// refreshParallelism bounds concurrent app refreshes across connections.
const refreshParallelism = 4

// Refresh asks every active connection to reload its applications. Failures
// are logged per connection; they do not stop the others.
func (m *Manager) Refresh(ctx context.Context) {
	conns := m.reg.Active()
	if len(conns) == 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(refreshParallelism)
	for _, c := range conns {
		g.Go(func() error {
			if err := c.RefreshApps(ctx); err != nil {
				m.log.Warn().Err(err).Str("conid", c.ConID()).Str("url", c.BaseURL()).Msg("refresh apps failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	m.notify(Event{Kind: EventAppsRefreshed})
}

// HasActiveApplications reports whether any active connection has an
// available application.
func (m *Manager) HasActiveApplications() bool {
	for _, c := range m.reg.Active() {
		for _, app := range c.Apps() {
			if app.IsAvailable() {
				return true
			}
		}
	}
	return false
}

// Connections summarizes every registered connection.
func (m *Manager) Connections() []types.ConnectionStatus {
	local := m.LocalConnection()
	all := m.reg.All()
	out := make([]types.ConnectionStatus, 0, len(all))
	for _, c := range all {
		out = append(out, connectionStatus(c, c == local))
	}
	return out
}

// ActiveApplications lists the available applications of every active connection.
func (m *Manager) ActiveApplications() []types.Application {
	var out []types.Application
	for _, c := range m.reg.Active() {
		for _, app := range c.Apps() {
			if app.IsAvailable() {
				out = append(out, app)
			}
		}
	}
	return out
}

func connectionStatus(c registry.Conn, local bool) types.ConnectionStatus {
	apps := c.Apps()
	if apps == nil {
		apps = []types.Application{}
	}
	return types.ConnectionStatus{
		ID:        c.ConID(),
		URL:       c.BaseURL(),
		Connected: c.IsConnected(),
		Local:     local,
		Apps:      apps,
	}
}
