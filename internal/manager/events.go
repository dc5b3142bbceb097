package manager

// EventKind names what changed.
type EventKind string

const (
	EventInstallStatus     EventKind = "install_status"
	EventInstallerStatus   EventKind = "installer_status"
	EventConnectionAdded   EventKind = "connection_added"
	EventConnectionRemoved EventKind = "connection_removed"
	EventAppsRefreshed     EventKind = "apps_refreshed"
)

// Event is delivered to observers after the manager state changes.
type Event struct {
	Kind            EventKind       `json:"kind"`
	InstallStatus   InstallStatus   `json:"install_status,omitempty"`
	InstallerStatus InstallerStatus `json:"installer_status,omitempty"`
	URL             string          `json:"url,omitempty"`
}

// Observer receives manager events. Notify is called synchronously on the
// goroutine that changed the state; implementations must be cheap, must not
// block on IO and must not call back into the Manager.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) { f(e) }

// Subscribe registers o and returns a function that unregisters it.
// The returned function is safe to call more than once.
func (m *Manager) Subscribe(o Observer) (unsubscribe func()) {
	m.obsMu.Lock()
	id := m.nextObsID
	m.nextObsID++
	m.observers[id] = o
	m.obsMu.Unlock()
	return func() {
		m.obsMu.Lock()
		delete(m.observers, id)
		m.obsMu.Unlock()
	}
}

func (m *Manager) notify(e Event) {
	m.obsMu.Lock()
	obs := make([]Observer, 0, len(m.observers))
	for _, o := range m.observers {
		obs = append(obs, o)
	}
	m.obsMu.Unlock()
	for _, o := range obs {
		o.Notify(e)
	}
}
