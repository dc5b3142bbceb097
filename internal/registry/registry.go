// Package registry indexes backend connections, local and remote, by base URL.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"cwmanager/pkg/types"
)

// Conn is a connection to one backend as seen by the registry and manager.
type Conn interface {
	BaseURL() string
	ConID() string
	IsConnected() bool
	RefreshApps(ctx context.Context) error
	Apps() []types.Application
	Close() error
}

// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byURL map[string]Conn
}

func New() *Registry { return &Registry{byURL: make(map[string]Conn)} }

// Key normalizes a base URL so that "http://h:1" and "http://h:1/" match.
func Key(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/") + "/"
}

// Add registers c under its base URL and returns any connection it replaced.
func (r *Registry) Add(c Conn) Conn {
	k := Key(c.BaseURL())
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.byURL[k]
	r.byURL[k] = c
	return prev
}

// Remove deregisters the connection for url and returns it, or nil.
func (r *Registry) Remove(url string) Conn {
	k := Key(url)
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byURL[k]
	delete(r.byURL, k)
	return c
}

// Get returns the connection registered for url, or nil.
func (r *Registry) Get(url string) Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byURL[Key(url)]
}

// ByID returns the connection with the given conduit id, or nil.
func (r *Registry) ByID(conid string) Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.byURL {
		if c.ConID() == conid {
			return c
		}
	}
	return nil
}

// All returns every registered connection sorted by URL.
func (r *Registry) All() []Conn {
	r.mu.RLock()
	out := make([]Conn, 0, len(r.byURL))
	for _, c := range r.byURL {
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return Key(out[i].BaseURL()) < Key(out[j].BaseURL()) })
	return out
}

// Active returns the connected subset of All.
func (r *Registry) Active() []Conn {
	all := r.All()
	out := all[:0]
	for _, c := range all {
		if c.IsConnected() {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byURL)
}
