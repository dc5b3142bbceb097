package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cwmanager/internal/connection"
	"cwmanager/internal/httpapi"
	"cwmanager/internal/installer"
	"cwmanager/internal/manager"
	"cwmanager/internal/registry"
)

// scriptedInstaller emulates cwctl: start/stop-all/install/remove change the
// state reported by "--json status".
type scriptedInstaller struct {
	mu      sync.Mutex
	status  string
	url     string
	calls   []string
	backend string
}

func (s *scriptedInstaller) Run(ctx context.Context, path string, args ...string) (installer.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmd := args[len(args)-1]
	for _, a := range args {
		switch a {
		case "start", "stop-all", "install", "remove", "templates":
			cmd = a
		}
	}
	s.calls = append(s.calls, cmd)
	switch cmd {
	case "status":
		doc := installer.StatusDoc{Status: s.status, URL: s.url}
		b, _ := json.Marshal(doc)
		return installer.Result{Stdout: string(b)}, nil
	case "start":
		s.status, s.url = installer.TokenStarted, s.backend
	case "stop-all":
		s.status, s.url = installer.TokenStopped, ""
	case "install":
		s.status = installer.TokenStopped
	case "remove":
		s.status, s.url = installer.TokenUninstalled, ""
	case "templates":
		return installer.Result{Stdout: `[{"label":"Node.js Express","language":"nodejs","projectType":"nodejs"},{"label":"Go","language":"go","projectType":"docker"}]`}, nil
	}
	return installer.Result{}, nil
}

// newBackend serves the environment and projects endpoints of a backend.
func newBackend(t *testing.T, version string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/environment", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"codewind_version":%q}`, version)
	})
	mux.HandleFunc("/api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"projectID":"p1","name":"demo","language":"go","appStatus":"started","state":"open"},{"projectID":"p2","name":"old","appStatus":"stopped","state":"closed"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newStack wires the real installer client, connection factory, registry,
// manager and HTTP API around a scripted installer.
func newStack(t *testing.T, inst *scriptedInstaller) (*httptest.Server, *manager.Manager) {
	t.Helper()
	client := installer.New(installer.Options{Path: "/fake/cwctl", Runner: inst})
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Status:    client,
		Installer: client,
		Templates: client,
		Factory:   connection.NewFactory(2*time.Second, zerolog.Nop()),
		Registry:  registry.New(),
	})
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	t.Cleanup(mgr.RemoveLocalConnection)
	return srv, mgr
}

func httpDo(t *testing.T, method, url string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, url, err, body)
		}
	}
	return resp.StatusCode
}
