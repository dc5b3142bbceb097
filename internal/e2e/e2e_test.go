package e2e

import (
	"context"
	"net/http"
	"testing"

	"cwmanager/pkg/types"
)

// TestE2E_Lifecycle drives start, app listing, templates and stop through the HTTP API.
func TestE2E_Lifecycle(t *testing.T) {
	backend := newBackend(t, "0.14.0")
	inst := &scriptedInstaller{status: "stopped", backend: backend.URL}
	srv, _ := newStack(t, inst)

	var st types.StatusResponse
	if code := httpDo(t, http.MethodPost, srv.URL+"/status/refresh", &st); code != http.StatusOK || st.InstallStatus != "stopped" {
		t.Fatalf("initial status code=%d body=%+v", code, st)
	}
	if code := httpDo(t, http.MethodGet, srv.URL+"/readyz", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before start=%d", code)
	}

	var op types.OperationResponse
	if code := httpDo(t, http.MethodPost, srv.URL+"/installer/start", &op); code != http.StatusOK {
		t.Fatalf("start code=%d", code)
	}
	if op.InstallStatus != "running" {
		t.Fatalf("after start: %+v", op)
	}
	httpDo(t, http.MethodGet, srv.URL+"/status", &st)
	if !st.LocalConnection || st.URL != backend.URL+"/" || st.Version != "0.14.0" {
		t.Fatalf("status after start: %+v", st)
	}
	if code := httpDo(t, http.MethodGet, srv.URL+"/readyz", nil); code != http.StatusOK {
		t.Fatalf("readyz after start=%d", code)
	}

	var active struct {
		Active bool                `json:"active"`
		Apps   []types.Application `json:"apps"`
	}
	httpDo(t, http.MethodGet, srv.URL+"/apps/active", &active)
	if !active.Active || len(active.Apps) != 1 || active.Apps[0].ID != "p1" {
		t.Fatalf("active apps: %+v", active)
	}

	var tr types.TemplatesResponse
	if code := httpDo(t, http.MethodGet, srv.URL+"/templates?filter=node", &tr); code != http.StatusOK {
		t.Fatalf("templates code=%d", code)
	}
	if len(tr.Templates) != 1 || tr.Templates[0].Label != "Node.js Express" {
		t.Fatalf("templates: %+v", tr.Templates)
	}

	if code := httpDo(t, http.MethodPost, srv.URL+"/installer/stop", &op); code != http.StatusOK || op.InstallStatus != "stopped" {
		t.Fatalf("stop code=%d body=%+v", code, op)
	}
	var conns types.ConnectionsResponse
	httpDo(t, http.MethodGet, srv.URL+"/connections", &conns)
	if len(conns.Connections) != 0 {
		t.Fatalf("connections after stop: %+v", conns.Connections)
	}
	httpDo(t, http.MethodGet, srv.URL+"/status", &st)
	if st.URL != "" || st.LocalConnection {
		t.Fatalf("stopped status kept url or connection: %+v", st)
	}
}

// TestE2E_UnsupportedVersion verifies no local connection is made to an old backend.
func TestE2E_UnsupportedVersion(t *testing.T) {
	backend := newBackend(t, "0.8.1")
	inst := &scriptedInstaller{status: "started", url: backend.URL, backend: backend.URL}
	srv, mgr := newStack(t, inst)

	var st types.StatusResponse
	httpDo(t, http.MethodPost, srv.URL+"/status/refresh", &st)
	if st.InstallStatus != "running" {
		t.Fatalf("status: %+v", st)
	}
	if c := mgr.CreateLocalConnection(context.Background()); c != nil {
		t.Fatalf("expected no connection to unsupported backend")
	}
	if code := httpDo(t, http.MethodGet, srv.URL+"/readyz", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("readyz=%d", code)
	}
}

// TestE2E_UnknownOperation maps an unknown installer op to 400.
func TestE2E_UnknownOperation(t *testing.T) {
	srv, _ := newStack(t, &scriptedInstaller{status: "stopped"})
	var er types.ErrorResponse
	if code := httpDo(t, http.MethodPost, srv.URL+"/installer/explode", &er); code != http.StatusBadRequest || er.Code != http.StatusBadRequest {
		t.Fatalf("code=%d body=%+v", code, er)
	}
}
