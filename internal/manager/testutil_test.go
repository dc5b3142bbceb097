package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cwmanager/internal/installer"
	"cwmanager/internal/registry"
	"cwmanager/pkg/types"
)

// fakeStatus is a StatusSource returning a settable document or error.
type fakeStatus struct {
	mu    sync.Mutex
	doc   installer.StatusDoc
	err   error
	calls atomic.Int32
}

func (f *fakeStatus) Status(ctx context.Context) (installer.StatusDoc, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc, f.err
}

func (f *fakeStatus) set(doc installer.StatusDoc, err error) {
	f.mu.Lock()
	f.doc, f.err = doc, err
	f.mu.Unlock()
}

// slowStatus answers doc after delay unless ctx ends first.
type slowStatus struct {
	delay time.Duration
	doc   installer.StatusDoc
}

func (s *slowStatus) Status(ctx context.Context) (installer.StatusDoc, error) {
	select {
	case <-time.After(s.delay):
		return s.doc, nil
	case <-ctx.Done():
		return installer.StatusDoc{}, fmt.Errorf("status: %w", installer.ErrTimeout)
	}
}

func running(url string) installer.StatusDoc {
	return installer.StatusDoc{Status: installer.TokenStarted, URL: url, Versions: []string{"0.9.0"}}
}

var stopped = installer.StatusDoc{Status: installer.TokenStopped, Versions: []string{"0.9.0"}}

// fakeConn is an in-memory registry.Conn.
type fakeConn struct {
	url, id    string
	mu         sync.Mutex
	connected  bool
	closed     bool
	apps       []types.Application
	refreshErr error
	refreshes  atomic.Int32
}

func (c *fakeConn) BaseURL() string { return c.url }
func (c *fakeConn) ConID() string   { return c.id }

func (c *fakeConn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && !c.closed
}

func (c *fakeConn) RefreshApps(ctx context.Context) error {
	c.refreshes.Add(1)
	return c.refreshErr
}

func (c *fakeConn) Apps() []types.Application {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Application(nil), c.apps...)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeFactory builds fakeConns and serves a fixed version.
type fakeFactory struct {
	version    string
	versionErr error
	createErr  error
	delay      time.Duration
	apps       []types.Application
	created    atomic.Int32
	versions   atomic.Int32
}

func (f *fakeFactory) NewConnection(ctx context.Context, baseURL, conid string) (registry.Conn, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created.Add(1)
	return &fakeConn{url: baseURL, id: conid, connected: true, apps: f.apps}, nil
}

func (f *fakeFactory) Version(ctx context.Context, baseURL string) (string, error) {
	f.versions.Add(1)
	return f.version, f.versionErr
}

// fakeInstaller flips the fake status the way the real installer would.
type fakeInstaller struct {
	status *fakeStatus
	url    string
	err    error
	mu     sync.Mutex
	ops    []string
}

func (f *fakeInstaller) record(op string) {
	f.mu.Lock()
	f.ops = append(f.ops, op)
	f.mu.Unlock()
}

func (f *fakeInstaller) Install(ctx context.Context, version string) (installer.Result, error) {
	f.record("install:" + version)
	if f.err != nil {
		return installer.Result{ExitCode: 1}, f.err
	}
	f.status.set(stopped, nil)
	return installer.Result{}, nil
}

func (f *fakeInstaller) Start(ctx context.Context, version string) (installer.Result, error) {
	f.record("start:" + version)
	if f.err != nil {
		return installer.Result{ExitCode: 1}, f.err
	}
	f.status.set(running(f.url), nil)
	return installer.Result{}, nil
}

func (f *fakeInstaller) Stop(ctx context.Context) (installer.Result, error) {
	f.record("stop")
	if f.err != nil {
		return installer.Result{ExitCode: 1}, f.err
	}
	f.status.set(stopped, nil)
	return installer.Result{}, nil
}

func (f *fakeInstaller) Uninstall(ctx context.Context) (installer.Result, error) {
	f.record("uninstall")
	if f.err != nil {
		return installer.Result{ExitCode: 1}, f.err
	}
	f.status.set(installer.StatusDoc{Status: installer.TokenUninstalled}, nil)
	return installer.Result{}, nil
}

func (f *fakeInstaller) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

type fakeTemplates struct {
	list  []types.Template
	conid string
}

func (f *fakeTemplates) ListTemplates(ctx context.Context, conid string, enabledOnly bool) ([]types.Template, error) {
	f.conid = conid
	if !enabledOnly {
		return nil, errors.New("expected enabled-only listing")
	}
	return append([]types.Template(nil), f.list...), nil
}

type fixture struct {
	m      *Manager
	status *fakeStatus
	fact   *fakeFactory
	inst   *fakeInstaller
	tmpl   *fakeTemplates
	reg    *registry.Registry
}

const testURL = "http://x.y:9090"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := &fakeStatus{}
	f := &fixture{
		status: st,
		fact:   &fakeFactory{version: "0.9.0"},
		inst:   &fakeInstaller{status: st, url: testURL},
		tmpl:   &fakeTemplates{},
		reg:    registry.New(),
	}
	f.m = NewWithConfig(ManagerConfig{
		Status:    f.status,
		Installer: f.inst,
		Templates: f.tmpl,
		Factory:   f.fact,
		Registry:  f.reg,
		Logger:    zerolog.Nop(),
	})
	return f
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
