package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cwmanager/internal/installer"
	"cwmanager/pkg/types"
)

// fakeRunner answers "status" with a fixed document and succeeds every
// other command.
type fakeRunner struct {
	mu     sync.Mutex
	status string
	calls  [][]string
}

func (f *fakeRunner) Run(ctx context.Context, path string, args ...string) (installer.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()
	for _, a := range args {
		if a == "status" {
			return installer.Result{Stdout: f.status}, nil
		}
	}
	return installer.Result{}, nil
}

func (f *fakeRunner) ran(sub string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		for _, a := range c {
			if a == sub {
				return true
			}
		}
	}
	return false
}

func TestMainWith_Codes(t *testing.T) {
	var out, errb bytes.Buffer
	if code := mainWith([]string{"--help"}, &fakeRunner{}, &out, &errb); code != 0 {
		t.Fatalf("help expected 0, got %d", code)
	}
	if code := mainWith(nil, &fakeRunner{}, &out, &errb); code != 2 {
		t.Fatalf("empty expected 2, got %d", code)
	}
	if code := mainWith([]string{"bogus"}, &fakeRunner{}, &out, &errb); code != 1 {
		t.Fatalf("unknown command expected 1, got %d", code)
	}
}

func TestStatusCommand(t *testing.T) {
	r := &fakeRunner{status: `{"status":"stopped"}`}
	var out, errb bytes.Buffer
	code := mainWith([]string{"status", "--installer", "/opt/cwctl", "--log-level", "error"}, r, &out, &errb)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errb.String())
	}
	if !strings.Contains(out.String(), "status: stopped") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestStatusCommand_JSON(t *testing.T) {
	r := &fakeRunner{status: `{"status":"uninstalled"}`}
	var out, errb bytes.Buffer
	if code := mainWith([]string{"--json", "status", "--log-level", "error"}, r, &out, &errb); code != 0 {
		t.Fatalf("exit %d: %s", code, errb.String())
	}
	var st types.StatusResponse
	if err := json.Unmarshal(out.Bytes(), &st); err != nil {
		t.Fatalf("json: %v (%q)", err, out.String())
	}
	if st.InstallStatus != "not_installed" || st.Installed {
		t.Fatalf("status %+v", st)
	}
}

func TestStopCommand_RunsInstaller(t *testing.T) {
	r := &fakeRunner{status: `{"status":"stopped"}`}
	var out, errb bytes.Buffer
	if code := mainWith([]string{"stop", "--log-level", "error"}, r, &out, &errb); code != 0 {
		t.Fatalf("exit %d: %s", code, errb.String())
	}
	if !r.ran("stop-all") {
		t.Fatalf("stop-all not invoked: %v", r.calls)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	var out, errb bytes.Buffer
	if code := mainWith([]string{"status", "--log-level", "loud"}, &fakeRunner{}, &out, &errb); code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
	if !strings.Contains(errb.String(), "log level") {
		t.Fatalf("stderr %q", errb.String())
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cw.yaml")
	data := "addr: \":7000\"\ninstaller_path: /usr/bin/cwctl\nlog_level: debug\n"
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(&Options{ConfigPath: p, Addr: ":8000", CORSOrigins: "http://a, http://b"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8000" || cfg.InstallerPath != "/usr/bin/cwctl" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b" {
		t.Fatalf("cors origins %v", cfg.CORSOrigins)
	}
	if cfg.PollIntervalSec != 5 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if _, err := loadConfig(&Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing config")
	}
}

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestHTTPLogLevel(t *testing.T) {
	cases := map[string]string{"debug": "debug", "info": "info", "warn": "error", "disabled": "off", "": "info"}
	for in, want := range cases {
		if got := httpLogLevel(in); got != want {
			t.Fatalf("httpLogLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
