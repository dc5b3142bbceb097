package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Remote describes a remote backend connection loaded at startup.
type Remote struct {
	URL string `json:"url" yaml:"url" toml:"url"`
	ID  string `json:"id" yaml:"id" toml:"id"`
}

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by Defaults via WithDefaults.
type Config struct {
	Addr                string   `json:"addr" yaml:"addr" toml:"addr"`
	InstallerPath       string   `json:"installer_path" yaml:"installer_path" toml:"installer_path"`
	InstallVersion      string   `json:"install_version" yaml:"install_version" toml:"install_version"`
	MinVersion          string   `json:"min_version" yaml:"min_version" toml:"min_version"`
	StatusTimeoutSec    int      `json:"status_timeout_seconds" yaml:"status_timeout_seconds" toml:"status_timeout_seconds"`
	OperationTimeoutSec int      `json:"operation_timeout_seconds" yaml:"operation_timeout_seconds" toml:"operation_timeout_seconds"`
	HTTPTimeoutSec      int      `json:"http_timeout_seconds" yaml:"http_timeout_seconds" toml:"http_timeout_seconds"`
	PollIntervalSec     int      `json:"poll_interval_seconds" yaml:"poll_interval_seconds" toml:"poll_interval_seconds"`
	LogLevel            string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSOrigins         []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	Remotes             []Remote `json:"remotes" yaml:"remotes" toml:"remotes"`
}

// Defaults returns the configuration used when nothing is specified.
func Defaults() Config {
	return Config{
		Addr:                ":9095",
		InstallerPath:       "~/.codewind/cwctl",
		InstallVersion:      "latest",
		MinVersion:          "0.9.0",
		StatusTimeoutSec:    30,
		OperationTimeoutSec: 600,
		HTTPTimeoutSec:      10,
		PollIntervalSec:     5,
		LogLevel:            "info",
	}
}

// WithDefaults fills every unset field of c from Defaults.
func (c Config) WithDefaults() Config {
	d := Defaults()
	if c.Addr == "" { c.Addr = d.Addr }
	if c.InstallerPath == "" { c.InstallerPath = d.InstallerPath }
	if c.InstallVersion == "" { c.InstallVersion = d.InstallVersion }
	if c.MinVersion == "" { c.MinVersion = d.MinVersion }
	if c.StatusTimeoutSec <= 0 { c.StatusTimeoutSec = d.StatusTimeoutSec }
	if c.OperationTimeoutSec <= 0 { c.OperationTimeoutSec = d.OperationTimeoutSec }
	if c.HTTPTimeoutSec <= 0 { c.HTTPTimeoutSec = d.HTTPTimeoutSec }
	if c.PollIntervalSec <= 0 { c.PollIntervalSec = d.PollIntervalSec }
	if c.LogLevel == "" { c.LogLevel = d.LogLevel }
	return c
}

// StatusTimeout is the deadline for one installer status query.
func (c Config) StatusTimeout() time.Duration { return time.Duration(c.StatusTimeoutSec) * time.Second }

// OperationTimeout is the deadline for install/start/stop/uninstall.
func (c Config) OperationTimeout() time.Duration { return time.Duration(c.OperationTimeoutSec) * time.Second }

// HTTPTimeout is the per-request deadline for backend REST calls.
func (c Config) HTTPTimeout() time.Duration { return time.Duration(c.HTTPTimeoutSec) * time.Second }

// PollInterval is the base interval used by the status poller.
func (c Config) PollInterval() time.Duration { return time.Duration(c.PollIntervalSec) * time.Second }

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	for i, r := range cfg.Remotes {
		if strings.TrimSpace(r.URL) == "" {
			return cfg, fmt.Errorf("remotes[%d]: url is required", i)
		}
	}
	return cfg, nil
}
