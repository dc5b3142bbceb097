package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cwmanager/pkg/types"
)

// Status tokens reported by the installer.
const (
	TokenUninstalled = "uninstalled"
	TokenStopped     = "stopped"
	TokenStarted     = "started"
)

// StatusDoc is the installer status document.
type StatusDoc struct {
	Status   string   `json:"status"`
	URL      string   `json:"url,omitempty"`
	Versions []string `json:"versions,omitempty"`
}

// Options configures a Client. Zero durations fall back to package defaults.
type Options struct {
	Path             string
	Runner           Runner
	StatusTimeout    time.Duration
	OperationTimeout time.Duration
	Logger           zerolog.Logger
}

const (
	defaultStatusTimeout    = 30 * time.Second
	defaultOperationTimeout = 10 * time.Minute
)

// Client invokes the installer binary.
type Client struct {
	path     string
	runner   Runner
	statusTO time.Duration
	opTO     time.Duration
	log      zerolog.Logger
}

// New constructs a Client from opts.
func New(opts Options) *Client {
	c := &Client{path: opts.Path, runner: opts.Runner, statusTO: opts.StatusTimeout, opTO: opts.OperationTimeout, log: opts.Logger}
	if c.runner == nil {
		c.runner = ExecRunner{}
	}
	if c.statusTO <= 0 {
		c.statusTO = defaultStatusTimeout
	}
	if c.opTO <= 0 {
		c.opTO = defaultOperationTimeout
	}
	return c
}

// Path returns the installer binary path.
func (c *Client) Path() string { return c.path }

// Status queries the installer for the current install status.
func (c *Client) Status(ctx context.Context) (StatusDoc, error) {
	var doc StatusDoc
	res, err := c.run(ctx, c.statusTO, "--json", "status")
	if err != nil {
		return doc, err
	}
	if res.ExitCode != 0 {
		return doc, fmt.Errorf("status exited with code %d: %s: %w", res.ExitCode, strings.TrimSpace(res.Stderr), ErrIO)
	}
	if err := json.Unmarshal([]byte(res.Stdout), &doc); err != nil {
		return doc, fmt.Errorf("decode status: %v: %w", err, ErrMalformed)
	}
	if doc.Status == "" {
		return doc, fmt.Errorf("status document has no status field: %w", ErrMalformed)
	}
	return doc, nil
}

// Install pulls the backend images for version.
func (c *Client) Install(ctx context.Context, version string) (Result, error) {
	return c.operation(ctx, "install", "install", "-t", version)
}

// Start starts the backend containers for version.
func (c *Client) Start(ctx context.Context, version string) (Result, error) {
	return c.operation(ctx, "start", "start", "-t", version)
}

// Stop stops all backend containers.
func (c *Client) Stop(ctx context.Context) (Result, error) {
	return c.operation(ctx, "stop", "stop-all")
}

// Uninstall removes the backend images.
func (c *Client) Uninstall(ctx context.Context) (Result, error) {
	return c.operation(ctx, "uninstall", "remove")
}

// ListTemplates lists project templates available on the connection conid.
func (c *Client) ListTemplates(ctx context.Context, conid string, enabledOnly bool) ([]types.Template, error) {
	args := []string{"--json", "templates", "list"}
	if enabledOnly {
		args = append(args, "--showEnabledOnly")
	}
	args = append(args, "--conid", conid)
	res, err := c.run(ctx, c.statusTO, args...)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &OperationError{Op: "templates list", Result: res}
	}
	var out []types.Template
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return nil, fmt.Errorf("decode templates: %v: %w", err, ErrMalformed)
	}
	return out, nil
}

func (c *Client) operation(ctx context.Context, op string, args ...string) (Result, error) {
	start := time.Now()
	c.log.Info().Str("op", op).Strs("args", args).Msg("installer operation start")
	res, err := c.run(ctx, c.opTO, args...)
	if err != nil {
		c.log.Error().Err(err).Str("op", op).Dur("dur", time.Since(start)).Msg("installer operation error")
		return res, err
	}
	if res.ExitCode != 0 {
		oe := &OperationError{Op: op, Result: res}
		c.log.Error().Err(oe).Str("op", op).Int("exit_code", res.ExitCode).Str("stdout", res.Stdout).Dur("dur", time.Since(start)).Msg("installer operation failed")
		return res, oe
	}
	c.log.Info().Str("op", op).Dur("dur", time.Since(start)).Msg("installer operation end")
	return res, nil
}

func (c *Client) run(ctx context.Context, timeout time.Duration, args ...string) (Result, error) {
	if strings.TrimSpace(c.path) == "" {
		return Result{}, fmt.Errorf("installer path is empty: %w", ErrIO)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	c.log.Debug().Str("path", c.path).Strs("args", args).Msg("installer exec")
	return c.runner.Run(ctx, c.path, args...)
}
