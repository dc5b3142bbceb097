// Package connection is the REST client for one Codewind backend.
package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cwmanager/pkg/types"
)

const (
	// LocalConID is the conduit id of the connection to the local backend.
	LocalConID = "local"

	environmentPath = "api/v1/environment"
	projectsPath    = "api/v1/projects"

	defaultTimeout = 10 * time.Second
)

// ErrClosed is returned by operations on a closed connection.
var ErrClosed = errors.New("connection closed")

// NormalizeURL validates raw as an absolute http(s) URL and ensures a trailing "/".
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: expected absolute http(s) url", raw)
	}
	return raw, nil
}

type environment struct {
	Version string `json:"codewind_version"`
}

// Connection talks to one backend over HTTP.
type Connection struct {
	baseURL string
	conid   string
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger

	mu        sync.RWMutex
	connected bool
	closed    bool
	apps      []types.Application
}

// New returns an unconnected Connection; call Connect to probe the backend.
func New(baseURL, conid string, client *http.Client, timeout time.Duration, log zerolog.Logger) (*Connection, error) {
	u, err := NormalizeURL(baseURL)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Connection{
		baseURL: u,
		conid:   conid,
		client:  client,
		timeout: timeout,
		log:     log.With().Str("conid", conid).Str("url", u).Logger(),
	}, nil
}

func (c *Connection) BaseURL() string { return c.baseURL }
func (c *Connection) ConID() string   { return c.conid }

func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && !c.closed
}

// Connect probes the environment endpoint and marks the connection connected.
func (c *Connection) Connect(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}
	var env environment
	if err := getJSON(ctx, c.client, c.timeout, c.baseURL+environmentPath, &env); err != nil {
		c.setConnected(false)
		return err
	}
	c.setConnected(true)
	c.log.Info().Str("version", env.Version).Msg("connected")
	return nil
}

// RefreshApps reloads the application list from the backend.
func (c *Connection) RefreshApps(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}
	var apps []types.Application
	if err := getJSON(ctx, c.client, c.timeout, c.baseURL+projectsPath, &apps); err != nil {
		return fmt.Errorf("refresh apps: %w", err)
	}
	c.mu.Lock()
	c.apps = apps
	c.mu.Unlock()
	c.log.Debug().Int("apps", len(apps)).Msg("apps refreshed")
	return nil
}

// Apps returns a copy of the last fetched application list.
func (c *Connection) Apps() []types.Application {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Application, len(c.apps))
	copy(out, c.apps)
	return out
}

// Close marks the connection closed and releases idle sockets. Idempotent.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	c.apps = nil
	c.mu.Unlock()
	c.client.CloseIdleConnections()
	c.log.Info().Msg("connection closed")
	return nil
}

func (c *Connection) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Connection) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// getJSON issues a GET bounded by timeout and decodes the JSON body into out.
func getJSON(ctx context.Context, client *http.Client, timeout time.Duration, u string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("GET %s: %s: %s", u, resp.Status, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", u, err)
	}
	return nil
}
