package connection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cwmanager/internal/registry"
)

// Factory builds HTTP connections and answers backend version queries.
type Factory struct {
	// Client is shared by every connection built by this factory.
	Client  *http.Client
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewFactory returns a Factory with a fresh http.Client. Timeout=0 on the
// client itself; every call carries a context deadline instead.
func NewFactory(timeout time.Duration, log zerolog.Logger) *Factory {
	return &Factory{Client: &http.Client{Timeout: 0}, Timeout: timeout, Logger: log}
}

// NewConnection creates a connection to baseURL and probes it.
func (f *Factory) NewConnection(ctx context.Context, baseURL, conid string) (registry.Conn, error) {
	c, err := New(baseURL, conid, f.Client, f.Timeout, f.Logger)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("connect %s: %w", c.BaseURL(), err)
	}
	return c, nil
}

// NewRemote creates a connection to a remote backend. An empty conid is
// replaced with a random one. A probe failure is logged and the connection
// is returned unconnected so it can be retried later.
func (f *Factory) NewRemote(ctx context.Context, baseURL, conid string) (*Connection, error) {
	if conid == "" {
		conid = uuid.NewString()
	}
	c, err := New(baseURL, conid, f.Client, f.Timeout, f.Logger)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil && !errors.Is(err, ErrClosed) {
		f.Logger.Warn().Err(err).Str("url", c.BaseURL()).Msg("remote connection not reachable")
	}
	return c, nil
}

// Version fetches the backend version from baseURL.
func (f *Factory) Version(ctx context.Context, baseURL string) (string, error) {
	u, err := NormalizeURL(baseURL)
	if err != nil {
		return "", err
	}
	var env environment
	if err := getJSON(ctx, f.Client, f.timeout(), u+environmentPath, &env); err != nil {
		return "", err
	}
	if env.Version == "" {
		return "", errors.New("environment response has no codewind_version")
	}
	return env.Version, nil
}

func (f *Factory) timeout() time.Duration {
	if f.Timeout <= 0 {
		return defaultTimeout
	}
	return f.Timeout
}
