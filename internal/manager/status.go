package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"cwmanager/internal/connection"
	"cwmanager/internal/installer"
	"cwmanager/internal/registry"
)

var errInvalidURL = errors.New("invalid backend url")

// InstallStatus returns the cached install status, querying the installer
// when forceRefresh is set or nothing is cached. Any failure to query or
// understand the installer is logged and reported as StatusUnknown; the
// cached state is left as it was. A caller whose ctx ends first reads
// StatusUnknown while the shared query runs on.
func (m *Manager) InstallStatus(ctx context.Context, forceRefresh bool) InstallStatus {
	if !forceRefresh {
		m.mu.Lock()
		st := m.st.status
		m.mu.Unlock()
		if st != "" {
			return st
		}
	}
	// The shared query outlives any single caller; the status source bounds it.
	qctx := context.WithoutCancel(ctx)
	ch := m.sf.DoChan("status", func() (any, error) {
		return m.queryStatus(qctx), nil
	})
	select {
	case r := <-ch:
		return r.Val.(InstallStatus)
	case <-ctx.Done():
		return StatusUnknown
	}
}

func (m *Manager) queryStatus(ctx context.Context) InstallStatus {
	st, url, err := m.fetchStatus(ctx)
	statusQueriesTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		m.logStatusError(err)
		return StatusUnknown
	}

	m.mu.Lock()
	prev := m.st.status
	var dropped registry.Conn
	if st == StatusRunning {
		if m.st.url != url {
			// The backend moved; anything bound to the old URL is stale.
			m.st.version = ""
			dropped = m.detachLocked()
		}
		m.st.url = url
	} else {
		m.st.url = ""
		m.st.version = ""
		dropped = m.detachLocked()
	}
	m.st.status = st
	m.mu.Unlock()

	setInstallStatusGauge(st)
	if dropped != nil {
		m.closeConn(dropped)
	}
	if prev != st {
		m.log.Info().Str("from", string(prev)).Str("to", string(st)).Str("url", url).Msg("install status changed")
		m.notify(Event{Kind: EventInstallStatus, InstallStatus: st, URL: url})
	}
	return st
}

// fetchStatus queries the status source and validates the document.
func (m *Manager) fetchStatus(ctx context.Context) (InstallStatus, string, error) {
	if m.status == nil {
		return StatusUnknown, "", fmt.Errorf("no status source configured: %w", installer.ErrIO)
	}
	doc, err := m.status.Status(ctx)
	if err != nil {
		return StatusUnknown, "", err
	}
	st, ok := parseStatusToken(doc.Status)
	if !ok {
		return StatusUnknown, "", fmt.Errorf("unrecognized status token %q: %w", doc.Status, installer.ErrMalformed)
	}
	if st != StatusRunning {
		return st, "", nil
	}
	if strings.TrimSpace(doc.URL) == "" {
		return StatusUnknown, "", fmt.Errorf("running status has no url: %w", installer.ErrMalformed)
	}
	url, err := connection.NormalizeURL(doc.URL)
	if err != nil {
		return StatusUnknown, "", fmt.Errorf("%w: %v", errInvalidURL, err)
	}
	return st, url, nil
}

func (m *Manager) logStatusError(err error) {
	var msg string
	switch {
	case installer.IsTimeout(err):
		msg = "timed out trying to get the installer status"
	case installer.IsMalformed(err):
		msg = "the installer status format is not recognized"
	case errors.Is(err, errInvalidURL):
		msg = "the installer status command returned an invalid url"
	default:
		msg = "an error occurred trying to get the installer status"
	}
	m.log.Error().Err(err).Msg(msg)
}

// LocalURI returns the base URL of the running local backend, refreshing the
// status first when no URL is cached. It returns "" when not running.
func (m *Manager) LocalURI(ctx context.Context) string {
	m.mu.Lock()
	u := m.st.url
	m.mu.Unlock()
	if u != "" {
		return u
	}
	m.InstallStatus(ctx, true)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.url
}

// Version returns the backend version, fetching it from the running backend
// when not cached. It returns "" when unknown.
func (m *Manager) Version(ctx context.Context) string {
	m.mu.Lock()
	v := m.st.version
	m.mu.Unlock()
	if v != "" {
		return v
	}
	if m.InstallStatus(ctx, false) != StatusRunning {
		return ""
	}
	u := m.LocalURI(ctx)
	if u == "" || m.factory == nil {
		return ""
	}
	v, err := m.factory.Version(ctx, u)
	if err != nil {
		m.log.Error().Err(err).Str("url", u).Msg("failed to get the codewind version")
		return ""
	}
	m.mu.Lock()
	if m.st.status == StatusRunning && m.st.url == u {
		m.st.version = v
	}
	m.mu.Unlock()
	return v
}

// IsSupportedVersion reports whether v meets the configured minimum version.
func (m *Manager) IsSupportedVersion(v string) bool { return SupportedVersion(v, m.minVersion) }

// SupportedVersion reports whether v is "latest" or a release at least min.
// Versions may omit the leading "v" and the patch number; pre-release and
// build suffixes are ignored.
func SupportedVersion(v, min string) bool {
	if strings.TrimSpace(v) == "latest" {
		return true
	}
	cv, ok := canonicalVersion(v)
	if !ok {
		return false
	}
	cmin, ok := canonicalVersion(min)
	if !ok {
		return true
	}
	return semver.Compare(cv, cmin) >= 0
}

func canonicalVersion(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	c := semver.Canonical(v)
	if c == "" {
		return "", false
	}
	if i := strings.IndexAny(c, "-+"); i >= 0 {
		c = c[:i]
	}
	return c, true
}
