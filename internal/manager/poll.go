package manager

import (
	"context"
	"time"
)

// Poll refreshes the install status every interval until ctx is done. While
// the installer keeps failing the delay doubles, up to maxPollBackoff times
// the interval; the first successful query resets it. When the backend is
// seen running without a local connection, one is created.
func (m *Manager) Poll(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	wait := interval
	for {
		st := m.InstallStatus(ctx, true)
		if st.IsStarted() && m.LocalConnection() == nil && m.InstallerStatus() == InstallerIdle {
			m.CreateLocalConnection(ctx)
		}
		wait = nextPollDelay(wait, interval, st == StatusUnknown)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func nextPollDelay(cur, base time.Duration, failed bool) time.Duration {
	if !failed {
		return base
	}
	next := cur * 2
	if ceiling := base * maxPollBackoff; next > ceiling {
		next = ceiling
	}
	return next
}
