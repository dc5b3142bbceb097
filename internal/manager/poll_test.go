package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"cwmanager/internal/installer"
)

func TestNextPollDelay(t *testing.T) {
	base := time.Second
	d := base
	want := []time.Duration{2 * base, 4 * base, 8 * base, 8 * base}
	for i, w := range want {
		d = nextPollDelay(d, base, true)
		if d != w { t.Fatalf("step %d: %v want %v", i, d, w) }
	}
	if d = nextPollDelay(d, base, false); d != base { t.Fatalf("reset=%v", d) }
}

func TestPoll_ConnectsAndStops(t *testing.T) {
	f := newFixture(t)
	f.status.set(installer.StatusDoc{}, installer.ErrIO)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.m.Poll(ctx, 5*time.Millisecond) }()

	time.Sleep(20 * time.Millisecond)
	f.status.set(running(testURL), nil)
	deadline := time.Now().Add(2 * time.Second)
	for f.m.LocalConnection() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if f.m.LocalConnection() == nil { t.Fatalf("poll did not create the local connection") }
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) { t.Fatalf("poll returned %v", err) }
	case <-time.After(2 * time.Second):
		t.Fatalf("poll did not stop")
	}
	if f.status.calls.Load() < 2 { t.Fatalf("expected repeated status queries") }
}
