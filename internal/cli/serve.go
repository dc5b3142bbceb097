package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cwmanager/internal/httpapi"
	"cwmanager/internal/manager"
)

var (
	corsMethods = []string{"GET", "POST", "OPTIONS"}
	corsHeaders = []string{"Content-Type", "X-Log-Level", "X-Request-Id"}
)

// runServe serves the HTTP API and polls the backend until SIGINT/SIGTERM.
func runServe(ctx context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.closeAll()

	httpapi.SetLogger(a.log.With().Str("component", "http").Logger())
	httpapi.SetDefaultLogLevel(httpLogLevel(a.cfg.LogLevel))
	httpapi.SetBaseContext(ctx)
	httpapi.SetOperationTimeout(a.cfg.OperationTimeout())
	if len(a.cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, a.cfg.CORSOrigins, corsMethods, corsHeaders)
	}

	a.addRemotes(ctx)
	a.mgr.Init(ctx)

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewMux(a.mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(a.mgr.Poll(gctx, a.cfg.PollInterval()))
	})
	g.Go(func() error {
		a.log.Info().Str("addr", srv.Addr).Str("installer", a.inst.Path()).Msg("cwmanager listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			a.log.Warn().Err(err).Msg("graceful shutdown error")
		}
		return nil
	})
	return g.Wait()
}

// runWatch polls the backend and writes every manager event to w, one JSON
// object per line, until SIGINT/SIGTERM.
func runWatch(ctx context.Context, a *app, w io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.closeAll()

	ch := make(chan manager.Event, 64)
	unsub := a.mgr.Subscribe(manager.ObserverFunc(func(e manager.Event) {
		select {
		case ch <- e:
		default:
			a.log.Warn().Str("kind", string(e.Kind)).Msg("event dropped")
		}
	}))
	defer unsub()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(a.mgr.Poll(gctx, a.cfg.PollInterval()))
	})
	g.Go(func() error {
		enc := json.NewEncoder(w)
		for {
			select {
			case <-gctx.Done():
				return nil
			case e := <-ch:
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
		}
	})
	return g.Wait()
}

// httpLogLevel maps the process log level to a per-request log level.
func httpLogLevel(level string) string {
	switch level {
	case "debug", "trace":
		return "debug"
	case "warn", "error", "fatal", "panic":
		return "error"
	case "disabled":
		return "off"
	}
	return "info"
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
