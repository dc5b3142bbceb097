// Package httpapi exposes the lifecycle manager over HTTP: cached and
// refreshed status, connections, active applications, templates, installer
// operations and a server-sent event stream of manager events.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cwmanager/internal/manager"
	"cwmanager/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Status() types.StatusResponse
	InstallStatus(ctx context.Context, forceRefresh bool) manager.InstallStatus
	Connections() []types.ConnectionStatus
	ActiveApplications() []types.Application
	Refresh(ctx context.Context)
	Templates(ctx context.Context, conid, filter string) ([]types.Template, error)
	RunOperation(ctx context.Context, op string) error
	Subscribe(o manager.Observer) (unsubscribe func())
	Ready() bool
}

// eventBuffer is the per-subscriber queue depth of /events.
const eventBuffer = 16

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(requestLogger)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5, "application/json"))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Post("/status/refresh", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext(r)
		defer cancel()
		svc.InstallStatus(ctx, true)
		writeJSON(w, svc.Status())
	})

	r.Get("/connections", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ConnectionsResponse{Connections: svc.Connections()})
	})

	r.Get("/apps/active", func(w http.ResponseWriter, r *http.Request) {
		apps := svc.ActiveApplications()
		if apps == nil {
			apps = []types.Application{}
		}
		writeJSON(w, map[string]any{"active": len(apps) > 0, "apps": apps})
	})

	r.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext(r)
		defer cancel()
		svc.Refresh(ctx)
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/templates", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext(r)
		defer cancel()
		q := r.URL.Query()
		list, err := svc.Templates(ctx, q.Get("conid"), q.Get("filter"))
		if err != nil {
			writeJSONError(w, statusForError(err), err.Error())
			return
		}
		if list == nil {
			list = []types.Template{}
		}
		writeJSON(w, types.TemplatesResponse{Templates: list})
	})

	r.Post("/installer/{op}", func(w http.ResponseWriter, r *http.Request) {
		op := chi.URLParam(r, "op")
		ctx, cancel := operationContext(r)
		defer cancel()
		if err := svc.RunOperation(ctx, op); err != nil {
			code := statusForError(err)
			switch {
			case manager.IsBusy(err):
				IncrementRejected(op, "busy")
			case manager.IsUnknownOperation(err):
				IncrementRejected("invalid", "unknown_op")
			}
			writeJSONError(w, code, err.Error())
			return
		}
		writeJSON(w, types.OperationResponse{Op: op, InstallStatus: svc.Status().InstallStatus})
	})

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		serveEvents(svc, w, r)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(svc.Status().Display))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// serveEvents streams manager events as server-sent events. The first event
// is the current status. Events a slow client cannot keep up with are dropped.
func serveEvents(svc Service, w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	ch := make(chan manager.Event, eventBuffer)
	unsub := svc.Subscribe(manager.ObserverFunc(func(e manager.Event) {
		select {
		case ch <- e:
		default:
			eventsDroppedTotal.Inc()
		}
	}))
	defer unsub()
	eventSubscribers.Inc()
	defer eventSubscribers.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := writeEvent(w, "status", svc.Status()); err != nil {
		return
	}
	fl.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-serverBaseCtx.Done():
			return
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			fl.Flush()
		case e := <-ch:
			if err := writeEvent(w, string(e.Kind), e); err != nil {
				return
			}
			fl.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, b)
	return err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
