package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "cwmanager"

// requestBuckets cover quick status reads up to installer operations that
// run for minutes.
var requestBuckets = []float64{.005, .025, .1, .5, 1, 5, 30, 120, 600}

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "code"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and method",
		Buckets:   requestBuckets,
	}, []string{"route", "method"})

	rejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "operations_rejected_total",
		Help:      "Installer operations refused before running, by op and reason",
	}, []string{"op", "reason"})

	eventSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "event_subscribers",
		Help:      "Open /events streams",
	})

	eventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "events_dropped_total",
		Help:      "Events dropped because a stream subscriber was too slow",
	})
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, rejectedTotal, eventSubscribers, eventsDroppedTotal)
}

// MetricsMiddleware records request counts and latency per chi route.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		route := routePatternOrPath(r)
		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(code)).Inc()
		httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// routePatternOrPath prefers the chi route pattern to keep label cardinality
// bounded; unmatched requests fall back to the raw path.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// IncrementRejected counts an installer operation refused for reason.
func IncrementRejected(op, reason string) {
	if reason == "" {
		reason = "unspecified"
	}
	rejectedTotal.WithLabelValues(op, reason).Inc()
}
