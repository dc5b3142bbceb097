package httpapi

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("CWMANAGER_HTTP_LOG_LEVEL"))

// SetDefaultLogLevel overrides the request log level used when a request
// does not ask for one.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// requestLogger logs one line per request at the level chosen by requestLogLevel.
// Error responses (>=500) are logged from LevelError up; everything else from LevelInfo.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lvl := requestLogLevel(r)
		if lvl == LevelOff {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status < 500 && lvl < LevelInfo {
			return
		}
		dur := time.Since(start)
		if zlog != nil {
			z := zlog.Info()
			if status >= 500 {
				z = zlog.Error()
			}
			z = z.Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Dur("dur", dur)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			if lvl >= LevelDebug {
				z = z.Str("remote", r.RemoteAddr).Int("bytes", ww.BytesWritten())
			}
			z.Msg("request")
			return
		}
		log.Printf("request method=%s path=%s status=%d dur=%s", r.Method, r.URL.Path, status, dur)
	})
}
