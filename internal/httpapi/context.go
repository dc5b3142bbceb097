package httpapi

import (
	"context"
	"net/http"
)

// serverBaseCtx is a process-level context that can be canceled on shutdown.
// Defaults to Background if not set.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// requestContext returns a context canceled when either the request ends or
// the server shuts down. The cancel func must be called when the handler ends.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(serverBaseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// operationContext returns a context for installer operations. It outlives
// the client connection; server shutdown and the operation timeout still
// cancel it.
func operationContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(serverBaseCtx, cancel)
	if operationTimeout > 0 {
		var cancelTO context.CancelFunc
		ctx, cancelTO = context.WithTimeout(ctx, operationTimeout)
		return ctx, func() {
			stop()
			cancelTO()
			cancel()
		}
	}
	return ctx, func() {
		stop()
		cancel()
	}
}
