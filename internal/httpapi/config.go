package httpapi

import "time"

// operationTimeout bounds installer operations started over HTTP.
// Zero means no additional timeout beyond the server base context.
var operationTimeout time.Duration

// SetOperationTimeout sets the installer operation timeout (<=0 disables).
func SetOperationTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	operationTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
