package types

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Install status of the local backend (unknown, not_installed, stopped, running).
	InstallStatus string `json:"install_status"`
	// Installer operation in progress, empty when idle.
	InstallerStatus string `json:"installer_status,omitempty"`
	// Installer status if set, otherwise install status.
	Display string `json:"display"`
	// Base URL of the local backend when running.
	URL string `json:"url,omitempty"`
	// Backend version when known.
	Version string `json:"version,omitempty"`
	// Whether the backend images are present (stopped or running).
	Installed bool `json:"installed"`
	// Whether the shared local connection exists.
	LocalConnection bool `json:"local_connection"`
}

// ConnectionStatus summarizes one registered connection.
type ConnectionStatus struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"`
	Connected bool          `json:"connected"`
	Local     bool          `json:"local"`
	Apps      []Application `json:"apps"`
}

// ConnectionsResponse wraps GET /connections.
type ConnectionsResponse struct {
	Connections []ConnectionStatus `json:"connections"`
}

// TemplatesResponse wraps GET /templates.
type TemplatesResponse struct {
	Templates []Template `json:"templates"`
}

// OperationResponse is returned by POST /installer/{op}.
type OperationResponse struct {
	Op            string `json:"op"`
	InstallStatus string `json:"install_status"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	Error string `json:"error"`
	// HTTP status code.
	Code int `json:"code"`
}
