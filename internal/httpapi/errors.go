package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"cwmanager/internal/installer"
	"cwmanager/internal/manager"
	"cwmanager/pkg/types"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// statusForError maps well-known manager and installer errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case manager.IsUnknownOperation(err):
		return http.StatusBadRequest
	case manager.IsBusy(err), manager.IsNotInstalled(err):
		return http.StatusConflict
	case errors.Is(err, manager.ErrNoInstaller):
		return http.StatusNotImplemented
	case installer.IsTimeout(err):
		return http.StatusGatewayTimeout
	case installer.IsOperationFailed(err):
		return http.StatusBadGateway
	case manager.IsUnavailable(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
