package spec

import (
	"encoding/json"
	"net/http"

	"github.com/MahdiBaghbani/ocmgate/internal/ocm/ocmerr"
)

// ErrorResponse is the error envelope for OCM endpoints.
type ErrorResponse struct {
	Message string `json:"message"`
}

// WriteError translates a taxonomy error into an HTTP response. This is the
// single point where *ocmerr.Error values become status codes and JSON.
func WriteError(w http.ResponseWriter, err *ocmerr.Error) {
	WriteErrorMessage(w, err.Status, err.Message)
}

// WriteErrorMessage writes the error envelope with an explicit status.
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Message: message})
}

// WriteCreated writes the empty success response shared by the share
// creation and notification endpoints.
func WriteCreated(w http.ResponseWriter) {
	w.WriteHeader(http.StatusCreated)
}
