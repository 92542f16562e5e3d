// Package wellknown serves this instance's OCM discovery document at
// /.well-known/ocm and the legacy /ocm-provider location.
package wellknown

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MahdiBaghbani/ocmgate/internal/logutil"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/spec"
)

// Handler serves a discovery document computed once at startup.
type Handler struct {
	data *spec.Discovery
	log  *slog.Logger
}

// NewHandler creates a discovery handler for the given static document.
func NewHandler(doc *spec.Discovery, log *slog.Logger) *Handler {
	return &Handler{data: doc, log: logutil.NoopIfNil(log)}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.data); err != nil {
		h.log.Error("failed to encode discovery document", "error", err)
	}
}
