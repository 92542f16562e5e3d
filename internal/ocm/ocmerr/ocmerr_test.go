package ocmerr

import (
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantStatus int
	}{
		{"bad request", BadRequest("missing parameter"), http.StatusBadRequest},
		{"forbidden", Forbidden("invalid token"), http.StatusForbidden},
		{"not implemented", NotImplemented("unsupported protocol"), http.StatusNotImplemented},
		{"internal", Internal("storage failure"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.wantStatus)
			}
			if tt.err.Error() == "" {
				t.Error("Error() must return the message")
			}
		})
	}
}
