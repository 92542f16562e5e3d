package wellknown

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/MahdiBaghbani/ocmgate/internal/config"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/discovery"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/spec"
)

func TestHandler_ServesDocument(t *testing.T) {
	cfg := &config.Config{
		PublicOrigin: "https://cloud.example.org",
		Federation:   config.FederationConfig{Provider: "Example Cloud"},
	}
	h := NewHandler(discovery.NewDocument(cfg), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/.well-known/ocm", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var doc spec.Discovery
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !doc.Enabled || doc.APIVersion != "1.0-proposal1" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.EndPoint != "https://cloud.example.org/ocm" {
		t.Errorf("EndPoint = %q", doc.EndPoint)
	}
}

func TestHandler_ByteIdenticalResponses(t *testing.T) {
	cfg := &config.Config{PublicOrigin: "https://cloud.example.org"}
	h := NewHandler(discovery.NewDocument(cfg), nil)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest("GET", "/ocm-provider", nil))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/ocm-provider", nil))
		if rec.Body.String() != first.Body.String() {
			t.Fatal("discovery responses differ between calls")
		}
	}
}
