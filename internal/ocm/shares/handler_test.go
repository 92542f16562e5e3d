package shares

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MahdiBaghbani/ocmgate/internal/config"
	"github.com/MahdiBaghbani/ocmgate/internal/identity"
	"github.com/MahdiBaghbani/ocmgate/internal/share"
	"github.com/MahdiBaghbani/ocmgate/internal/store"
	storejson "github.com/MahdiBaghbani/ocmgate/internal/store/json"
)

func newTestService(t *testing.T, fed config.FederationConfig) *share.Service {
	t.Helper()

	d, err := storejson.NewDriver(&store.DriverConfig{Driver: "json", DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}
	drv := d.(*storejson.Driver)
	if err := drv.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { drv.Close() })

	users := identity.NewMemoryPartyRepo()
	users.Create(context.Background(), &identity.User{Username: "bob", DisplayName: "Bob"})

	return share.NewService(drv, users, fed)
}

func enabledFed() config.FederationConfig {
	return config.FederationConfig{IncomingEnabled: true, OutgoingEnabled: true}
}

func validBody() map[string]any {
	return map[string]any{
		"shareWith":    "bob@b.example",
		"name":         "report.pdf",
		"providerId":   "42",
		"owner":        "carol@a.example",
		"shareType":    "user",
		"resourceType": "file",
		"protocol": map[string]any{
			"name":    "webdav",
			"options": map[string]any{"sharedSecret": "s3cr3t"},
		},
	}
}

func postShare(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/ocm/shares", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.CreateShare(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error envelope: %v", err)
	}
	return resp.Message
}

func TestCreateShare_Success(t *testing.T) {
	svc := newTestService(t, enabledFed())
	h := NewHandler(svc, nil, nil)

	rec := postShare(t, h, validBody())

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() != 0 {
		t.Errorf("success body must be empty, got %q", rec.Body.String())
	}

	// The share is resolvable with the secret from the protocol options
	got, err := svc.ResolveAuthorized(context.Background(), "42", "s3cr3t")
	if err != nil {
		t.Fatalf("share not stored: %v", err)
	}
	if got.RecipientUserID != "bob" {
		t.Errorf("RecipientUserID = %q", got.RecipientUserID)
	}
	if got.Name != "report.pdf" {
		t.Errorf("Name = %q", got.Name)
	}
}

func TestCreateShare_FederationDisabled(t *testing.T) {
	svc := newTestService(t, config.FederationConfig{IncomingEnabled: false, OutgoingEnabled: true})
	h := NewHandler(svc, nil, nil)

	rec := postShare(t, h, validBody())
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestCreateShare_MissingFields(t *testing.T) {
	svc := newTestService(t, enabledFed())
	h := NewHandler(svc, nil, nil)

	required := []string{"shareWith", "name", "providerId", "owner", "shareType", "resourceType", "protocol"}
	for _, field := range required {
		t.Run(field, func(t *testing.T) {
			body := validBody()
			delete(body, field)

			rec := postShare(t, h, body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d", rec.Code)
			}
			if msg := errorMessage(t, rec); !strings.Contains(msg, field) {
				t.Errorf("message %q should name the missing field %q", msg, field)
			}
		})
	}
}

func TestCreateShare_MalformedProtocol(t *testing.T) {
	svc := newTestService(t, enabledFed())
	h := NewHandler(svc, nil, nil)

	tests := []struct {
		name     string
		protocol any
	}{
		{"no options", map[string]any{"name": "webdav"}},
		{"no shared secret", map[string]any{"name": "webdav", "options": map[string]any{}}},
		{"no name", map[string]any{"options": map[string]any{"sharedSecret": "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validBody()
			body["protocol"] = tt.protocol

			rec := postShare(t, h, body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d", rec.Code)
			}
		})
	}
}

func TestCreateShare_InvalidMountName(t *testing.T) {
	svc := newTestService(t, enabledFed())
	h := NewHandler(svc, nil, nil)

	for _, name := range []string{"../escape", "a/b", "..", "nul\x00byte"} {
		body := validBody()
		body["name"] = name

		rec := postShare(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("name %q: status = %d", name, rec.Code)
		}
	}
}

func TestCreateShare_UnsupportedVariants(t *testing.T) {
	svc := newTestService(t, enabledFed())
	h := NewHandler(svc, nil, nil)

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"protocol", func(b map[string]any) {
			b["protocol"] = map[string]any{"name": "carrier-pigeon", "options": map[string]any{"sharedSecret": "x"}}
		}},
		{"share type", func(b map[string]any) { b["shareType"] = "group" }},
		{"resource type", func(b map[string]any) { b["resourceType"] = "calendar" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validBody()
			tt.mutate(body)

			rec := postShare(t, h, body)
			if rec.Code != http.StatusNotImplemented {
				t.Errorf("status = %d, want 501", rec.Code)
			}
		})
	}
}

func TestCreateShare_UnknownRecipient(t *testing.T) {
	svc := newTestService(t, enabledFed())
	h := NewHandler(svc, nil, nil)

	body := validBody()
	body["shareWith"] = "ghost@b.example"

	rec := postShare(t, h, body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestCreateShare_Duplicate(t *testing.T) {
	svc := newTestService(t, enabledFed())
	h := NewHandler(svc, nil, nil)

	if rec := postShare(t, h, validBody()); rec.Code != http.StatusCreated {
		t.Fatalf("first create failed: %d", rec.Code)
	}

	rec := postShare(t, h, validBody())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if msg := errorMessage(t, rec); !strings.Contains(msg, "already exists") {
		t.Errorf("message = %q", msg)
	}
}

type suffixMapper struct{ suffix string }

func (m suffixMapper) MapRecipient(_ context.Context, userID string) string {
	return strings.TrimSuffix(userID, m.suffix)
}

func TestCreateShare_RecipientMapperHook(t *testing.T) {
	svc := newTestService(t, enabledFed())
	h := NewHandler(svc, suffixMapper{suffix: "-login"}, nil)

	body := validBody()
	body["shareWith"] = "bob-login@b.example"

	rec := postShare(t, h, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got, err := svc.ResolveAuthorized(context.Background(), "42", "s3cr3t")
	if err != nil {
		t.Fatalf("share not stored: %v", err)
	}
	if got.RecipientUserID != "bob" {
		t.Errorf("mapper not applied, RecipientUserID = %q", got.RecipientUserID)
	}
}

func TestCreateShare_SenderFallsBackToOwner(t *testing.T) {
	svc := newTestService(t, enabledFed())
	h := NewHandler(svc, nil, nil)

	body := validBody()
	delete(body, "sender")

	rec := postShare(t, h, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	got, _ := svc.ResolveAuthorized(context.Background(), "42", "s3cr3t")
	if got.Sender != "carol@a.example" {
		t.Errorf("Sender = %q", got.Sender)
	}
	if got.SenderHost != "a.example" {
		t.Errorf("SenderHost = %q", got.SenderHost)
	}
}

func TestCreateShare_BadJSON(t *testing.T) {
	svc := newTestService(t, enabledFed())
	h := NewHandler(svc, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/ocm/shares", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.CreateShare(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}
